package curveseries

import (
	"testing"
	"time"
)

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"single digit day", time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), "05-Mar-2025"},
		{"end of year", time.Date(2025, time.December, 26, 0, 0, 0, 0, time.UTC), "26-Dec-2025"},
		{"january", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), "01-Jan-2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDate(tt.in); got != tt.want {
				t.Errorf("FormatDate(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRowDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"month name", "26-Dec-2025", time.Date(2025, time.December, 26, 0, 0, 0, 0, time.UTC), true},
		{"numeric month", "26-12-2025", time.Date(2025, time.December, 26, 0, 0, 0, 0, time.UTC), true},
		{"time suffix stripped", "26-Dec-2025 00:00:00.000", time.Date(2025, time.December, 26, 0, 0, 0, 0, time.UTC), true},
		{"lowercase month rejected", "26-dec-2025", time.Time{}, false},
		{"surrounding spaces", "  26-Dec-2025  ", time.Date(2025, time.December, 26, 0, 0, 0, 0, time.UTC), true},
		{"not a date", "not-a-date", time.Time{}, false},
		{"two parts", "26-Dec", time.Time{}, false},
		{"bad month name", "26-Foo-2025", time.Time{}, false},
		{"month out of range", "26-13-2025", time.Time{}, false},
		{"day out of range", "32-Jan-2025", time.Time{}, false},
		{"day overflows month", "31-Feb-2025", time.Time{}, false},
		{"empty", "", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRowDate(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseRowDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseRowDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRowDateEquivalentForms(t *testing.T) {
	a, ok := ParseRowDate("26-12-2025")
	if !ok {
		t.Fatal("numeric form did not parse")
	}
	b, ok := ParseRowDate("26-Dec-2025")
	if !ok {
		t.Fatal("name form did not parse")
	}
	if !a.Equal(b) {
		t.Errorf("numeric and name forms diverge: %v vs %v", a, b)
	}
}
