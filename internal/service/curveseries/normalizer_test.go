package curveseries

import (
	"testing"
	"time"

	"CurveDash/internal/domain/models"
)

func TestNormalizeBasicRow(t *testing.T) {
	n := NewNormalizer(SourceName)

	rows := []models.RawRow{
		{models.TextCell("26-Dec-2025 00:00:00.000"), models.NumberCell(82.35)},
	}
	packets, dropped := n.Normalize("CL.F26", rows)

	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}

	p := packets[0]
	if p.Source != SourceName {
		t.Errorf("source = %q, want %q", p.Source, SourceName)
	}
	if p.Ticker != "CL.F26" {
		t.Errorf("ticker = %q", p.Ticker)
	}
	want := time.Date(2025, time.December, 26, 0, 0, 0, 0, time.UTC)
	if !p.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", p.Timestamp, want)
	}
	if p.Value != 82.35 {
		t.Errorf("value = %v, want 82.35", p.Value)
	}
	if p.Unit != models.DefaultUnit {
		t.Errorf("unit = %q, want %q", p.Unit, models.DefaultUnit)
	}
}

func TestNormalizeDropsRowsWithoutTimestamp(t *testing.T) {
	n := NewNormalizer(SourceName)

	rows := []models.RawRow{
		{models.TextCell("not-a-date"), models.NumberCell(5.0)},
		{models.NumberCell(1.0), models.NumberCell(2.0)},
		{models.TextCell("plain text"), models.NumberCell(3.0)},
	}
	packets, dropped := n.Normalize("X", rows)

	if len(packets) != 0 {
		t.Fatalf("got %d packets, want 0", len(packets))
	}
	if dropped != 3 {
		t.Errorf("dropped = %d, want 3", dropped)
	}
}

func TestNormalizeFirstNumericWins(t *testing.T) {
	n := NewNormalizer(SourceName)

	rows := []models.RawRow{
		{models.TextCell("01-Jan-2025"), models.NumberCell(10.0), models.NumberCell(99.0)},
	}
	packets, _ := n.Normalize("X", rows)

	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}
	if packets[0].Value != 10.0 {
		t.Errorf("value = %v, want first numeric 10.0", packets[0].Value)
	}
}

func TestNormalizeScansPastUnparseableDateLikeCells(t *testing.T) {
	n := NewNormalizer(SourceName)

	rows := []models.RawRow{
		{models.TextCell("broken-date-cell"), models.TextCell("02-Feb-2025"), models.NumberCell(7.5)},
	}
	packets, dropped := n.Normalize("X", rows)

	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}
	want := time.Date(2025, time.February, 2, 0, 0, 0, 0, time.UTC)
	if !packets[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", packets[0].Timestamp, want)
	}
}

func TestNormalizeRowWithoutNumberKeepsZeroValue(t *testing.T) {
	n := NewNormalizer(SourceName)

	rows := []models.RawRow{
		{models.TextCell("03-Mar-2025"), models.TextCell("no value today")},
	}
	packets, dropped := n.Normalize("X", rows)

	if dropped != 0 || len(packets) != 1 {
		t.Fatalf("packets = %d, dropped = %d", len(packets), dropped)
	}
	if packets[0].Value != 0 {
		t.Errorf("value = %v, want 0", packets[0].Value)
	}
}

func TestNormalizeKeepsRawAudit(t *testing.T) {
	n := NewNormalizer(SourceName)

	rows := []models.RawRow{
		{models.TextCell("04-Apr-2025"), models.NumberCell(1.25)},
	}
	packets, _ := n.Normalize("X", rows)
	if len(packets) != 1 {
		t.Fatalf("got %d packets", len(packets))
	}

	raw := packets[0].Raw
	if raw["c0"] != "04-Apr-2025" {
		t.Errorf("raw c0 = %v", raw["c0"])
	}
	if raw["c1"] != 1.25 {
		t.Errorf("raw c1 = %v", raw["c1"])
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewNormalizer(SourceName)

	packets, dropped := n.Normalize("X", nil)
	if len(packets) != 0 || dropped != 0 {
		t.Errorf("packets = %d, dropped = %d, want 0/0", len(packets), dropped)
	}
}
