package curveseries

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// monthByName is case sensitive on purpose: the bridge always emits the
// exact three-letter forms and nothing else should pass for one.
var monthByName = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// FormatDate renders t as the DD-Mon-YYYY form the bridge expects, e.g.
// "26-Dec-2025". The month table is fixed so output never varies with locale.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d-%s-%04d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// ParseRowDate parses a date-like cell into a UTC day. Accepted forms are
// "26-Dec-2025" and "26-12-2025"; an optional " HH:MM:SS..." suffix after the
// first space is ignored. Returns false when the string is not a date.
func ParseRowDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil || year < 1 {
		return time.Time{}, false
	}

	month, ok := monthByName[parts[1]]
	if !ok {
		m, err := strconv.Atoi(parts[1])
		if err != nil || m < 1 || m > 12 {
			return time.Time{}, false
		}
		month = time.Month(m)
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// Reject overflow like 31-Feb that Date silently normalizes.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
