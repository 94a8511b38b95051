package normalize

import (
	"strconv"
	"strings"
	"time"
)

// ParseNumber extracts a float from a raw cell value. Currency symbols,
// thousands separators, percent signs and surrounding whitespace are
// stripped before parsing. Returns false when no number is present.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ',', r == '$', r == '%', r == ' ', r == '₹', r == '€', r == '£':
			// separators and currency markers
		default:
			// Anything else means this cell is not numeric (e.g. "N/A",
			// a date, free text)
			if b.Len() == 0 {
				return 0, false
			}
		}
	}

	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// dateFormats is the fallback chain tried when a cell does not parse as
// ISO 8601 already.
var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"02-01-2006",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006-01-02 15:04:05",
}

// excelEpoch is day zero of the 1900 date system used by spreadsheet
// serial dates.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ToISODate converts a raw date cell to YYYY-MM-DD. Unparsable or absent
// values fall back to the supplied processing time; losing the original
// value is accepted, not reported.
func ToISODate(raw string, now time.Time) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return now.Format("2006-01-02")
	}

	for _, format := range dateFormats {
		if d, err := time.Parse(format, s); err == nil {
			return d.Format("2006-01-02")
		}
	}

	// Spreadsheet cells sometimes surface dates as day serials
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 20000 && serial < 80000 {
		return excelEpoch.Add(time.Duration(serial * 24 * float64(time.Hour))).Format("2006-01-02")
	}

	return now.Format("2006-01-02")
}
