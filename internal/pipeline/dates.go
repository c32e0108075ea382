package pipeline

import (
	"strconv"
	"strings"
	"time"
)

// Workbook serial dates count days from this epoch (the 1900 date system
// with its leap-year quirk already folded in).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serial values outside this range are treated as plain numbers, not
// dates. 10000 is 1927-05-18; 120000 is well past any plausible expiry.
const (
	serialMin = 10000
	serialMax = 120000
)

// isoLayouts are unambiguous and always tried first.
var isoLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
}

// dayFirstLayouts and monthFirstLayouts cover ambiguous numeric forms;
// ParseDate orders them by the dayFirst preference.
var dayFirstLayouts = []string{
	"02-01-2006", "2-1-2006",
	"02/01/2006", "2/1/2006",
	"02.01.2006", "2.1.2006",
	"02/01/2006 15:04:05",
}

var monthFirstLayouts = []string{
	"01-02-2006", "1-2-2006",
	"01/02/2006", "1/2/2006",
	"01.02.2006", "1.2.2006",
	"01/02/2006 15:04:05",
}

// textLayouts cover spelled-out month forms.
var textLayouts = []string{
	"02 Jan 2006", "2 Jan 2006",
	"02 January 2006", "2 January 2006",
	"Jan 2, 2006", "January 2, 2006",
	"02-Jan-2006", "02-Jan-06",
}

// ParseDate parses a raw cell value into a calendar date (midnight UTC).
// Accepts ISO strings, ambiguous numeric-separated strings (resolved by
// the dayFirst preference), spelled-out months, and workbook serial
// numbers. Returns false when the value is unparseable; callers treat that
// as "skip row", never as a batch failure.
func ParseDate(raw string, dayFirst bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial < serialMin || serial > serialMax {
			return time.Time{}, false
		}
		return serialEpoch.AddDate(0, 0, int(serial)), true
	}

	layouts := make([]string, 0, len(isoLayouts)+len(dayFirstLayouts)+len(monthFirstLayouts)+len(textLayouts))
	layouts = append(layouts, isoLayouts...)
	if dayFirst {
		layouts = append(layouts, dayFirstLayouts...)
		layouts = append(layouts, monthFirstLayouts...)
	} else {
		layouts = append(layouts, monthFirstLayouts...)
		layouts = append(layouts, dayFirstLayouts...)
	}
	layouts = append(layouts, textLayouts...)

	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return DateOnly(parsed), true
		}
	}

	return time.Time{}, false
}

// DateOnly truncates a timestamp to midnight UTC, the pipeline's canonical
// calendar-date representation.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
