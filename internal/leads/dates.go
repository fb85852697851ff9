package leads

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is how dates are written to and read from spreadsheets and query strings
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01-02-06", // how excel short dates come out of a spreadsheet
	"02/01/2006",
}

// ParseDate accepts the layouts people actually type into spreadsheets. The result is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// SameDay compares calendar dates, ignoring time of day
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatDate returns "" for a nil date
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
