package dateutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/username/persiandate/pkg/persiandate"
)

// Layouts without a clock part; values parsed with these take the
// date-only conversion path
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"02.01.2006",
}

// Layouts with a clock part; values parsed with these are converted as
// timestamps
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Input is a parsed Gregorian value: either a date-only value or a timestamp
type Input struct {
	date      persiandate.Date
	timestamp time.Time
	hasClock  bool
}

// DateInput wraps a date-only value
func DateInput(d persiandate.Date) Input {
	return Input{date: d}
}

// TimestampInput wraps a timestamp. Timestamps before the Persian epoch are
// rejected with persiandate.ErrInvalidDate
func TimestampInput(t time.Time) (Input, error) {
	d, err := persiandate.DateOf(t)
	if err != nil {
		return Input{}, err
	}
	return Input{date: d, timestamp: t, hasClock: true}, nil
}

// HasClock reports whether the input carried a time of day
func (in Input) HasClock() bool {
	return in.hasClock
}

// Date returns the Gregorian calendar date of the input
func (in Input) Date() persiandate.Date {
	return in.date
}

// Format converts the input to a Persian date string. Date-only inputs go
// through the 03:00 anchor, timestamps are converted as they are
func (in Input) Format(opts ...persiandate.Option) string {
	if in.hasClock {
		return persiandate.FromTime(in.timestamp, opts...)
	}
	return persiandate.FromDate(in.date, opts...)
}

// String returns the input in ISO form
func (in Input) String() string {
	if in.hasClock {
		return in.timestamp.Format(time.RFC3339)
	}
	return in.date.String()
}

// ParseDate parses a Gregorian date or timestamp in one of the supported
// layouts. Timestamps without an offset are read in local time
func ParseDate(dateStr string) (Input, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return Input{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, dateStr)
		if err != nil {
			continue
		}
		d, err := persiandate.NewDate(t.Date())
		if err != nil {
			return Input{}, err
		}
		return DateInput(d), nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, dateStr, time.Local); err == nil {
			return TimestampInput(t)
		}
	}

	// time.Parse reports "day out of range" for April 31 and friends; give
	// those the invalid-date error instead of a layout mismatch
	if d, ok := parseLooseDate(dateStr); ok {
		if _, err := persiandate.NewDate(d[0], time.Month(d[1]), d[2]); err != nil {
			return Input{}, err
		}
	}

	return Input{}, fmt.Errorf("unrecognised date %q: want YYYY-MM-DD, YYYY/MM/DD, DD.MM.YYYY or an ISO 8601 timestamp", dateStr)
}

// parseLooseDate extracts year, month, day from YYYY-MM-DD style input
// without range checks
func parseLooseDate(s string) ([3]int, bool) {
	var y, m, d int
	for _, sep := range []string{"-", "/", "."} {
		if n, err := fmt.Sscanf(s, "%d"+sep+"%d"+sep+"%d", &y, &m, &d); err == nil && n == 3 && y > 31 {
			return [3]int{y, m, d}, true
		}
	}
	return [3]int{}, false
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// Today returns today's local date
func Today() persiandate.Date {
	return persiandate.MustDate(time.Now().Date())
}

// NextOccurrence returns the first time at hour:minute strictly after now,
// in now's location
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next
}
