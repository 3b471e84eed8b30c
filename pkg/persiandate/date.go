package persiandate

import (
	"errors"
	"fmt"
	"time"

	"cloudeng.io/datetime"
)

// anchorHour is the local time of day a date-only value is placed at before
// conversion, keeping it clear of midnight and DST transitions
const anchorHour = 3

// ErrInvalidDate is returned when a Gregorian date does not exist or lies
// before Epoch
var ErrInvalidDate = errors.New("invalid gregorian date")

// Epoch is the Gregorian date of 1 Farvardin 1, the first date with a
// Persian year of 1 or later
var Epoch = Date{year: 622, month: time.March, day: 21}

// Date is a Gregorian calendar date without a time of day
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate validates and returns the Gregorian date year-month-day
func NewDate(year int, month time.Month, day int) (Date, error) {
	if year < 1 || month < time.January || month > time.December || day < 1 {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}

	// time.Date normalises overflow (April 31 -> May 1); a changed field means
	// the date does not exist
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}

	d := Date{year: year, month: month, day: day}
	if d.Before(Epoch) {
		return Date{}, fmt.Errorf("%w: %s is before the Persian epoch %s", ErrInvalidDate, d, Epoch)
	}

	return d, nil
}

// MustDate is NewDate for constant dates; it panics on an invalid date
func MustDate(year int, month time.Month, day int) Date {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the calendar date of t in t's location
func DateOf(t time.Time) (Date, error) {
	return NewDate(t.Date())
}

// FromCalendarDate converts a cloudeng.io/datetime calendar date. A zero day,
// which datetime uses for "whole month", is rejected
func FromCalendarDate(cd datetime.CalendarDate) (Date, error) {
	return NewDate(int(cd.Year()), time.Month(cd.Month()), int(cd.Day()))
}

// Year returns the Gregorian year
func (d Date) Year() int { return d.year }

// Month returns the Gregorian month
func (d Date) Month() time.Month { return d.month }

// Day returns the day of the month
func (d Date) Day() int { return d.day }

// IsZero reports whether d is the zero Date
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// Before reports whether d is earlier than other
func (d Date) Before(other Date) bool {
	if d.year != other.year {
		return d.year < other.year
	}
	if d.month != other.month {
		return d.month < other.month
	}
	return d.day < other.day
}

// Time returns the date at 03:00 local time
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, anchorHour, 0, 0, 0, time.Local)
}

// String returns the date as YYYY-MM-DD
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}
