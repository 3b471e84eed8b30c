package persiandate

import (
	"time"
)

// PersianDate is a date in the Persian (Jalali) calendar
type PersianDate struct {
	Year  int
	Month int
	Day   int
}

// Convert returns the Persian date of t's calendar date in t's location.
// Results for dates before Epoch are not meaningful; Date values never are
func Convert(t time.Time) PersianDate {
	year, month, day := civilToJalali(t.Year(), int(t.Month()), t.Day())
	return PersianDate{Year: year, Month: month, Day: day}
}

// FromTime converts t to the Persian calendar and renders it.
// Defaults: Hyphenated, zero-padded
func FromTime(t time.Time, opts ...Option) string {
	return Convert(t).Format(opts...)
}

// FromDate converts a date-only value, anchored at 03:00 local time, and
// renders it. Defaults: Hyphenated, zero-padded
func FromDate(d Date, opts ...Option) string {
	return FromTime(d.Time(), opts...)
}

// civilToJalali converts a proleptic Gregorian date with the jdf arithmetic
// (33-year cycle of 12053 days, eight leap years per cycle)
func civilToJalali(gy, gm, gd int) (jy, jm, jd int) {
	monthOffsets := [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

	gy2 := gy
	if gm > 2 {
		gy2 = gy + 1
	}

	days := 355666 + 365*gy + (gy2+3)/4 - (gy2+99)/100 + (gy2+399)/400 + gd + monthOffsets[gm-1]

	jy = -1595 + 33*(days/12053)
	days %= 12053

	jy += 4 * (days / 1461)
	days %= 1461

	if days > 365 {
		jy += (days - 1) / 365
		days = (days - 1) % 365
	}

	if days < 186 {
		jm = 1 + days/31
		jd = 1 + days%31
	} else {
		jm = 7 + (days-186)/30
		jd = 1 + (days-186)%30
	}

	return jy, jm, jd
}
