package persiandate

import (
	"fmt"
	"strconv"
	"strings"
)

// Format selects the layout of the rendered Persian date
type Format int

const (
	// US renders MM/DD/YYYY
	US Format = iota
	// International renders DD/MM/YYYY
	International
	// Hyphenated renders YYYY-MM-DD
	Hyphenated
)

// String returns the lower-case name used in config files and flags
func (f Format) String() string {
	switch f {
	case US:
		return "us"
	case International:
		return "international"
	case Hyphenated:
		return "hyphenated"
	}
	return "format(" + strconv.Itoa(int(f)) + ")"
}

// ParseFormat parses a format name (case-insensitive)
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "us":
		return US, nil
	case "international", "intl":
		return International, nil
	case "hyphenated", "iso", "":
		return Hyphenated, nil
	}
	return Hyphenated, fmt.Errorf("unknown format %q: want us, international or hyphenated", name)
}

// options holds the formatting settings; the zero value is not the default,
// use defaultOptions
type options struct {
	format  Format
	zeroPad bool
}

func defaultOptions() options {
	return options{format: Hyphenated, zeroPad: true}
}

// Option configures FromTime, FromDate and PersianDate.Format
type Option func(*options)

// WithFormat selects the output layout. Default: Hyphenated
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithZeroPad controls the leading zero on month and day values below 10.
// Default: true
func WithZeroPad(zeroPad bool) Option {
	return func(o *options) {
		o.zeroPad = zeroPad
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Format renders the Persian date. Year is never padded
func (pd PersianDate) Format(opts ...Option) string {
	o := buildOptions(opts)

	month := component(pd.Month, o.zeroPad)
	day := component(pd.Day, o.zeroPad)
	year := strconv.Itoa(pd.Year)

	switch o.format {
	case US:
		return month + "/" + day + "/" + year
	case International:
		return day + "/" + month + "/" + year
	case Hyphenated:
		return year + "-" + month + "-" + day
	}

	// Unreachable for the declared constants
	return year + "-" + month + "-" + day
}

func component(value int, zeroPad bool) string {
	s := strconv.Itoa(value)
	if zeroPad && value < 10 {
		return "0" + s
	}
	return s
}
