package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the canonical text form of a Date.
const DateLayout = "2006-01-02"

// supported input layouts, tried in order. Month and day take one or two digits.
var dateLayouts = []string{"2006-1-2", "2006-1", "2006"}

// Date is a calendar date without time of day nor timezone.
type Date struct {
	t time.Time
}

// NewDate returns the date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads a date from one of `YYYY-MM-DD`, `YYYY-MM` or `YYYY`.
// Missing month and day default to the first. `1980-2-5` is accepted.
func ParseDate(s string) (Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{t}, nil
		}
	}
	return Date{}, fmt.Errorf("%w: published date '%s' have incorrect format", ErrInvalidDate, s)
}

// MustParseDate is like ParseDate but panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DatePtr parses s and returns a pointer to the result. It panics on
// invalid input and is meant for literals.
func DatePtr(s string) *Date {
	d := MustParseDate(s)
	return &d
}

// String returns the date as `YYYY-MM-DD`.
func (d Date) String() string {
	return d.t.Format(DateLayout)
}

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool {
	return d.t.After(o.t)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

// Equal reports whether both dates are the same day.
func (d Date) Equal(o Date) bool {
	return d.t.Equal(o.t)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. It accepts the same
// layouts as ParseDate.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: published date must be a string", ErrInvalidDate)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
