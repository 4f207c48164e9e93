package models

import (
	"fmt"
	"time"
)

// Month is a payroll reference month in "YYYY-MM" form. The string
// representation sorts chronologically, so range filters compare it
// directly.
type Month string

// ParseMonth validates and normalizes a "YYYY-MM" string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("invalid reference month %q: %w", s, err)
	}
	return Month(t.Format("2006-01")), nil
}

// MonthOf returns the Month containing the given time.
func MonthOf(t time.Time) Month {
	return Month(t.Format("2006-01"))
}

// Valid reports whether the month is well-formed.
func (m Month) Valid() bool {
	_, err := time.Parse("2006-01", string(m))
	return err == nil
}

// Before reports whether m sorts strictly before other.
func (m Month) Before(other Month) bool {
	return string(m) < string(other)
}

func (m Month) String() string {
	return string(m)
}
