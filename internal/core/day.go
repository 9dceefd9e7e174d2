package core

import (
	"errors"
	"fmt"
	"time"
)

// Day is a calendar day. It is comparable, so it can be used directly as a
// map key, unlike time.Time which carries wall-clock and monotonic parts.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDay creates a Day from year, month and day of month.
func NewDay(year int, month time.Month, day int) Day {
	return Day{Year: year, Month: month, Day: day}
}

// DayOf truncates a time.Time to its calendar day.
func DayOf(t time.Time) Day {
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Today returns the current calendar day in UTC.
func Today() Day {
	return DayOf(time.Now().UTC())
}

// Time returns the day at midnight UTC.
func (d Day) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// EpochDay returns the number of days since 1970-01-01, the storage
// representation of dates.
func (d Day) EpochDay() int64 {
	return d.Time().Unix() / (24 * 60 * 60)
}

// DayFromEpoch is the inverse of EpochDay.
func DayFromEpoch(n int64) Day {
	return DayOf(time.Unix(n*24*60*60, 0).UTC())
}

// StartOfMonth returns the first day of d's month.
func (d Day) StartOfMonth() Day {
	return Day{Year: d.Year, Month: d.Month, Day: 1}
}

// EndOfMonth returns the last day of d's month.
func (d Day) EndOfMonth() Day {
	return DayOf(time.Date(d.Year, d.Month+1, 0, 0, 0, 0, 0, time.UTC))
}

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

// Next returns the following day.
func (d Day) Next() Day {
	return d.AddDays(1)
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is strictly later than other.
func (d Day) After(other Day) bool {
	return other.Before(d)
}

// IsZero reports whether d is the zero value.
func (d Day) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// SameMonth reports whether d and other fall in the same calendar month.
func (d Day) SameMonth(other Day) bool {
	return d.Year == other.Year && d.Month == other.Month
}

// String formats the day as 2006-01-02.
func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDay parses a 2006-01-02 formatted day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Validate checks the day describes a real calendar date.
func (d Day) Validate() error {
	if d.IsZero() {
		return errors.New("day cannot be zero")
	}
	if d.Month < time.January || d.Month > time.December {
		return ErrInvalidMonth
	}
	if d.Day < 1 || d.Day > d.EndOfMonth().Day {
		return ErrInvalidDay
	}
	return nil
}
