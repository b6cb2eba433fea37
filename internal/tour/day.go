package tour

import (
	"fmt"
	"time"
)

// dayLayout is the wire format for calendar days.
const dayLayout = "2006-01-02"

// Day is a calendar day with no time-of-day component. Scheduling works at
// day granularity: two stops collide when they fall on the same Day.
type Day struct {
	t time.Time
}

// NewDay builds a Day from year, month and day.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates a time to its calendar day.
func DayOf(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return NewDay(y, m, d)
}

// ParseDay parses a "2006-01-02" string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// AddDays returns the day n days later (or earlier for negative n).
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// Equal reports whether two days are the same calendar day.
func (d Day) Equal(o Day) bool { return d.t.Equal(o.t) }

// Before reports whether d falls before o.
func (d Day) Before(o Day) bool { return d.t.Before(o.t) }

// After reports whether d falls after o.
func (d Day) After(o Day) bool { return d.t.After(o.t) }

// IsZero reports whether the day is the zero value.
func (d Day) IsZero() bool { return d.t.IsZero() }

// Time returns the day as a UTC midnight time.Time.
func (d Day) Time() time.Time { return d.t }

func (d Day) String() string { return d.t.Format(dayLayout) }

// MarshalJSON encodes the day as a "2006-01-02" JSON string.
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.t.Format(dayLayout) + `"`), nil
}

// UnmarshalJSON decodes a "2006-01-02" JSON string.
func (d *Day) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("day must be a %q string", dayLayout)
	}
	parsed, err := ParseDay(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
