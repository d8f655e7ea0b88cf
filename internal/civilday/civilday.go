// Package civilday canonicalizes instants to hostel civil days.
//
// The hostel runs on a fixed UTC+5:30 convention. Every day key and every
// meal-window hour in the service is derived here, so the offset arithmetic
// lives in exactly one place. No locale databases, no string round-trips:
// shift the instant by the fixed offset and read the calendar fields.
package civilday

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Offset is the fixed civil-day offset from UTC (+5:30).
const Offset = 5*time.Hour + 30*time.Minute

// Day is a date-only value under the fixed offset. It never carries a
// time-of-day component and is comparable with ==.
type Day struct {
	Year  int
	Month time.Month
	Date  int
}

// FromInstant maps an instant to the civil day it falls on.
// Two instants map to the same Day iff their offset-adjusted
// (year, month, day) triples match.
func FromInstant(t time.Time) Day {
	y, m, d := t.UTC().Add(Offset).Date()
	return Day{Year: y, Month: m, Date: d}
}

// LocalHour returns the offset-adjusted hour of day (0..23) for an instant.
func LocalHour(t time.Time) int {
	return t.UTC().Add(Offset).Hour()
}

// Parse parses a Day from its "2006-01-02" form.
func Parse(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Date: d}, nil
}

// Time returns the day as a UTC midnight instant, the normalized form
// records are persisted under.
func (d Day) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, time.UTC)
}

func (d Day) String() string {
	return d.Time().Format("2006-01-02")
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool {
	return d == Day{}
}

// Before reports whether d falls before other.
func (d Day) Before(other Day) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d falls after other.
func (d Day) After(other Day) bool {
	return d.Time().After(other.Time())
}

// AddDays returns the day n calendar days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	y, m, dd := d.Time().AddDate(0, 0, n).Date()
	return Day{Year: y, Month: m, Date: dd}
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(text []byte) error {
	day, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = day
	return nil
}

// Window is an inclusive range of civil days.
type Window struct {
	Start Day
	End   Day
}

// NewWindow builds a window, rejecting an end before its start.
func NewWindow(start, end Day) (Window, error) {
	if end.Before(start) {
		return Window{}, fmt.Errorf("window end %s before start %s", end, start)
	}
	return Window{Start: start, End: end}, nil
}

// SingleDay returns the one-day window covering d.
func SingleDay(d Day) Window {
	return Window{Start: d, End: d}
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d Day) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Len returns the number of days the window spans.
func (w Window) Len() int {
	return int(w.End.Time().Sub(w.Start.Time())/(24*time.Hour)) + 1
}

// MultiDay reports whether the window spans more than one day.
func (w Window) MultiDay() bool {
	return w.Len() > 1
}

func (w Window) String() string {
	return w.Start.String() + ".." + w.End.String()
}

// Clock answers "what civil day is it" against an injected clock, so
// day-rollover behaviour is testable at any boundary.
type Clock struct {
	clock clockwork.Clock
}

// NewClock wraps a clockwork clock.
func NewClock(clock clockwork.Clock) Clock {
	return Clock{clock: clock}
}

// Now returns the current instant from the underlying clock.
func (c Clock) Now() time.Time {
	return c.clock.Now()
}

// Today returns the current civil day.
func (c Clock) Today() Day {
	return FromInstant(c.clock.Now())
}

// LocalHour returns the current offset-adjusted hour (0..23).
func (c Clock) LocalHour() int {
	return LocalHour(c.clock.Now())
}
