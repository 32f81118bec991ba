// Package clock supplies the current calendar date.
package clock

import (
	"sync"
	"time"
)

// DefaultDateLayout renders dates the way existing records store them (dd.MM.yyyy).
const DefaultDateLayout = "02.01.2006"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in a fixed location.
type System struct {
	Location *time.Location
}

// Now implements Clock.
func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Fixed is a settable clock for tests and replays.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixed returns a Fixed clock set to t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

// Now implements Clock.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// Today renders the calendar date of c.Now() with layout.
func Today(c Clock, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return c.Now().Format(layout)
}

// ParseDate parses a date rendered by Today.
func ParseDate(value, layout string) (time.Time, error) {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return time.ParseInLocation(layout, value, time.Local)
}
