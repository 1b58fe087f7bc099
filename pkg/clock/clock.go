// Package clock supplies the business notion of "now" to time-sensitive operations.
package clock

import "time"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant. Tests use it to pin late-day math.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
