package application

import "time"

// Clock abstraction so services are testable with fixed time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default implementation backed by time.Now().
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Sleeper paces blocking waits; tests substitute a no-op.
type Sleeper func(d time.Duration)

// SystemSleeper blocks on the wall clock.
func SystemSleeper(d time.Duration) { time.Sleep(d) }
