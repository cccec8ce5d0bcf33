package application

import "time"

// Clock interface supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock implementasi default, pakai time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock serves tests that need to move time by hand.
type FixedClock struct {
	T time.Time
}

func (f *FixedClock) Now() time.Time { return f.T }

// Advance moves the fixed instant forward.
func (f *FixedClock) Advance(d time.Duration) { f.T = f.T.Add(d) }
