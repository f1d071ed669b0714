package clock

import "time"

// Clock abstracts wall time so month-boundary logic stays testable.
type Clock interface {
	Now() time.Time
}

// System reads the real wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always reports the same instant; test fixture.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At.UTC() }
