package timeutil

import "time"

// Clock supplies the current instant. Services take a Clock instead of
// calling time.Now directly so session and analytics logic stays
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
