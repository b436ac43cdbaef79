package services

import "time"

// Clock lets tests control time for hold expiry.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a clock backed by time.Now (UTC).
func SystemClock() Clock { return systemClock{} }

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (f *FixedClock) Now() time.Time { return f.T }
