package engine

import "time"

// Clock supplies the pacing delay between commands.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns a clock backed by the runtime timer.
func RealClock() Clock { return realClock{} }
