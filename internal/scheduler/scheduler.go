// Package scheduler provides the clock and tick source that drives every
// timer in the simulator.
package scheduler

import (
	"time"
)

// Cancel stops a scheduled job. It is safe to call more than once.
type Cancel func()

// Scheduler runs callbacks on intervals and after delays. Implementations
// run callbacks one at a time, each to completion, in due-time order.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time

	// Every runs fn every interval until cancelled.
	Every(name string, interval time.Duration, fn func()) Cancel

	// After runs fn once after delay unless cancelled first.
	After(delay time.Duration, fn func()) Cancel
}

func noop() {}
