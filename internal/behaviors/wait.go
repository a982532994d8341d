// Package behaviors ships the stock activities: generic units of work
// with no game semantics of their own, composable into anything the
// scenario layer or embedding code needs.
package behaviors

import (
	"fmt"

	"bunraku/internal/activity"
)

// Wait stays active for a fixed number of ticks, then completes. A
// cancellation request ends the wait at the next tick.
type Wait struct {
	activity.Base
	remaining int
}

// NewWait returns an activity that occupies its actor for ticks steps.
func NewWait(ticks int) *Wait {
	return &Wait{remaining: ticks}
}

func (w *Wait) Tick(activity.Actor) activity.Activity {
	if w.IsCanceling() || w.remaining <= 0 {
		return w.NextActivity()
	}
	w.remaining--
	return w
}

func (w *Wait) String() string {
	return fmt.Sprintf("Wait(%d)", w.remaining)
}
