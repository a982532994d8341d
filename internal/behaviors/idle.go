package behaviors

import "bunraku/internal/activity"

// Idle holds its actor indefinitely: it ticks forever until canceled.
type Idle struct {
	activity.Base
}

// NewIdle returns an activity that never completes on its own.
func NewIdle() *Idle {
	return &Idle{}
}

func (i *Idle) Tick(activity.Actor) activity.Activity {
	if i.IsCanceling() {
		return i.NextActivity()
	}
	return i
}

func (i *Idle) String() string { return "Idle" }
