package behaviors

import (
	"fmt"

	"bunraku/internal/activity"
)

// Repeat runs activities built by a factory, one at a time. Completed
// iterations are never relinked; every pass nests a freshly built node.
// A non-positive count repeats until canceled.
type Repeat struct {
	activity.Base
	build func() activity.Activity
	times int
	ran   int
}

// NewRepeat returns an activity that runs a freshly built node the
// given number of times. Pass times <= 0 to repeat until canceled.
func NewRepeat(times int, build func() activity.Activity) *Repeat {
	return &Repeat{times: times, build: build}
}

func (r *Repeat) Tick(activity.Actor) activity.Activity {
	if c := r.ChildActivity(); c != nil {
		return c
	}
	if r.IsCanceling() || r.build == nil || (r.times > 0 && r.ran >= r.times) {
		return r.NextActivity()
	}
	r.ran++
	child := r.build()
	activity.QueueChild(r, child)
	return child
}

func (r *Repeat) String() string {
	if r.times > 0 {
		return fmt.Sprintf("Repeat(%d/%d)", r.ran, r.times)
	}
	return fmt.Sprintf("Repeat(%d)", r.ran)
}
