// Package sim is the driving loop around the activity scheduler: a
// world of actors, each holding a current-activity slot that advances
// by exactly one dispatch per simulation step.
package sim

import "bunraku/internal/activity"

// Actor is one simulated entity: an identity plus the slot holding the
// activity currently driving it. An actor with an empty slot is idle.
type Actor struct {
	id      string
	current activity.Activity
}

// ID returns the actor's identity.
func (a *Actor) ID() string { return a.id }

// String renders the actor as its ID, which is how it appears in logs
// and dispatch diagnostics.
func (a *Actor) String() string { return a.id }

// CurrentActivity returns the node the driver will dispatch next step,
// or nil when the actor is idle.
func (a *Actor) CurrentActivity() activity.Activity { return a.current }

// IsIdle reports whether the actor has any work at all.
func (a *Actor) IsIdle() bool { return a.current == nil }

// QueueActivity hands the actor new work: installed directly when idle,
// otherwise appended at the tail of the current activity's queue.
func (a *Actor) QueueActivity(act activity.Activity) {
	if a.current == nil {
		a.current = act
		return
	}
	activity.Queue(a.current, act)
}

// CancelActivity asks the current activity to stop. The actor drains
// through the normal dispatch path on the following steps.
func (a *Actor) CancelActivity(keepQueue bool) {
	if a.current != nil {
		activity.Cancel(a.current, a, keepQueue)
	}
}
