package activity

import (
	"fmt"
	"sync/atomic"

	"bunraku/internal/logging"
)

var strictChecking atomic.Bool

// SetStrictChecking toggles the debug guard that makes dispatching an
// already-Done node fatal. Off by default: production counts the misuse
// and keeps the queue draining instead of crashing.
func SetStrictChecking(v bool) { strictChecking.Store(v) }

// StrictChecking reports whether the Done-dispatch guard is fatal.
func StrictChecking() bool { return strictChecking.Load() }

// Step advances a by exactly one state transition and returns the node
// to dispatch on the next simulation step. The driver that owns an
// actor's current-activity slot calls this once per step and replaces
// the slot with the result.
//
// A Queued node gets OnFirstRun and becomes Active before its first
// Tick. The node is finished once Tick hands control elsewhere: nil, or
// any node that is neither a itself nor one of a's direct children.
// On finishing, the parent's child slot advances to the returned node
// (unless that node is the parent), the state becomes Done and
// OnLastRun fires.
func Step(a Activity, actor Actor) Activity {
	b := a.base()

	if b.state == Done {
		if strictChecking.Load() {
			panic(fmt.Sprintf("activity: %s ticked after completion (actor %v)", Label(a), actor))
		}
		doneTicked.Add(1)
		logging.New("activity").Warn("ticked a completed activity",
			"activity", Label(a), "actor", fmt.Sprint(actor))
		return b.NextActivity()
	}

	if b.state == Queued {
		a.OnFirstRun(actor)
		b.state = Active
	}

	successor := a.Tick(actor)

	finished := successor == nil || (successor != a && successor.base().parent != a)
	if finished {
		if b.parent != nil && b.parent != successor {
			setChild(b.parent, successor)
		}
		b.state = Done
		a.OnLastRun(actor)
	}
	return successor
}
