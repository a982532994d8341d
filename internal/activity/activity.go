// Package activity is the per-actor behavior scheduler: every action an
// actor performs is a node in a self-referential graph, and the driver
// advances exactly one node per simulation step. The package owns the
// node state machine, the dispatch protocol, the cancellation protocol
// and the queueing protocol; what the nodes actually do is up to the
// concrete activities that embed Base.
package activity

import "iter"

// Actor is the opaque owning-actor handle passed through to every hook.
// The scheduler never looks inside it; concrete activities may.
type Actor any

// Target is an opaque value surfaced by an activity's target query.
type Target any

// State tracks an activity through its lifecycle. It only moves forward:
// a node past Queued or Active never returns there, and Done is final.
type State int

const (
	Queued State = iota
	Active
	Canceling
	Done
)

func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Active:
		return "active"
	case Canceling:
		return "canceling"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Activity is one schedulable unit of actor behavior: a state machine
// advanced by one Tick per simulation step, linked to the work queued
// after it and the work nested under it.
//
// Concrete activities embed Base, which supplies every method except
// Tick. Tick must return the node to dispatch on the next step: the
// receiver itself to stay active, a direct child to descend into, or
// NextActivity() to signal completion and hand control onward (nil when
// nothing follows). Returning an unrelated node corrupts the graph.
type Activity interface {
	Tick(actor Actor) Activity
	OnFirstRun(actor Actor)
	OnLastRun(actor Actor)
	OnActorDispose(actor Actor)
	Targets(actor Actor) iter.Seq[Target]
	State() State

	base() *Base
}

// Base carries the scheduler state every activity shares. Embed it as
// the first field of a concrete activity; the zero value is ready to use
// (Queued, interruptible, unlinked). Activities must be pointer values:
// the scheduler relies on node identity.
type Base struct {
	state           State
	uninterruptible bool

	parent Activity // position in the graph, non-owning
	child  Activity // nested work, owning
	next   Activity // queued work at this level, owning
}

func (b *Base) base() *Base { return b }

// State returns the current lifecycle state.
func (b *Base) State() State { return b.state }

// Parent returns the node this one is nested under or queued behind,
// or nil for a root.
func (b *Base) Parent() Activity { return b.parent }

// NextInQueue returns the literal successor link: the work explicitly
// queued after this node at its own level, with no fallback to the
// parent. Use it to ask "is anything queued behind me".
func (b *Base) NextInQueue() Activity { return b.next }

// NextActivity returns where control goes once this node is finished:
// the queued successor if there is one, else the parent. Tick
// implementations return this to complete.
func (b *Base) NextActivity() Activity {
	if b.next != nil {
		return b.next
	}
	return b.parent
}

// ChildActivity returns the nested work, or nil once that work is Done.
// The owning link itself is kept; a finished child is invisible.
func (b *Base) ChildActivity() Activity {
	if b.child != nil && b.child.base().state != Done {
		return b.child
	}
	return nil
}

// IsInterruptible reports whether Cancel may act on this node.
func (b *Base) IsInterruptible() bool { return !b.uninterruptible }

// SetInterruptible marks whether Cancel may act on this node. An
// activity protects a critical section by turning this off and
// restoring it afterwards.
func (b *Base) SetInterruptible(v bool) { b.uninterruptible = !v }

// IsCanceling reports whether cancellation has been requested. A Tick
// implementation observes this, winds down, and eventually returns
// NextActivity() to complete through the normal dispatch path.
func (b *Base) IsCanceling() bool { return b.state == Canceling }

// OnFirstRun runs once, immediately before the first Tick.
func (*Base) OnFirstRun(Actor) {}

// OnLastRun runs once, immediately after the node becomes Done.
func (*Base) OnLastRun(Actor) {}

// OnActorDispose runs when the owning actor is destroyed mid-activity,
// after the same hook on any nested work.
func (*Base) OnActorDispose(Actor) {}

// Targets reports what this activity is acting on. The default is empty.
func (*Base) Targets(Actor) iter.Seq[Target] {
	return func(func(Target) bool) {}
}

// SetInterruptible flips the cancel protection on an activity held only
// through the interface.
func SetInterruptible(a Activity, v bool) {
	if a != nil {
		a.base().SetInterruptible(v)
	}
}
