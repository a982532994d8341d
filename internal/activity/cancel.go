package activity

import (
	"fmt"

	"bunraku/internal/logging"
)

// Cancel asks a to stop. Unless keepQueue is set, everything queued
// after a at its own level is dropped first. An uninterruptible node
// then stops the request cold: no state change, and nothing nested
// below it is touched. Otherwise the request walks down through the
// nested work, dropping each level's queue and marking each level
// Canceling.
//
// Canceling is a request, not an abort. The node keeps getting ticked
// and is expected to observe IsCanceling, wind down, and complete
// through the normal dispatch path; every state transition stays
// funneled through Step.
func Cancel(a Activity, actor Actor, keepQueue bool) {
	logging.New("activity").Debug("cancel requested",
		"activity", Label(a), "actor", fmt.Sprint(actor), "keep_queue", keepQueue)

	keep := keepQueue
	for n := a; n != nil; {
		b := n.base()
		if !keep {
			setNext(n, nil)
		}
		keep = false
		if b.uninterruptible {
			return
		}
		child := b.ChildActivity()
		if b.state != Done {
			b.state = Canceling
		}
		n = child
	}
}

// Dispose runs the teardown cascade for an actor destroyed mid-activity:
// OnActorDispose fires on the nested work first, deepest level first,
// then on a itself. Normal completion never happens for these nodes, so
// this hook is where they release what they hold.
func Dispose(a Activity, actor Actor) {
	var chain []Activity
	for n := a; n != nil; n = n.base().ChildActivity() {
		chain = append(chain, n)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].OnActorDispose(actor)
	}
}
