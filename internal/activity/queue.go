package activity

// Queue appends b at the tail of a's successor chain: b runs after a and
// after everything already queued behind a, at the same nesting level.
// Appending rewrites the parent of b, and of b's own successors, to
// match a's. Appending a node already in the chain is refused.
func Queue(a, b Activity) {
	tail := a
	for {
		if tail == b {
			refuse("next", tail, b)
			return
		}
		nx := tail.base().next
		if nx == nil {
			break
		}
		tail = nx
	}
	setNext(tail, b)
}

// QueueChild nests b under a: appended to the existing nested work's
// successor chain when there is any, else installed as the child.
func QueueChild(a, b Activity) {
	if c := a.base().ChildActivity(); c != nil {
		Queue(c, b)
		return
	}
	setChild(a, b)
}

// QueueChildPreTick is QueueChild for callers that want b advanced
// immediately instead of on the next pass: when b lands in an empty
// child slot it is first driven one Step and the slot receives whatever
// that returns, so work that completes instantly never occupies the
// slot at all.
func QueueChildPreTick(a, b Activity, actor Actor) {
	if c := a.base().ChildActivity(); c != nil {
		Queue(c, b)
		return
	}
	setChild(a, Step(b, actor))
}
