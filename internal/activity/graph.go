package activity

import (
	"sync/atomic"

	"bunraku/internal/logging"
)

// Stats counts the events the scheduler tolerates without erroring: link
// writes refused by the cycle guard, and dispatches of already-Done
// nodes outside strict mode.
type Stats struct {
	EdgesRefused uint64 `json:"edges_refused"`
	DoneTicked   uint64 `json:"done_ticked"`
}

var (
	edgesRefused atomic.Uint64
	doneTicked   atomic.Uint64
)

// ReadStats returns a snapshot of the scheduler counters.
func ReadStats() Stats {
	return Stats{
		EdgesRefused: edgesRefused.Load(),
		DoneTicked:   doneTicked.Load(),
	}
}

// ResetStats zeroes the scheduler counters.
func ResetStats() {
	edgesRefused.Store(0)
	doneTicked.Store(0)
}

// Root walks parent links from a until it finds a node with none. A node
// without a parent is its own root; the walk is bounded by nesting depth
// because parent edges cannot cycle (see the link guards below).
func Root(a Activity) Activity {
	for {
		p := a.base().parent
		if p == nil {
			return a
		}
		a = p
	}
}

// The link writers below are the only place graph edges change. A write
// that would bend the graph back on itself is refused: the slot is
// cleared (or left alone for a redundant re-write), a counter bumps, and
// a debug record names the refused edge. Callers get no error; a
// malformed queueing request simply does not take.

// setNext installs v as owner's queued successor. Refused when v is the
// owner itself, the owner's parent (following it would ascend and loop),
// or a node already nested under the owner (a child cannot also be the
// successor). Installing a real node rewrites the parent of v and of
// everything queued after v to match the owner's.
func setNext(owner, v Activity) {
	b := owner.base()
	if v == nil {
		b.next = nil
		return
	}
	if v == owner || v == b.parent || v.base().parent == owner {
		refuse("next", owner, v)
		b.next = nil
		return
	}
	if v == b.next {
		return
	}
	b.next = v
	reparent(v, b.parent)
}

// setChild installs v as owner's nested work. Refused when v is the
// owner itself or the owner's parent (either way the parent chain would
// cycle). The dispatch protocol legitimately re-points this slot at a
// node whose parent is already the owner, so that case is allowed.
func setChild(owner, v Activity) {
	b := owner.base()
	if v == nil {
		b.child = nil
		return
	}
	if v == owner || v == b.parent {
		refuse("child", owner, v)
		b.child = nil
		return
	}
	if v == b.child {
		return
	}
	b.child = v
	reparent(v, owner)
}

// reparent rewrites the parent of chain and of every node queued after
// it. Nodes at one level always share a parent. The start sentinel stops
// the walk if a malformed chain loops back on itself.
func reparent(chain, parent Activity) {
	start := chain
	for n := chain; n != nil; {
		if n == parent {
			refuse("parent", n, parent)
		} else {
			n.base().parent = parent
		}
		n = n.base().next
		if n == start {
			return
		}
	}
}

func refuse(slot string, owner, v Activity) {
	edgesRefused.Add(1)
	logging.New("activity").Debug("refused malformed link",
		"slot", slot, "owner", Label(owner), "value", Label(v))
}
