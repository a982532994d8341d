package activity

import "testing"

func TestQueue_TailAppend(t *testing.T) {
	a := newFake("a", 0)
	b := newFake("b", 0)
	c := newFake("c", 0)

	Queue(a, b)
	Queue(a, c)

	if a.NextInQueue() != b {
		t.Fatalf("a.next = %v, want b", Label(a.NextInQueue()))
	}
	if b.NextInQueue() != c {
		t.Fatalf("b.next = %v, want c (tail append, not head insert)", Label(b.NextInQueue()))
	}
	if c.NextInQueue() != nil {
		t.Fatalf("c.next = %v, want nil", Label(c.NextInQueue()))
	}
}

func TestQueue_ParentPropagation(t *testing.T) {
	p := newFake("p", 99)
	a := newFake("a", 5)
	QueueChild(p, a)

	b := newFake("b", 0)
	c := newFake("c", 0)
	Queue(b, c) // pre-linked chain with no parent yet

	Queue(a, b)

	if b.Parent() != p {
		t.Errorf("b.Parent = %v, want a's parent p", Label(b.Parent()))
	}
	if c.Parent() != p {
		t.Errorf("c.Parent = %v, want p (propagates through b's own chain)", Label(c.Parent()))
	}
}

func TestQueue_SelfLoopRefused(t *testing.T) {
	a := newFake("a", 0)

	before := ReadStats().EdgesRefused
	Queue(a, a)

	if a.NextInQueue() != nil {
		t.Fatalf("a.next = %v, want nil after refused self-loop", Label(a.NextInQueue()))
	}
	if delta := ReadStats().EdgesRefused - before; delta != 1 {
		t.Errorf("EdgesRefused delta = %d, want 1", delta)
	}
}

func TestQueue_NodeAlreadyInChainRefused(t *testing.T) {
	a := newFake("a", 0)
	b := newFake("b", 0)
	Queue(a, b)

	before := ReadStats().EdgesRefused
	Queue(a, b)

	if a.NextInQueue() != b || b.NextInQueue() != nil {
		t.Error("chain changed by duplicate append")
	}
	if delta := ReadStats().EdgesRefused - before; delta != 1 {
		t.Errorf("EdgesRefused delta = %d, want 1", delta)
	}
}

func TestQueue_OwnChildAsSuccessorRefused(t *testing.T) {
	p := newFake("p", 99)
	c := newFake("c", 5)
	QueueChild(p, c)

	Queue(p, c)

	if p.NextInQueue() != nil {
		t.Errorf("p.next = %v, want nil (a child cannot double as successor)", Label(p.NextInQueue()))
	}
	if p.ChildActivity() != c {
		t.Errorf("child slot = %v, want untouched c", Label(p.ChildActivity()))
	}
}

func TestQueueChild_InstallsThenAppends(t *testing.T) {
	p := newFake("p", 99)
	a := newFake("a", 5)
	b := newFake("b", 5)

	QueueChild(p, a)
	if p.ChildActivity() != a || a.Parent() != p {
		t.Fatal("first QueueChild should install into the child slot")
	}

	QueueChild(p, b)
	if p.ChildActivity() != a {
		t.Errorf("child slot = %v, want still a", Label(p.ChildActivity()))
	}
	if a.NextInQueue() != b {
		t.Errorf("a.next = %v, want b (append at the child level)", Label(a.NextInQueue()))
	}
	if b.Parent() != p {
		t.Errorf("b.Parent = %v, want p", Label(b.Parent()))
	}
}

func TestQueueChild_ReusesSlotAfterChildIsDone(t *testing.T) {
	p := newFake("p", 99)
	a := newFake("a", 0)
	QueueChild(p, a)
	Step(a, nil) // a is done; the slot reads as empty

	b := newFake("b", 5)
	QueueChild(p, b)

	if p.ChildActivity() != b {
		t.Errorf("child slot = %v, want b installed over the done child", Label(p.ChildActivity()))
	}
}

func TestQueueChildPreTick_SuspendedChildStays(t *testing.T) {
	p := newFake("p", 99)
	a := newFake("a", 5)

	QueueChildPreTick(p, a, nil)

	if p.ChildActivity() != a {
		t.Fatalf("child slot = %v, want a", Label(p.ChildActivity()))
	}
	if a.State() != Active || a.ticks != 1 {
		t.Errorf("child state=%v ticks=%d, want active after one pre-dispatch", a.State(), a.ticks)
	}
}

func TestQueueChildPreTick_InstantCompletionLeavesSlotEmpty(t *testing.T) {
	p := newFake("p", 99)
	a := newFake("a", 0)

	QueueChildPreTick(p, a, nil)

	if p.ChildActivity() != nil {
		t.Fatalf("child slot = %v, want empty after instant completion", Label(p.ChildActivity()))
	}
	if a.State() != Done || a.firstRuns != 1 || a.lastRuns != 1 {
		t.Errorf("child state=%v firstRuns=%d lastRuns=%d, want done/1/1",
			a.State(), a.firstRuns, a.lastRuns)
	}
}

func TestRoot_AscendsToUnparentedNode(t *testing.T) {
	g := newFake("g", 99)
	p := newFake("p", 99)
	a := newFake("a", 99)
	QueueChild(g, p)
	QueueChild(p, a)

	if got := Root(a); got != g {
		t.Errorf("Root(a) = %v, want g", Label(got))
	}
	if got := Root(g); got != g {
		t.Errorf("Root(g) = %v, want g itself", Label(got))
	}

	// Queued successors share the parent, so they share the root.
	b := newFake("b", 0)
	Queue(a, b)
	if got := Root(b); got != g {
		t.Errorf("Root(b) = %v, want g", Label(got))
	}
}
