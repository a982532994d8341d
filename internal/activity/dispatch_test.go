package activity

import (
	"strings"
	"testing"
)

func TestStep_ThreeCallLifecycle(t *testing.T) {
	a := newFake("a", 2)

	got := Step(a, nil)
	if got != a {
		t.Fatalf("call 1 returned %v, want a", Label(got))
	}
	if a.State() != Active {
		t.Errorf("call 1: state = %v, want active", a.State())
	}
	if a.firstRuns != 1 {
		t.Errorf("call 1: OnFirstRun ran %d times, want 1", a.firstRuns)
	}

	got = Step(a, nil)
	if got != a || a.State() != Active {
		t.Fatalf("call 2: got %v state %v, want a/active", Label(got), a.State())
	}

	got = Step(a, nil)
	if got != nil {
		t.Fatalf("call 3 returned %v, want nil for a bare root", Label(got))
	}
	if a.State() != Done {
		t.Errorf("call 3: state = %v, want done", a.State())
	}
	if a.firstRuns != 1 || a.lastRuns != 1 {
		t.Errorf("hooks: firstRuns=%d lastRuns=%d, want 1/1", a.firstRuns, a.lastRuns)
	}
}

func TestStep_FinishHandsControlToQueuedSuccessor(t *testing.T) {
	a := newFake("a", 0)
	b := newFake("b", 0)
	Queue(a, b)

	got := Step(a, nil)
	if got != b {
		t.Fatalf("Step returned %v, want b", Label(got))
	}
	if a.State() != Done {
		t.Errorf("a.State = %v, want done", a.State())
	}
	if b.State() != Queued {
		t.Errorf("b.State = %v, want queued (not yet dispatched)", b.State())
	}
}

func TestStep_AdvancesParentChildSlot(t *testing.T) {
	p := newFake("p", 99)
	a := newFake("a", 0)
	b := newFake("b", 0)
	QueueChild(p, a)
	QueueChild(p, b) // appends b after a at the child level

	got := Step(a, nil)
	if got != b {
		t.Fatalf("Step returned %v, want b", Label(got))
	}
	if p.ChildActivity() != b {
		t.Errorf("parent child slot = %v, want advanced to b", Label(p.ChildActivity()))
	}
	if b.Parent() != p {
		t.Errorf("b.Parent = %v, want p", Label(b.Parent()))
	}
}

func TestStep_FinishToParentSkipsAdvance(t *testing.T) {
	p := newFake("p", 99)
	a := newFake("a", 0)
	QueueChild(p, a)

	got := Step(a, nil)
	if got != p {
		t.Fatalf("Step returned %v, want parent p", Label(got))
	}
	if a.State() != Done {
		t.Errorf("a.State = %v, want done", a.State())
	}
	// The owning edge is untouched; navigation just stops seeing it.
	if p.child != a {
		t.Errorf("raw child link = %v, want still a", Label(p.child))
	}
	if p.ChildActivity() != nil {
		t.Errorf("ChildActivity = %v, want nil once the child is done", Label(p.ChildActivity()))
	}
}

func TestStep_DescendIntoChildIsNotCompletion(t *testing.T) {
	inner := newFake("inner", 1)
	n := &nester{name: "outer", inner: inner}

	got := Step(n, nil)
	if got != inner {
		t.Fatalf("Step returned %v, want the queued child", Label(got))
	}
	if n.State() != Active {
		t.Errorf("outer state = %v, want active while descended", n.State())
	}
	if inner.Parent() != n {
		t.Errorf("inner.Parent = %v, want outer", Label(inner.Parent()))
	}
}

func TestStep_NestedCompletionDrainsUpward(t *testing.T) {
	inner := newFake("inner", 1)
	n := &nester{name: "outer", inner: inner}

	cur := Activity(n)
	var steps int
	for cur != nil {
		cur = Step(cur, nil)
		if steps++; steps > 10 {
			t.Fatal("graph did not drain")
		}
	}
	if inner.State() != Done || n.State() != Done {
		t.Errorf("states inner=%v outer=%v, want done/done", inner.State(), n.State())
	}
	if inner.lastRuns != 1 || n.lastRuns != 1 {
		t.Errorf("OnLastRun inner=%d outer=%d, want 1/1", inner.lastRuns, n.lastRuns)
	}
}

func TestStep_StrictCheckingPanicsOnDoneDispatch(t *testing.T) {
	SetStrictChecking(true)
	defer SetStrictChecking(false)

	a := newFake("a", 0)
	if got := Step(a, nil); got != nil {
		t.Fatalf("setup step returned %v, want nil", Label(got))
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic dispatching a done activity under strict checking")
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, "ticked after completion") {
			t.Errorf("panic = %v, want a ticked-after-completion message", r)
		}
	}()
	Step(a, nil)
}

func TestStep_DoneDispatchWithoutStrictChecking(t *testing.T) {
	a := newFake("a", 0)
	b := newFake("b", 0)
	Queue(a, b)
	Step(a, nil) // a completes, b still queued behind it

	before := ReadStats().DoneTicked
	got := Step(a, nil)
	if got != b {
		t.Fatalf("done dispatch returned %v, want the queued successor", Label(got))
	}
	if a.ticks != 1 {
		t.Errorf("Tick ran %d times, want 1 (done node must not re-tick)", a.ticks)
	}
	if delta := ReadStats().DoneTicked - before; delta != 1 {
		t.Errorf("DoneTicked delta = %d, want 1", delta)
	}
}
