package activity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTree_ChildBeforeSuccessor(t *testing.T) {
	p := newFake("p", 99)
	a := newFake("a", 5)
	b := newFake("b", 5)
	n := newFake("n", 5)
	QueueChild(p, a)
	QueueChild(p, b)
	Queue(p, n)

	got := Tree(p, a)
	want := []TreeEntry{
		{Depth: 0, Label: "p", State: Queued},
		{Depth: 1, Label: "a", State: Queued, Origin: true},
		{Depth: 1, Label: "b", State: Queued},
		{Depth: 0, Label: "n", State: Queued},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree mismatch:\n%s", diff)
	}
}

func TestTree_SkipsDoneNodes(t *testing.T) {
	a := newFake("a", 99)
	b := newFake("b", 99)
	c := newFake("c", 99)
	Queue(a, b)
	Queue(a, c)
	b.state = Done

	got := Tree(a, nil)
	want := []TreeEntry{
		{Depth: 0, Label: "a", State: Queued},
		{Depth: 0, Label: "c", State: Queued},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree mismatch:\n%s", diff)
	}
}

func TestTree_DeepNesting(t *testing.T) {
	root := newFake("root", 99)
	mid := newFake("mid", 99)
	leaf := newFake("leaf", 99)
	after := newFake("after", 99)
	QueueChild(root, mid)
	QueueChild(mid, leaf)
	Queue(root, after)

	got := Tree(root, leaf)
	want := []TreeEntry{
		{Depth: 0, Label: "root", State: Queued},
		{Depth: 1, Label: "mid", State: Queued},
		{Depth: 2, Label: "leaf", State: Queued, Origin: true},
		{Depth: 0, Label: "after", State: Queued},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree mismatch:\n%s", diff)
	}
}

func TestTree_DoesNotMutate(t *testing.T) {
	p := newFake("p", 99)
	a := newFake("a", 5)
	QueueChild(p, a)
	Step(p, nil)

	Tree(Root(a), a)

	if p.State() != Active || a.State() != Queued {
		t.Errorf("states changed: p=%v a=%v", p.State(), a.State())
	}
	if p.ChildActivity() != a || a.Parent() != p {
		t.Error("links changed by a read-only traversal")
	}
}
