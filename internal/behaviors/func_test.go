package behaviors

import (
	"testing"

	"bunraku/internal/activity"

	"github.com/google/go-cmp/cmp"
)

func TestFunc_RunsOnceInQueueOrder(t *testing.T) {
	var calls []string
	a := NewFunc("first", func(activity.Actor) { calls = append(calls, "first") })
	b := NewFunc("second", func(activity.Actor) { calls = append(calls, "second") })
	activity.Queue(a, b)

	drive(t, a, 10)

	want := []string{"first", "second"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("call order mismatch:\n%s", diff)
	}
}

func TestFunc_NilFunctionStillCompletes(t *testing.T) {
	f := NewFunc("noop", nil)
	if got := activity.Step(f, nil); got != nil {
		t.Errorf("Step returned %v, want nil", activity.Label(got))
	}
	if f.State() != activity.Done {
		t.Errorf("state = %v, want done", f.State())
	}
}

func TestIdle_TicksUntilCanceled(t *testing.T) {
	i := NewIdle()
	cur := activity.Activity(i)
	for range 50 {
		cur = activity.Step(cur, nil)
		if cur != i {
			t.Fatalf("idle handed off to %v", activity.Label(cur))
		}
	}
	if i.State() != activity.Active {
		t.Fatalf("state = %v, want active", i.State())
	}

	activity.Cancel(i, nil, false)
	if got := activity.Step(i, nil); got != nil {
		t.Errorf("Step returned %v, want nil after cancel", activity.Label(got))
	}
	if i.State() != activity.Done {
		t.Errorf("state = %v, want done", i.State())
	}
}
