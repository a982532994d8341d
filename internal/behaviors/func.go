package behaviors

import "bunraku/internal/activity"

// Func runs a function once on its first tick and completes. Use it to
// splice side effects into a queue: announcements, state flips, checks.
type Func struct {
	activity.Base
	name string
	fn   func(actor activity.Actor)
}

// NewFunc wraps fn as a single-tick activity. The name shows up in the
// diagnostic tree and logs.
func NewFunc(name string, fn func(actor activity.Actor)) *Func {
	return &Func{name: name, fn: fn}
}

func (f *Func) Tick(actor activity.Actor) activity.Activity {
	if f.fn != nil {
		f.fn(actor)
	}
	return f.NextActivity()
}

func (f *Func) String() string {
	if f.name != "" {
		return "Func(" + f.name + ")"
	}
	return "Func"
}
