package behaviors

import (
	"iter"

	"bunraku/internal/activity"
)

// Series nests a fixed list of activities under itself and completes
// once the whole chain has drained. Cancellation cascades into whichever
// item is running; the rest of the chain is dropped with it.
type Series struct {
	activity.Base
	name  string
	items []activity.Activity
}

// NewSeries composes items into one activity that runs them in order.
func NewSeries(name string, items ...activity.Activity) *Series {
	return &Series{name: name, items: items}
}

func (s *Series) OnFirstRun(activity.Actor) {
	for _, item := range s.items {
		activity.QueueChild(s, item)
	}
	s.items = nil
}

func (s *Series) Tick(activity.Actor) activity.Activity {
	if c := s.ChildActivity(); c != nil {
		return c
	}
	return s.NextActivity()
}

// Targets surfaces whatever the running item is acting on.
func (s *Series) Targets(actor activity.Actor) iter.Seq[activity.Target] {
	return func(yield func(activity.Target) bool) {
		c := s.ChildActivity()
		if c == nil {
			return
		}
		for t := range c.Targets(actor) {
			if !yield(t) {
				return
			}
		}
	}
}

func (s *Series) String() string {
	if s.name != "" {
		return "Series(" + s.name + ")"
	}
	return "Series"
}
