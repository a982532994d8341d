package mcp

import (
	"fmt"
	"sync"
	"time"

	"bunraku/internal/activity"
	"bunraku/internal/format"
	"bunraku/internal/scenario"
	"bunraku/internal/sim"
)

// Session holds one loaded world driven by MCP tool calls. The world is
// single-threaded; the session lock serializes the tools so only one
// goroutine is ever inside it.
type Session struct {
	ID       string
	Scenario string

	mu       sync.Mutex
	world    *sim.World
	def      *scenario.ScenarioDef
	reg      scenario.Registry
	baseline activity.Stats
}

// NewSession builds the scenario's world and wraps it for tool access.
func NewSession(def *scenario.ScenarioDef) (*Session, error) {
	reg := scenario.DefaultRegistry()
	world, err := scenario.BuildWorld(def, reg)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:       fmt.Sprintf("s-%d", time.Now().UnixMilli()),
		Scenario: def.Scenario,
		world:    world,
		def:      def,
		reg:      reg,
		baseline: activity.ReadStats(),
	}, nil
}

// Step advances the world up to n ticks, stopping early once every
// actor is idle and no events remain. Returns the report and whether
// the world is idle.
func (s *Session) Step(n int) (sim.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.world.Step()
		if s.world.Idle() && len(s.world.PendingHooks()) == 0 {
			break
		}
	}
	return s.world.Report(), s.world.Idle()
}

// Tree flattens the activity graph an actor is working through, from
// the root down, and renders it. An idle actor yields a nil slice.
func (s *Session) Tree(actorID string) ([]activity.TreeEntry, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.world.Actor(actorID)
	if !ok {
		return nil, "", fmt.Errorf("actor %q not found", actorID)
	}
	cur := a.CurrentActivity()
	if cur == nil {
		return nil, "", nil
	}
	entries := activity.Tree(activity.Root(cur), cur)
	return entries, format.RenderTree(entries, format.ASCII), nil
}

// Queue builds the definition and attaches it to the actor: appended to
// the queue, or with child set, nested under the currently dispatched
// node (preTick drives it one step during installation). A nested child
// only runs when its parent's own Tick yields to children. Returns the
// built activity's label and whether the actor was idle, in which case
// a queued activity became current immediately.
func (s *Session) Queue(actorID string, def scenario.ActivityDef, child, preTick bool) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.world.Actor(actorID)
	if !ok {
		return "", false, fmt.Errorf("actor %q not found", actorID)
	}
	act, err := s.reg.Build(def)
	if err != nil {
		return "", false, err
	}
	wasIdle := a.IsIdle()
	if child {
		if wasIdle {
			return "", false, fmt.Errorf("actor %q is idle; a child needs a running activity", actorID)
		}
		cur := a.CurrentActivity()
		if preTick {
			activity.QueueChildPreTick(cur, act, a)
		} else {
			activity.QueueChild(cur, act)
		}
	} else {
		a.QueueActivity(act)
	}
	return activity.Label(act), wasIdle, nil
}

// Cancel asks the actor's current activity to stop and reports the
// state it was left in. An uninterruptible node stays active; an idle
// actor reports "idle".
func (s *Session) Cancel(actorID string, keepQueue bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.world.Actor(actorID)
	if !ok {
		return "", fmt.Errorf("actor %q not found", actorID)
	}
	if a.IsIdle() {
		return "idle", nil
	}
	a.CancelActivity(keepQueue)
	return a.CurrentActivity().State().String(), nil
}

// Dispose runs the disposal cascade over the actor's remaining work and
// removes it from the world. Returns the number of actors left.
func (s *Session) Dispose(actorID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.world.RemoveActor(actorID); err != nil {
		return 0, err
	}
	return len(s.world.Actors()), nil
}

// Report summarizes the world as it stands.
func (s *Session) Report() sim.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Report()
}

// Stats returns the scheduler counters accumulated since this session
// was created. The counters themselves are process-wide; the snapshot
// taken at creation scopes the numbers to the session's lifetime.
func (s *Session) Stats() activity.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := activity.ReadStats()
	return activity.Stats{
		EdgesRefused: now.EdgesRefused - s.baseline.EdgesRefused,
		DoneTicked:   now.DoneTicked - s.baseline.DoneTicked,
	}
}

// ActorIDs returns the surviving actors in insertion order.
func (s *Session) ActorIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actors := s.world.Actors()
	ids := make([]string, len(actors))
	for i, a := range actors {
		ids[i] = a.ID()
	}
	return ids
}

// ActorStatus describes one actor's current activity at a glance.
type ActorStatus struct {
	ID      string `json:"id"`
	Idle    bool   `json:"idle"`
	Current string `json:"current,omitempty"`
	State   string `json:"state,omitempty"`
}

// ActorStatuses snapshots every surviving actor in insertion order.
func (s *Session) ActorStatuses() []ActorStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	actors := s.world.Actors()
	out := make([]ActorStatus, len(actors))
	for i, a := range actors {
		st := ActorStatus{ID: a.ID(), Idle: a.IsIdle()}
		if cur := a.CurrentActivity(); cur != nil {
			st.Current = activity.Label(cur)
			st.State = cur.State().String()
		}
		out[i] = st
	}
	return out
}

// PendingEvents returns the ticks that still have scheduled events.
func (s *Session) PendingEvents() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.PendingHooks()
}

// Reset rebuilds the world from the scenario definition, back at tick
// zero with the initial actors and events.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	world, err := scenario.BuildWorld(s.def, s.reg)
	if err != nil {
		return fmt.Errorf("rebuild world: %w", err)
	}
	s.world = world
	s.baseline = activity.ReadStats()
	return nil
}
