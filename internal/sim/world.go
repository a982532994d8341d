package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"bunraku/internal/activity"
	"bunraku/internal/logging"
)

var (
	// ErrActorExists is returned when adding an actor under an ID that
	// is already taken.
	ErrActorExists = errors.New("sim: actor already exists")

	// ErrActorNotFound is returned when removing an actor the world
	// does not hold.
	ErrActorNotFound = errors.New("sim: actor not found")
)

// Report summarizes a run of the world.
type Report struct {
	Ticks     int `json:"ticks"`
	Actors    int `json:"actors"`
	Idle      int `json:"idle"`
	Completed int `json:"completed"`
}

// World owns an ordered set of actors and advances them in lockstep.
// It is single-threaded: all mutation happens between steps or inside
// scheduled hooks, never concurrently with one.
type World struct {
	actors    []*Actor
	byID      map[string]*Actor
	tick      int
	completed int
	hooks     map[int][]func(*World)
	log       *slog.Logger
}

// NewWorld returns an empty world at tick zero.
func NewWorld() *World {
	return &World{
		byID:  make(map[string]*Actor),
		hooks: make(map[int][]func(*World)),
		log:   logging.New("sim"),
	}
}

// Tick returns the number of steps executed so far.
func (w *World) Tick() int { return w.tick }

// AddActor creates an idle actor under the given ID.
func (w *World) AddActor(id string) (*Actor, error) {
	if _, ok := w.byID[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrActorExists, id)
	}
	a := &Actor{id: id}
	w.actors = append(w.actors, a)
	w.byID[id] = a
	return a, nil
}

// Actor looks up an actor by ID.
func (w *World) Actor(id string) (*Actor, bool) {
	a, ok := w.byID[id]
	return a, ok
}

// Actors returns the actors in insertion order. The slice is shared;
// callers must not mutate it.
func (w *World) Actors() []*Actor { return w.actors }

// RemoveActor runs the disposal cascade over the actor's remaining
// work and drops the actor from the world.
func (w *World) RemoveActor(id string) error {
	a, ok := w.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrActorNotFound, id)
	}
	if a.current != nil {
		activity.Dispose(a.current, a)
		a.current = nil
	}
	delete(w.byID, id)
	for i, other := range w.actors {
		if other == a {
			w.actors = append(w.actors[:i], w.actors[i+1:]...)
			break
		}
	}
	w.log.Debug("actor removed", "actor", id)
	return nil
}

// At schedules fn to run just before the step that begins at the given
// tick. Hooks on the same tick run in registration order. Ticks that
// already passed are dropped.
func (w *World) At(tick int, fn func(*World)) {
	if tick < w.tick {
		w.log.Debug("hook scheduled in the past, dropped", "tick", tick, "now", w.tick)
		return
	}
	w.hooks[tick] = append(w.hooks[tick], fn)
}

// Idle reports whether every actor is out of work.
func (w *World) Idle() bool {
	for _, a := range w.actors {
		if a.current != nil {
			return false
		}
	}
	return true
}

// Step advances the world by one tick: scheduled hooks fire first, then
// every non-idle actor gets exactly one dispatch.
func (w *World) Step() {
	if fns := w.hooks[w.tick]; len(fns) > 0 {
		delete(w.hooks, w.tick)
		for _, fn := range fns {
			fn(w)
		}
	}
	for _, a := range w.actors {
		if a.current == nil {
			continue
		}
		prev := a.current
		a.current = activity.Step(prev, a)
		if prev.State() == activity.Done {
			w.completed++
		}
	}
	w.tick++
}

// Run executes up to the given number of steps, stopping early when the
// world goes idle or the context is canceled. A negative count means
// run until idle.
func (w *World) Run(ctx context.Context, ticks int) (Report, error) {
	w.log.Info("run started", "actors", len(w.actors), "ticks", ticks)
	for i := 0; ticks < 0 || i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return w.Report(), fmt.Errorf("run aborted at tick %d: %w", w.tick, err)
		}
		w.Step()
		if w.Idle() && len(w.hooks) == 0 {
			break
		}
	}
	rep := w.Report()
	w.log.Info("run finished", "ticks", rep.Ticks, "completed", rep.Completed, "idle", rep.Idle)
	return rep, nil
}

// Report summarizes the world as it stands.
func (w *World) Report() Report {
	idle := 0
	for _, a := range w.actors {
		if a.current == nil {
			idle++
		}
	}
	return Report{
		Ticks:     w.tick,
		Actors:    len(w.actors),
		Idle:      idle,
		Completed: w.completed,
	}
}

// PendingHooks returns the ticks that still have scheduled hooks, in
// ascending order.
func (w *World) PendingHooks() []int {
	out := make([]int, 0, len(w.hooks))
	for t := range w.hooks {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}
