package scenario

import (
	"fmt"
	"log/slog"

	"bunraku/internal/logging"
	"bunraku/internal/sim"
)

// BuildWorld assembles a runnable world from a definition: actors with
// their initial queues, plus the timed events bound as world hooks.
// Every activity, including event payloads, is built up front so a
// malformed definition fails here rather than mid-run.
func BuildWorld(def *ScenarioDef, reg Registry) (*sim.World, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	log := logging.New("scenario")
	w := sim.NewWorld()
	for _, ad := range def.Actors {
		actor, err := w.AddActor(ad.ID)
		if err != nil {
			return nil, err
		}
		for i := range ad.Activities {
			act, err := reg.Build(ad.Activities[i])
			if err != nil {
				return nil, fmt.Errorf("actor %s activity %d: %w", ad.ID, i, err)
			}
			actor.QueueActivity(act)
		}
	}
	for i, ev := range def.Events {
		if err := bindEvent(w, ev, reg, log); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	log.Debug("world built", "scenario", def.Scenario, "actors", len(def.Actors), "events", len(def.Events))
	return w, nil
}

func bindEvent(w *sim.World, ev EventDef, reg Registry, log *slog.Logger) error {
	id := ev.Actor
	switch ev.Action {
	case ActionQueue:
		act, err := reg.Build(*ev.Activity)
		if err != nil {
			return err
		}
		w.At(ev.At, func(w *sim.World) {
			if a, ok := w.Actor(id); ok {
				a.QueueActivity(act)
			} else {
				log.Debug("queue event skipped, actor gone", "actor", id, "tick", ev.At)
			}
		})
	case ActionCancel:
		keep := ev.KeepQueue
		w.At(ev.At, func(w *sim.World) {
			if a, ok := w.Actor(id); ok {
				a.CancelActivity(keep)
			} else {
				log.Debug("cancel event skipped, actor gone", "actor", id, "tick", ev.At)
			}
		})
	case ActionDispose:
		w.At(ev.At, func(w *sim.World) {
			if err := w.RemoveActor(id); err != nil {
				log.Debug("dispose event skipped", "actor", id, "tick", ev.At, "err", err)
			}
		})
	default:
		return fmt.Errorf("unknown event action %q", ev.Action)
	}
	return nil
}
