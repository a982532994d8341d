// Package scenario is the YAML front end for the scheduler: a scenario
// declares actors, the activity graphs queued onto them, and the timed
// events fired into the world while it runs.
package scenario

import "fmt"

// Event actions.
const (
	ActionQueue   = "queue"
	ActionCancel  = "cancel"
	ActionDispose = "dispose"
)

// ScenarioDef is the top-level DSL structure for declaring a world.
type ScenarioDef struct {
	Scenario    string     `json:"scenario" yaml:"scenario"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Ticks       int        `json:"ticks,omitempty" yaml:"ticks,omitempty"` // run length; 0 means run until idle
	Actors      []ActorDef `json:"actors" yaml:"actors"`
	Events      []EventDef `json:"events,omitempty" yaml:"events,omitempty"`
}

// ActorDef declares one actor and its initial work, queued in order.
type ActorDef struct {
	ID         string        `json:"id" yaml:"id"`
	Activities []ActivityDef `json:"activities,omitempty" yaml:"activities,omitempty"`
}

// ActivityDef declares one node of an activity graph. Kind selects the
// builder; the remaining fields are per-kind knobs and are checked by
// the builder, not the parser.
type ActivityDef struct {
	Kind          string        `json:"kind" yaml:"kind"`
	Name          string        `json:"name,omitempty" yaml:"name,omitempty"`
	Ticks         int           `json:"ticks,omitempty" yaml:"ticks,omitempty"`     // wait
	Message       string        `json:"message,omitempty" yaml:"message,omitempty"` // log
	Times         int           `json:"times,omitempty" yaml:"times,omitempty"`     // repeat; 0 repeats until canceled
	Interruptible *bool         `json:"interruptible,omitempty" yaml:"interruptible,omitempty"`
	Items         []ActivityDef `json:"items,omitempty" yaml:"items,omitempty"`   // series
	Body          *ActivityDef  `json:"body,omitempty" yaml:"body,omitempty"`     // repeat
	Source        string        `json:"source,omitempty" yaml:"source,omitempty"` // script: inline Lua
	File          string        `json:"file,omitempty" yaml:"file,omitempty"`     // script: Lua file path
}

// EventDef declares a timed intervention fired just before the step at
// the given tick.
type EventDef struct {
	At        int          `json:"at" yaml:"at"`
	Action    string       `json:"action" yaml:"action"`
	Actor     string       `json:"actor" yaml:"actor"`
	KeepQueue bool         `json:"keep_queue,omitempty" yaml:"keep_queue,omitempty"` // cancel: leave queued successors in place
	Activity  *ActivityDef `json:"activity,omitempty" yaml:"activity,omitempty"`    // queue: what to add
}

// Validate checks structural integrity of the definition:
//   - scenario name is non-empty
//   - at least one actor exists and actor IDs are unique
//   - every activity names a kind, recursively
//   - every event names a known actor, a known action and a
//     non-negative tick, and carries an activity exactly when queueing
func (def *ScenarioDef) Validate() error {
	if def.Scenario == "" {
		return fmt.Errorf("scenario name is required")
	}
	if def.Ticks < 0 {
		return fmt.Errorf("ticks must be >= 0, got %d", def.Ticks)
	}
	if len(def.Actors) == 0 {
		return fmt.Errorf("at least one actor is required")
	}

	actorSet := make(map[string]bool, len(def.Actors))
	for _, a := range def.Actors {
		if a.ID == "" {
			return fmt.Errorf("actor id is required")
		}
		if actorSet[a.ID] {
			return fmt.Errorf("duplicate actor id %q", a.ID)
		}
		actorSet[a.ID] = true
		for i := range a.Activities {
			if err := a.Activities[i].validate(); err != nil {
				return fmt.Errorf("actor %s activity %d: %w", a.ID, i, err)
			}
		}
	}

	for i, e := range def.Events {
		if e.At < 0 {
			return fmt.Errorf("event %d: negative tick %d", i, e.At)
		}
		if !actorSet[e.Actor] {
			return fmt.Errorf("event %d references unknown actor %q", i, e.Actor)
		}
		switch e.Action {
		case ActionQueue:
			if e.Activity == nil {
				return fmt.Errorf("event %d: queue requires an activity", i)
			}
			if err := e.Activity.validate(); err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
		case ActionCancel, ActionDispose:
			if e.Activity != nil {
				return fmt.Errorf("event %d: %s does not take an activity", i, e.Action)
			}
		default:
			return fmt.Errorf("event %d: unknown action %q", i, e.Action)
		}
	}
	return nil
}

func (def *ActivityDef) validate() error {
	if def.Kind == "" {
		return fmt.Errorf("activity kind is required")
	}
	for i := range def.Items {
		if err := def.Items[i].validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	if def.Body != nil {
		if err := def.Body.validate(); err != nil {
			return fmt.Errorf("body: %w", err)
		}
	}
	return nil
}
