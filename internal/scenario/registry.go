package scenario

import (
	"errors"
	"fmt"
	"sort"

	"bunraku/internal/activity"
	"bunraku/internal/behaviors"
	"bunraku/internal/logging"
	"bunraku/internal/script"
)

// ErrUnknownKind is returned when a definition names a kind no builder
// is registered for.
var ErrUnknownKind = errors.New("scenario: unknown activity kind")

// Builder constructs one activity from its definition. Builders for
// composite kinds recurse through the registry so nested definitions
// resolve against the same kind set.
type Builder func(def ActivityDef, reg Registry) (activity.Activity, error)

// Registry maps activity kinds to builders.
type Registry map[string]Builder

// DefaultRegistry returns the built-in kind set.
func DefaultRegistry() Registry {
	return Registry{
		"wait":   buildWait,
		"log":    buildLog,
		"idle":   buildIdle,
		"series": buildSeries,
		"repeat": buildRepeat,
		"script": buildScript,
	}
}

// Build resolves the definition's kind and constructs the activity,
// then applies the knobs shared by every kind.
func (r Registry) Build(def ActivityDef) (activity.Activity, error) {
	builder, ok := r[def.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, def.Kind)
	}
	act, err := builder(def, r)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", def.Kind, err)
	}
	if def.Interruptible != nil {
		activity.SetInterruptible(act, *def.Interruptible)
	}
	return act, nil
}

// Kinds returns the registered kind names, sorted.
func (r Registry) Kinds() []string {
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func buildWait(def ActivityDef, _ Registry) (activity.Activity, error) {
	if def.Ticks < 0 {
		return nil, fmt.Errorf("wait ticks must be >= 0, got %d", def.Ticks)
	}
	return behaviors.NewWait(def.Ticks), nil
}

func buildLog(def ActivityDef, _ Registry) (activity.Activity, error) {
	name := def.Name
	if name == "" {
		name = "log"
	}
	msg := def.Message
	if msg == "" {
		msg = "mark"
	}
	log := logging.New("scenario")
	return behaviors.NewFunc(name, func(actor activity.Actor) {
		log.Info(msg, "actor", fmt.Sprint(actor))
	}), nil
}

func buildIdle(ActivityDef, Registry) (activity.Activity, error) {
	return &behaviors.Idle{}, nil
}

func buildSeries(def ActivityDef, reg Registry) (activity.Activity, error) {
	items := make([]activity.Activity, 0, len(def.Items))
	for i := range def.Items {
		item, err := reg.Build(def.Items[i])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	name := def.Name
	if name == "" {
		name = "series"
	}
	return behaviors.NewSeries(name, items...), nil
}

func buildRepeat(def ActivityDef, reg Registry) (activity.Activity, error) {
	if def.Body == nil {
		return nil, fmt.Errorf("repeat requires a body")
	}
	body := *def.Body
	// Probe once so a malformed body fails at build time, not mid-run.
	if _, err := reg.Build(body); err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	log := logging.New("scenario")
	return behaviors.NewRepeat(def.Times, func() activity.Activity {
		act, err := reg.Build(body)
		if err != nil {
			log.Warn("repeat body rebuild failed", "kind", body.Kind, "err", err)
			return nil
		}
		return act
	}), nil
}

func buildScript(def ActivityDef, _ Registry) (activity.Activity, error) {
	switch {
	case def.Source != "" && def.File != "":
		return nil, fmt.Errorf("script takes source or file, not both")
	case def.Source != "":
		name := def.Name
		if name == "" {
			name = "inline"
		}
		return script.New(name, def.Source)
	case def.File != "":
		return script.NewFromFile(def.File)
	default:
		return nil, fmt.Errorf("script requires source or file")
	}
}
