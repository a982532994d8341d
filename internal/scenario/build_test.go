package scenario_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bunraku/internal/logging"
	"bunraku/internal/scenario"
	"bunraku/internal/sim"
)

func TestRegistry_Kinds(t *testing.T) {
	want := []string{"idle", "log", "repeat", "script", "series", "wait"}
	if diff := cmp.Diff(want, scenario.DefaultRegistry().Kinds()); diff != "" {
		t.Errorf("Kinds mismatch:\n%s", diff)
	}
}

func TestRegistry_UnknownKind(t *testing.T) {
	_, err := scenario.DefaultRegistry().Build(scenario.ActivityDef{Kind: "teleport"})
	if !errors.Is(err, scenario.ErrUnknownKind) {
		t.Fatalf("Build error = %v, want ErrUnknownKind", err)
	}
}

func TestRegistry_RepeatBodyProbedAtBuildTime(t *testing.T) {
	_, err := scenario.DefaultRegistry().Build(scenario.ActivityDef{
		Kind: "repeat",
		Body: &scenario.ActivityDef{Kind: "teleport"},
	})
	if !errors.Is(err, scenario.ErrUnknownKind) {
		t.Fatalf("Build error = %v, want ErrUnknownKind from the body probe", err)
	}
}

func TestRegistry_ScriptRequiresSourceOrFile(t *testing.T) {
	_, err := scenario.DefaultRegistry().Build(scenario.ActivityDef{Kind: "script"})
	if err == nil || !strings.Contains(err.Error(), "source or file") {
		t.Fatalf("Build error = %v, want source-or-file requirement", err)
	}
}

func TestBuildWorld_Patrol(t *testing.T) {
	def, err := scenario.LoadBuiltin("patrol")
	if err != nil {
		t.Fatalf("LoadBuiltin: %v", err)
	}
	w, err := scenario.BuildWorld(def, scenario.DefaultRegistry())
	if err != nil {
		t.Fatalf("BuildWorld: %v", err)
	}
	rep, err := w.Run(context.Background(), def.Ticks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Three 7-step laps plus the repeat's own wind-down, spotter
	// released by the tick-20 cancel.
	want := sim.Report{Ticks: 22, Actors: 2, Idle: 2, Completed: 11}
	if diff := cmp.Diff(want, rep); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWorld_ConvoyCancelSemantics(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(slog.LevelInfo, "text", &buf)
	defer logging.Init(slog.LevelInfo, "text")

	def, err := scenario.LoadBuiltin("convoy")
	if err != nil {
		t.Fatalf("LoadBuiltin: %v", err)
	}
	w, err := scenario.BuildWorld(def, scenario.DefaultRegistry())
	if err != nil {
		t.Fatalf("BuildWorld: %v", err)
	}
	rep, err := w.Run(context.Background(), def.Ticks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(buf.String(), "cargo delivered") {
		t.Error("uninterruptible unload was cut short: delivery report missing")
	}
	if strings.Contains(buf.String(), "escort reassigned") {
		t.Error("plain cancel kept the escort's queued work alive")
	}
	if _, ok := w.Actor("escort"); ok {
		t.Error("escort survived its dispose event")
	}
	if _, ok := w.Actor("truck"); !ok {
		t.Error("truck went missing")
	}
	want := sim.Report{Ticks: 16, Actors: 1, Idle: 1, Completed: 3}
	if diff := cmp.Diff(want, rep); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWorld_ScriptedScenario(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(slog.LevelInfo, "text", &buf)
	defer logging.Init(slog.LevelInfo, "text")

	def, err := scenario.LoadBuiltin("scripted")
	if err != nil {
		t.Fatalf("LoadBuiltin: %v", err)
	}
	w, err := scenario.BuildWorld(def, scenario.DefaultRegistry())
	if err != nil {
		t.Fatalf("BuildWorld: %v", err)
	}
	if _, err := w.Run(context.Background(), def.Ticks); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"sweep started by drone",
		"sweep complete",
		"returning to base",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestBuildWorld_InvalidDefinition(t *testing.T) {
	def := &scenario.ScenarioDef{Scenario: "broken"}
	_, err := scenario.BuildWorld(def, scenario.DefaultRegistry())
	if err == nil || !strings.Contains(err.Error(), "at least one actor") {
		t.Fatalf("BuildWorld error = %v, want validation failure", err)
	}
}

func TestBuildWorld_UnknownKindSurfaces(t *testing.T) {
	def := &scenario.ScenarioDef{
		Scenario: "broken",
		Actors: []scenario.ActorDef{
			{ID: "a", Activities: []scenario.ActivityDef{{Kind: "teleport"}}},
		},
	}
	_, err := scenario.BuildWorld(def, scenario.DefaultRegistry())
	if !errors.Is(err, scenario.ErrUnknownKind) {
		t.Fatalf("BuildWorld error = %v, want ErrUnknownKind", err)
	}
}

func TestBuildWorld_EventPayloadBuiltUpFront(t *testing.T) {
	def := &scenario.ScenarioDef{
		Scenario: "broken",
		Actors:   []scenario.ActorDef{{ID: "a"}},
		Events: []scenario.EventDef{{
			At: 3, Action: scenario.ActionQueue, Actor: "a",
			Activity: &scenario.ActivityDef{Kind: "script", Source: "function tick("},
		}},
	}
	_, err := scenario.BuildWorld(def, scenario.DefaultRegistry())
	if err == nil {
		t.Fatal("BuildWorld accepted an event with a broken script payload")
	}
}
