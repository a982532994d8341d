package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the root command in-process with captured output. Logging is
// forced to error level so scheduler logs do not drown the table output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeScenario(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "dev") {
		t.Errorf("version output %q missing %q", out, "dev")
	}
}

func TestKinds_ListsRegistryAndBuiltins(t *testing.T) {
	out, err := execute(t, "kinds")
	if err != nil {
		t.Fatalf("kinds: %v", err)
	}
	for _, want := range []string{"wait", "series", "repeat", "script", "patrol", "convoy"} {
		if !strings.Contains(out, want) {
			t.Errorf("kinds output missing %q:\n%s", want, out)
		}
	}
}

func TestValidate_ReportsGoodAndBad(t *testing.T) {
	good := writeScenario(t, "good.yaml", `
scenario: smoke
actors:
  - id: porter
    activities:
      - kind: wait
        ticks: 2
`)
	bad := writeScenario(t, "bad.yaml", `
scenario: broken
actors:
  - id: porter
    activities:
      - kind: teleport
`)

	out, err := execute(t, "validate", good, bad)
	if err == nil {
		t.Fatal("expected validate to fail for the bad scenario")
	}
	if !strings.Contains(out, "OK   smoke") {
		t.Errorf("missing OK line:\n%s", out)
	}
	if !strings.Contains(out, "FAIL "+bad) {
		t.Errorf("missing FAIL line:\n%s", out)
	}
}

func TestRun_BatchRecordsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, "run", "patrol", "convoy", "--record", "--store", db)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	for _, want := range []string{"patrol", "convoy", "ok", "total"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q:\n%s", want, out)
		}
	}

	hist, err := execute(t, "history", "--store", db)
	if err != nil {
		t.Fatalf("history: %v\n%s", err, hist)
	}
	if !strings.Contains(hist, "patrol") || !strings.Contains(hist, "convoy") {
		t.Errorf("history missing recorded runs:\n%s", hist)
	}
}

func TestRun_UnknownScenarioFails(t *testing.T) {
	out, err := execute(t, "run", "ghost", "--record=false")
	if err == nil {
		t.Fatalf("expected failure, got:\n%s", out)
	}
	if !strings.Contains(out, "error") {
		t.Errorf("run output missing error status:\n%s", out)
	}
}

func TestTrace_MarksCurrentActivity(t *testing.T) {
	out, err := execute(t, "trace", "patrol", "--at", "1", "--actor=")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if !strings.Contains(out, "patrol at tick 1") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "Repeat(1/3)") || !strings.Contains(out, "<- current") {
		t.Errorf("guard tree not rendered:\n%s", out)
	}
}

func TestTrace_ActorFilter(t *testing.T) {
	out, err := execute(t, "trace", "patrol", "--at", "1", "--actor", "spotter")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if !strings.Contains(out, "spotter") {
		t.Errorf("missing spotter section:\n%s", out)
	}
	if strings.Contains(out, "guard") {
		t.Errorf("filter leaked other actors:\n%s", out)
	}

	if _, err := execute(t, "trace", "patrol", "--at", "1", "--actor", "ghost"); err == nil {
		t.Fatal("expected unknown actor to fail")
	}
}
