package config

import (
	"os"
	"testing"
)

var allVars = []string{
	"BUNRAKU_LOG_LEVEL",
	"BUNRAKU_LOG_FORMAT",
	"BUNRAKU_STRICT",
	"BUNRAKU_STORE",
}

// clearEnv unsets every config variable, restoring them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	want := Config{LogLevel: "info", LogFormat: "text", Strict: false, StorePath: "bunraku.db"}
	if cfg != want {
		t.Errorf("FromEnv() = %+v, want %+v", cfg, want)
	}
}

func TestFromEnv_ReadsValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("BUNRAKU_LOG_LEVEL", "debug")
	t.Setenv("BUNRAKU_LOG_FORMAT", "json")
	t.Setenv("BUNRAKU_STRICT", "true")
	t.Setenv("BUNRAKU_STORE", "/tmp/runs.db")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	want := Config{LogLevel: "debug", LogFormat: "json", Strict: true, StorePath: "/tmp/runs.db"}
	if cfg != want {
		t.Errorf("FromEnv() = %+v, want %+v", cfg, want)
	}
}

func TestFromEnv_BadBool(t *testing.T) {
	clearEnv(t)
	t.Setenv("BUNRAKU_STRICT", "maybe")
	if _, err := FromEnv(); err == nil {
		t.Fatal("FromEnv accepted a malformed bool")
	}
}
