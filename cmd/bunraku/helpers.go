package main

import (
	"os"
	"strings"

	"bunraku/internal/scenario"
)

// loadScenarioArg resolves a scenario argument as a YAML file when it looks
// like a path, and as a builtin scenario name otherwise.
func loadScenarioArg(arg string) (*scenario.ScenarioDef, error) {
	if strings.ContainsRune(arg, os.PathSeparator) ||
		strings.HasSuffix(arg, ".yaml") || strings.HasSuffix(arg, ".yml") {
		return scenario.Load(arg)
	}
	return scenario.LoadBuiltin(arg)
}

// storePath returns the history store path from the given flag value,
// falling back to the environment configuration.
func storePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return rootCfg.StorePath
}
