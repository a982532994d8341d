package scenario

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Parse decodes and validates a scenario definition.
func Parse(data []byte) (*ScenarioDef, error) {
	var def ScenarioDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &def, nil
}

// Load reads a scenario definition from disk.
func Load(path string) (*ScenarioDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// LoadBuiltin reads a scenario by name from the embedded YAML files.
func LoadBuiltin(name string) (*ScenarioDef, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("builtin scenario %q not found (available: %s): %w",
			name, strings.Join(ListBuiltin(), ", "), err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("builtin scenario %q: %w", name, err)
	}
	return def, nil
}

// ListBuiltin returns the names of all embedded scenarios, sorted.
func ListBuiltin() []string {
	entries, _ := builtinFS.ReadDir("builtin")
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}
