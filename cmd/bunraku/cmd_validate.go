package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bunraku/internal/scenario"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario ...>",
	Short: "Check scenario files without running them",
	Long: `Validate parses each scenario, checks its declarations, and builds its
world once to catch unknown activity kinds and broken scripts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	var failed int
	for _, arg := range args {
		def, err := loadScenarioArg(arg)
		if err == nil {
			_, err = scenario.BuildWorld(def, scenario.DefaultRegistry())
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", arg, err)
			continue
		}
		fmt.Fprintf(out, "OK   %s (actors=%d events=%d ticks=%d)\n",
			def.Scenario, len(def.Actors), len(def.Events), def.Ticks)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios invalid", failed, len(args))
	}
	return nil
}
