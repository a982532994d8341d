package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bunraku/internal/activity"
	"bunraku/internal/format"
	"bunraku/internal/scenario"
	"bunraku/internal/sim"
)

var traceFlags struct {
	at       int
	actor    string
	markdown bool
}

var traceCmd = &cobra.Command{
	Use:   "trace <scenario>",
	Short: "Advance a scenario and print actor activity trees",
	Long: `Trace builds the scenario's world, advances it the requested number of
ticks, then prints each actor's activity tree with the currently
dispatched node marked.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrace,
}

func init() {
	f := traceCmd.Flags()
	f.IntVar(&traceFlags.at, "at", 1, "Number of ticks to advance before printing")
	f.StringVar(&traceFlags.actor, "actor", "", "Only print the tree of this actor")
	f.BoolVar(&traceFlags.markdown, "markdown", false, "Render trees as Markdown instead of ASCII")
}

func runTrace(cmd *cobra.Command, args []string) error {
	def, err := loadScenarioArg(args[0])
	if err != nil {
		return err
	}
	world, err := scenario.BuildWorld(def, scenario.DefaultRegistry())
	if err != nil {
		return err
	}

	// Step exactly --at ticks; unlike a run, tracing does not stop early
	// when the world goes idle.
	for i := 0; i < traceFlags.at; i++ {
		world.Step()
	}

	actors := world.Actors()
	if traceFlags.actor != "" {
		a, ok := world.Actor(traceFlags.actor)
		if !ok {
			return fmt.Errorf("actor %q not found in scenario %s", traceFlags.actor, def.Scenario)
		}
		actors = []*sim.Actor{a}
	}

	mode := format.ASCII
	if traceFlags.markdown {
		mode = format.Markdown
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s at tick %d\n", def.Scenario, world.Tick())
	for _, a := range actors {
		if a.IsIdle() {
			fmt.Fprintf(out, "\n%s: idle\n", a.ID())
			continue
		}
		cur := a.CurrentActivity()
		entries := activity.Tree(activity.Root(cur), cur)
		fmt.Fprintf(out, "\n%s:\n%s\n", a.ID(), format.RenderTree(entries, mode))
	}
	return nil
}
