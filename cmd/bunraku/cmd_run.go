package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bunraku/internal/activity"
	"bunraku/internal/format"
	"bunraku/internal/scenario"
	"bunraku/internal/sim"
	"bunraku/internal/store"
)

var runFlags struct {
	ticks    int
	parallel int
	record   bool
	store    string
	trees    bool
	markdown bool
}

var runCmd = &cobra.Command{
	Use:   "run <scenario> [scenario ...]",
	Short: "Run scenarios to completion and print a summary",
	Long: `Run executes each scenario and prints a summary table. A scenario argument
is a builtin name (see "bunraku kinds") or a path to a YAML file.

The tick budget comes from the scenario itself unless --ticks is given;
a budget of 0 runs until every actor is idle and no events remain.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.IntVar(&runFlags.ticks, "ticks", -1, "Tick budget override (0 = run until idle, -1 = use the scenario's)")
	f.IntVar(&runFlags.parallel, "parallel", 1, "Number of scenarios to run concurrently")
	f.BoolVar(&runFlags.record, "record", false, "Record each run in the history store")
	f.StringVar(&runFlags.store, "store", "", "History store path (default $BUNRAKU_STORE)")
	f.BoolVar(&runFlags.trees, "trees", false, "Print each actor's remaining activity tree after the run")
	f.BoolVar(&runFlags.markdown, "markdown", false, "Render tables as Markdown instead of ASCII")
}

type runResult struct {
	def     *scenario.ScenarioDef
	world   *sim.World
	report  sim.Report
	stats   activity.Stats
	started time.Time
	elapsed time.Duration
	err     error
}

// name returns the scenario's declared name, or the command-line argument
// when the scenario never loaded.
func (r runResult) name(arg string) string {
	if r.def != nil {
		return r.def.Scenario
	}
	return arg
}

func runRun(cmd *cobra.Command, args []string) error {
	par := runFlags.parallel
	if par < 1 {
		par = 1
	}

	results := make([]runResult, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(par)
	for i, arg := range args {
		g.Go(func() error {
			results[i] = runOne(ctx, arg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	mode := format.ASCII
	if runFlags.markdown {
		mode = format.Markdown
	}
	out := cmd.OutOrStdout()

	tbl := format.NewTable(mode)
	tbl.Header("Scenario", "Ticks", "Actors", "Idle", "Completed", "Refused", "Elapsed", "Status")
	tbl.Columns(
		format.ColumnConfig{Number: 1, MaxWidth: 30},
		format.ColumnConfig{Number: 2, Align: format.AlignRight},
		format.ColumnConfig{Number: 5, Align: format.AlignRight},
		format.ColumnConfig{Number: 6, Align: format.AlignRight},
	)

	var totalTicks, totalCompleted, failed int
	for i, r := range results {
		status := "ok"
		if r.err != nil {
			status = "error"
			failed++
		}
		tbl.Row(r.name(args[i]), r.report.Ticks, r.report.Actors, r.report.Idle,
			r.report.Completed, r.stats.EdgesRefused,
			r.elapsed.Round(time.Microsecond).String(), status)
		totalTicks += r.report.Ticks
		totalCompleted += r.report.Completed
	}
	if len(results) > 1 {
		tbl.Footer("total", totalTicks, "", "", totalCompleted, "", "", "")
	}
	fmt.Fprintln(out, tbl.String())

	for i, r := range results {
		if r.err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.name(args[i]), r.err)
		}
	}

	if runFlags.trees {
		printTrees(cmd, results, args, mode)
	}

	if runFlags.record {
		if err := recordRuns(results, args); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(args))
	}
	return nil
}

func runOne(ctx context.Context, arg string) runResult {
	res := runResult{started: time.Now()}

	def, err := loadScenarioArg(arg)
	if err != nil {
		res.err = err
		return res
	}
	res.def = def

	world, err := scenario.BuildWorld(def, scenario.DefaultRegistry())
	if err != nil {
		res.err = err
		return res
	}
	res.world = world

	budget := def.Ticks
	if runFlags.ticks >= 0 {
		budget = runFlags.ticks
	}
	if budget == 0 {
		budget = -1
	}

	// Counter deltas smear across interleaved runs; the batch total stays right.
	before := activity.ReadStats()
	rep, err := world.Run(ctx, budget)
	after := activity.ReadStats()

	res.report = rep
	res.stats = activity.Stats{
		EdgesRefused: after.EdgesRefused - before.EdgesRefused,
		DoneTicked:   after.DoneTicked - before.DoneTicked,
	}
	res.elapsed = time.Since(res.started)
	res.err = err
	return res
}

// printTrees dumps the remaining activity graph of every actor. After a full
// run most actors are idle; leftover trees show where a tick budget cut in.
func printTrees(cmd *cobra.Command, results []runResult, args []string, mode format.Mode) {
	out := cmd.OutOrStdout()
	for i, r := range results {
		if r.world == nil {
			continue
		}
		fmt.Fprintf(out, "\n%s (tick %d)\n", r.name(args[i]), r.world.Tick())
		for _, a := range r.world.Actors() {
			if a.IsIdle() {
				fmt.Fprintf(out, "  %s: idle\n", a.ID())
				continue
			}
			cur := a.CurrentActivity()
			entries := activity.Tree(activity.Root(cur), cur)
			fmt.Fprintf(out, "  %s:\n%s\n", a.ID(), format.RenderTree(entries, mode))
		}
	}
}

func recordRuns(results []runResult, args []string) error {
	st, err := store.Open(storePath(runFlags.store))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	for i, r := range results {
		run := &store.Run{
			Scenario:     r.name(args[i]),
			StartedAt:    r.started.UTC().Format(time.RFC3339),
			FinishedAt:   r.started.Add(r.elapsed).UTC().Format(time.RFC3339),
			Ticks:        r.report.Ticks,
			Actors:       r.report.Actors,
			Completed:    r.report.Completed,
			Idle:         r.report.Idle,
			EdgesRefused: int64(r.stats.EdgesRefused),
			DoneTicked:   int64(r.stats.DoneTicked),
			Status:       "ok",
		}
		if r.def != nil {
			run.Events = len(r.def.Events)
		}
		if r.err != nil {
			run.Status = "error"
			run.Error = r.err.Error()
		}
		if _, err := st.SaveRun(run); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}
	return nil
}
