package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bunraku/internal/format"
	"bunraku/internal/store"
)

var historyFlags struct {
	limit    int
	store    string
	markdown bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs from the history store",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.IntVar(&historyFlags.limit, "limit", 20, "Maximum number of runs to show, newest first")
	f.StringVar(&historyFlags.store, "store", "", "History store path (default $BUNRAKU_STORE)")
	f.BoolVar(&historyFlags.markdown, "markdown", false, "Render tables as Markdown instead of ASCII")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(storePath(historyFlags.store))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(historyFlags.limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no recorded runs")
		return nil
	}

	mode := format.ASCII
	if historyFlags.markdown {
		mode = format.Markdown
	}
	tbl := format.NewTable(mode)
	tbl.Header("ID", "Scenario", "Age", "Ticks", "Completed", "Refused", "Status", "Error")
	tbl.Columns(
		format.ColumnConfig{Number: 2, MaxWidth: 30},
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
		format.ColumnConfig{Number: 5, Align: format.AlignRight},
	)
	for _, r := range runs {
		tbl.Row(r.ID, r.Scenario, runAge(r.StartedAt), r.Ticks, r.Completed,
			r.EdgesRefused, r.Status, format.Truncate(r.Error, 40))
	}
	fmt.Fprintln(out, tbl.String())
	return nil
}

// runAge renders how long ago a run started, or the raw timestamp when it
// does not parse.
func runAge(startedAt string) string {
	t, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return startedAt
	}
	return format.FmtDuration(time.Since(t)) + " ago"
}
