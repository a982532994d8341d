package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bunraku/internal/format"
	"bunraku/internal/scenario"
)

var kindsFlags struct {
	markdown bool
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List activity kinds and builtin scenarios",
	RunE:  runKinds,
}

func init() {
	kindsCmd.Flags().BoolVar(&kindsFlags.markdown, "markdown", false, "Render tables as Markdown instead of ASCII")
}

func runKinds(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Activity kinds: %s\n\n", strings.Join(scenario.DefaultRegistry().Kinds(), ", "))

	mode := format.ASCII
	if kindsFlags.markdown {
		mode = format.Markdown
	}
	tbl := format.NewTable(mode)
	tbl.Header("Scenario", "Description", "Actors", "Events", "Ticks")
	tbl.Columns(
		format.ColumnConfig{Number: 2, MaxWidth: 50},
		format.ColumnConfig{Number: 3, Align: format.AlignRight},
	)
	for _, name := range scenario.ListBuiltin() {
		def, err := scenario.LoadBuiltin(name)
		if err != nil {
			return err
		}
		ticks := "until idle"
		if def.Ticks > 0 {
			ticks = strconv.Itoa(def.Ticks)
		}
		tbl.Row(def.Scenario, def.Description, len(def.Actors), len(def.Events), ticks)
	}
	fmt.Fprintln(out, tbl.String())
	return nil
}
