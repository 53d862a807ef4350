package main

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"furnacesplit.ai/internal/persistence/optionsdb"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List stored per-actor splitter options",
	RunE:  runOptions,
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}

func runOptions(cmd *cobra.Command, args []string) error {
	store, err := optionsdb.Open(filepath.Join(dataDir, "options.sqlite"))
	if err != nil {
		return fmt.Errorf("open options store: %w", err)
	}
	defer store.Close()

	recs, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTOR\tENABLED\tTOTAL STACKS\tUPDATED")
	for _, r := range recs {
		stacks := ""
		for i, kind := range slices.Sorted(maps.Keys(r.TotalStacks)) {
			if i > 0 {
				stacks += " "
			}
			stacks += fmt.Sprintf("%s=%d", kind, r.TotalStacks[kind])
		}
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", r.ActorID, r.Enabled, stacks, r.UpdatedAt)
	}
	return tw.Flush()
}
