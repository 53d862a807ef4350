package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	persistlog "furnacesplit.ai/internal/persistence/log"
)

var (
	auditActor string
	auditOven  string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Print recorded split attempts as JSON lines",
	Long: `Decode the hourly audit-*.jsonl.zst files under <data>/audit and print
one JSON object per split attempt, oldest first.

Examples:
  furnacesplit audit --data ./data
  furnacesplit audit --actor A1 --oven FURNACE@1,0,0
`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditActor, "actor", "", "only attempts by this actor")
	auditCmd.Flags().StringVar(&auditOven, "oven", "", "only attempts into this oven")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	files, err := persistlog.AuditFiles(dataDir)
	if err != nil {
		return fmt.Errorf("list audit files: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	n := 0
	for _, path := range files {
		err := persistlog.ReadAudit(path, func(rec persistlog.SplitAudit) error {
			if auditActor != "" && rec.Actor != auditActor {
				return nil
			}
			if auditOven != "" && rec.Oven != auditOven {
				return nil
			}
			n++
			return enc.Encode(rec)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d attempts in %d files\n", n, len(files))
	return nil
}
