package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configDir   string
	dataDir     string
	environment string
)

var rootCmd = &cobra.Command{
	Use:           "furnacesplit",
	Short:         "Oven slot splitter server and tools",
	Long:          "furnacesplit spreads stacks deposited into ovens across slots, reports completion estimates to looters and keeps per-actor options.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "configs", "./configs", "config directory (items.json, ovens.json, tuning.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "./data", "runtime data directory")
	rootCmd.PersistentFlags().StringVar(&environment, "env", envOr("FURNACESPLIT_ENV", "production"), "environment (development enables console logs at debug level)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
