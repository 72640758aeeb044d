package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "teleprompt",
	Short: "Inspect and exercise the teleprompt optimization engine",
	Long: `Companion tooling for the teleprompt library: validate configuration
files, benchmark the concurrent evaluation engine and inspect the run
journal left behind by past optimizations.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newBenchCommand())
	rootCmd.AddCommand(newRunsCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
