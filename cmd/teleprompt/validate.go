package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prompteng/teleprompt/pkg/config"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <settings.yaml>",
		Short: "Validate a settings file",
		Long: `Parse a YAML settings file and check every bound the engine enforces
at startup, without running anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s: ok\n", args[0])
			fmt.Printf("  logging:   level=%s file=%q\n", settings.Logging.Level, settings.Logging.File)
			fmt.Printf("  optimizer: batch_size=%d max_steps=%d pool_capacity=%d max_demos=%d\n",
				settings.Optimizer.BatchSize, settings.Optimizer.MaxSteps,
				settings.Optimizer.PoolCapacity, settings.Optimizer.MaxDemos)
			if settings.Proposer.Model != "" {
				fmt.Printf("  proposer:  model=%s\n", settings.Proposer.Model)
			}
			if settings.Journal.Path != "" {
				fmt.Printf("  journal:   path=%s\n", settings.Journal.Path)
			}
			return nil
		},
	}
}
