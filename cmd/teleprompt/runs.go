package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prompteng/teleprompt/pkg/journal"
)

func newRunsCommand() *cobra.Command {
	var journalPath string

	cmd := &cobra.Command{
		Use:   "runs <run-id>",
		Short: "Show the journaled history of an optimization run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.Open(journalPath)
			if err != nil {
				return err
			}
			defer j.Close()

			runID := args[0]
			rounds, err := j.Rounds(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(rounds) == 0 {
				return fmt.Errorf("no rounds recorded for run %s", runID)
			}

			fmt.Printf("run %s: %d rounds\n", runID, len(rounds))
			for _, r := range rounds {
				fmt.Printf("  round %d: best=%.4f trajectories=%d actionable=%d produced=%d admitted=%d in %v\n",
					r.Round, r.BestScore, r.TrajectoriesSample, r.BucketsActionable,
					r.CandidatesProduced, r.CandidatesAdmitted, r.Duration)
			}

			candidates, err := j.Candidates(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(candidates) > 0 {
				fmt.Printf("candidates:\n")
				for _, c := range candidates {
					fmt.Printf("  round %d: %s gen=%d strategy=%s score=%.4f\n",
						c.Round, c.VariantID, c.Generation, c.Strategy, c.Score)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "teleprompt_runs.db", "journal database path")

	return cmd
}
