package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prompteng/teleprompt/pkg/core"
	"github.com/prompteng/teleprompt/pkg/datasets"
	"github.com/prompteng/teleprompt/pkg/evaluation"
	"github.com/prompteng/teleprompt/pkg/metrics"
)

func newBenchCommand() *cobra.Command {
	var (
		datasetPath string
		examples    int
		delay       time.Duration
		concurrency int
		timeout     time.Duration
		metricName  string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the concurrent evaluation engine",
		Long: `Run one evaluation batch and report score, success rate and throughput.

With --dataset the examples come from a JSONL file and the program echoes
the "question" input, so the scores measure the dataset against itself.
Without a dataset a synthetic batch is generated, optionally with a fixed
per-example delay to simulate model latency.`,
		Example: `  # Synthetic batch: 1000 examples, 5ms simulated latency, 100 workers
  teleprompt bench --examples 1000 --delay 5ms --concurrency 100

  # Real dataset
  teleprompt bench --dataset train.jsonl --metric folded`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := metricByName(metricName)
			if err != nil {
				return err
			}

			var batch []core.Example
			if datasetPath != "" {
				batch, err = datasets.LoadJSONL(datasetPath)
				if err != nil {
					return err
				}
			} else {
				batch = syntheticBatch(examples)
			}

			program := core.ProgramFunc(func(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
				if delay > 0 {
					select {
					case <-time.After(delay):
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}
				return map[string]interface{}{"answer": inputs["question"]}, nil
			})

			result, err := evaluation.Evaluate(cmd.Context(), program, batch, metric,
				evaluation.WithMaxConcurrency(concurrency),
				evaluation.WithTimeout(timeout),
			)
			if err != nil {
				return err
			}

			fmt.Printf("examples:     %d\n", result.Stats.Total)
			fmt.Printf("score:        %.4f\n", result.Score)
			fmt.Printf("success rate: %.2f%%\n", result.Stats.SuccessRate*100)
			fmt.Printf("duration:     %v\n", result.Stats.Duration)
			fmt.Printf("throughput:   %.1f examples/s\n", result.Stats.Throughput)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "JSONL dataset file")
	cmd.Flags().IntVar(&examples, "examples", 1000, "synthetic batch size when no dataset is given")
	cmd.Flags().DurationVar(&delay, "delay", 0, "simulated per-example latency")
	cmd.Flags().IntVar(&concurrency, "concurrency", evaluation.DefaultMaxConcurrency, "worker bound")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-example timeout (0 = unbounded)")
	cmd.Flags().StringVar(&metricName, "metric", "exact", "scoring metric: exact, any, folded or f1")

	return cmd
}

func metricByName(name string) (core.Metric, error) {
	switch name {
	case "exact":
		return metrics.ExactMatch, nil
	case "any":
		return metrics.AnyMatch, nil
	case "folded":
		return metrics.FoldedMatch, nil
	case "f1":
		return metrics.F1, nil
	default:
		return nil, fmt.Errorf("unknown metric %q", name)
	}
}

func syntheticBatch(n int) []core.Example {
	batch := make([]core.Example, n)
	for i := range batch {
		q := fmt.Sprintf("question-%d", i)
		batch[i] = core.Example{
			Inputs:  map[string]interface{}{"question": q},
			Outputs: map[string]interface{}{"answer": q},
		}
	}
	return batch
}
