// Package teleprompt is a concurrent evaluation and prompt optimization
// engine for language programs. It scores a program against a dataset with
// bounded parallelism and per-example fault isolation, then iteratively
// improves the program's prompt through trajectory sampling, bucket
// analysis and mutation strategies.
//
// Key Components:
//
//   - Core: The Program, Tunable, Example, Prediction and Metric
//     abstractions everything else builds on. A Program maps inputs to
//     outputs; a Tunable program additionally accepts an instruction and
//     demonstrations. A Metric scores a prediction against an expected
//     example in [0.0, 1.0].
//
//   - Evaluation: The concurrent batch evaluation engine. Every example
//     runs in isolation: a panicking program or metric, a timeout or a
//     returned error costs that one example its score, never the batch.
//     Results carry per-error records, success rate and throughput.
//
//   - Optimizers: The teleprompter optimization loop. Each round samples
//     execution trajectories from a pool of program variants over a
//     mini-batch, groups them per example into buckets, applies mutation
//     strategies (demonstration appending, LLM-proposed instruction rules)
//     where trajectories disagree, scores the new candidates on a held-out
//     validation slice and prunes the pool back to capacity. The
//     generation-0 baseline is never evicted.
//
//   - Metrics: Ready-made scoring functions: exact match, any-of match,
//     Unicode case-folded match and token-level F1.
//
//   - Datasets: In-memory datasets plus JSONL and parquet loaders for
//     building trainsets.
//
//   - Journal: SQLite-backed persistence of round and candidate history,
//     queryable after the run.
//
//   - Telemetry: Lifecycle event sinks, including a Prometheus sink.
//
// Simple Example:
//
//	import (
//	    "context"
//	    "log"
//
//	    "github.com/prompteng/teleprompt/pkg/core"
//	    "github.com/prompteng/teleprompt/pkg/metrics"
//	    "github.com/prompteng/teleprompt/pkg/optimizers"
//	)
//
//	func main() {
//	    student := myTunableProgram()
//	    trainset := loadTrainset()
//
//	    tp := optimizers.New(optimizers.WithSeed(42))
//	    result, err := tp.Compile(context.Background(), student, trainset, metrics.ExactMatch)
//	    if err != nil {
//	        log.Fatalf("optimization failed: %v", err)
//	    }
//
//	    log.Printf("best score %.4f after %d rounds", result.Stats.BestScore, result.Stats.Rounds)
//	    outputs, _ := result.Program.Forward(context.Background(), map[string]interface{}{
//	        "question": "What is the capital of France?",
//	    })
//	    log.Printf("answer: %v", outputs["answer"])
//	}
//
// teleprompt is released under the MIT License.
package teleprompt
