// Package evaluation runs programs over example sets concurrently with
// bounded parallelism, per-example fault isolation and deterministic
// aggregation.
//
// Each example is an independent unit of work. Failures inside the program
// or the metric never abort a batch: they are recorded per example and
// folded into the aggregate stats. A batch that produced only soft
// failures still yields a zero score rather than an error, since "the
// program never parses" is an informative, scoreable outcome for the
// optimizer. Only a batch dominated by critical failures (timeouts,
// panics, cancellation) is reported as a failed evaluation.
package evaluation

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/prompteng/teleprompt/pkg/core"
	"github.com/prompteng/teleprompt/pkg/errors"
	"github.com/prompteng/teleprompt/pkg/logging"
	"github.com/prompteng/teleprompt/pkg/telemetry"
)

// criticalFailureRatio is the share of critical errors above which an
// all-failed batch is treated as a broken harness instead of a zero score.
const criticalFailureRatio = 0.8

// exampleOutcome pairs an outcome slot with its error for reassembly by index.
type exampleOutcome struct {
	outcome Outcome
	err     error
}

// Evaluate runs program over examples and aggregates a score.
func Evaluate(ctx context.Context, program core.Program, examples []core.Example, metric core.Metric, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := validate(program, examples, metric); err != nil {
		return nil, err
	}

	logger := logging.GetLogger()
	start := time.Now()

	o.sink.Emit(ctx, telemetry.Event{
		Phase:        telemetry.PhaseBatchStart,
		Time:         start,
		Measurements: map[string]float64{"total": float64(len(examples))},
	})

	logger.Debug(ctx, "evaluating %d examples with max_concurrency=%d", len(examples), o.maxConcurrency)

	// Results land in their own slot, so out-of-order completion never
	// loses the example association.
	outcomes := make([]exampleOutcome, len(examples))

	p := pool.New().WithMaxGoroutines(o.maxConcurrency)
	for i, example := range examples {
		i, example := i, example
		p.Go(func() {
			outcome, err := runExample(ctx, program, example, metric, o)
			outcomes[i] = exampleOutcome{outcome: outcome, err: err}

			if (i+1)%o.progressEvery == 0 {
				o.sink.Emit(ctx, telemetry.Event{
					Phase: telemetry.PhaseExampleEvaluated,
					Time:  time.Now(),
					Measurements: map[string]float64{
						"index": float64(i),
						"score": outcome.Score,
					},
				})
			}
		})
	}
	p.Wait()

	duration := time.Since(start)
	result, err := aggregate(outcomes, duration)
	if err != nil {
		logger.Warn(ctx, "evaluation failed: %v", err)
		return nil, err
	}

	o.sink.Emit(ctx, telemetry.Event{
		Phase: telemetry.PhaseBatchStop,
		Time:  time.Now(),
		Measurements: map[string]float64{
			"score":            result.Score,
			"successful":       float64(result.Stats.Successful),
			"failed":           float64(result.Stats.Failed),
			"duration_seconds": duration.Seconds(),
		},
	})

	logger.Debug(ctx, "evaluation complete: score=%.4f successful=%d failed=%d duration=%v",
		result.Score, result.Stats.Successful, result.Stats.Failed, duration)

	return result, nil
}

// validate rejects malformed input before any concurrency starts.
func validate(program core.Program, examples []core.Example, metric core.Metric) error {
	if program == nil {
		return errors.New(errors.InvalidProgram, "program must not be nil")
	}
	if len(examples) == 0 {
		return errors.New(errors.InvalidExamples, "examples must be a non-empty list")
	}
	for i, example := range examples {
		if !example.Valid() {
			return errors.WithFields(
				errors.New(errors.InvalidExamples, "example is missing inputs or outputs"),
				errors.Fields{"index": i},
			)
		}
	}
	if metric == nil {
		return errors.New(errors.InvalidMetric, "metric must not be nil")
	}
	return nil
}

func aggregate(outcomes []exampleOutcome, duration time.Duration) (*Result, error) {
	total := len(outcomes)

	var sum float64
	successful := 0
	criticalCount := 0
	var records []ErrorRecord

	for i, eo := range outcomes {
		if eo.err == nil {
			sum += eo.outcome.Score
			successful++
			continue
		}
		code := errors.CodeOf(eo.err)
		critical := CriticalCode(code)
		if critical {
			criticalCount++
		}
		records = append(records, ErrorRecord{
			Index:    i,
			Code:     code,
			Message:  eo.err.Error(),
			Critical: critical,
		})
	}

	failed := total - successful

	if successful == 0 && float64(criticalCount) > criticalFailureRatio*float64(total) {
		return nil, errors.WithFields(
			errors.New(errors.EvaluationFailed, "evaluation failed: critical failures dominate the batch"),
			errors.Fields{"total": total, "critical": criticalCount},
		)
	}

	score := 0.0
	if successful > 0 {
		score = sum / float64(successful)
	}

	// Floor sub-millisecond batches to 1ms for throughput only.
	throughputDur := duration
	if throughputDur < time.Millisecond {
		throughputDur = time.Millisecond
	}

	return &Result{
		Score: score,
		Stats: Stats{
			Total:       total,
			Successful:  successful,
			Failed:      failed,
			Duration:    duration,
			SuccessRate: float64(successful) / float64(total),
			Throughput:  float64(total) / throughputDur.Seconds(),
			Errors:      records,
		},
	}, nil
}
