package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/prompteng/teleprompt/pkg/core"
	"github.com/prompteng/teleprompt/pkg/errors"
)

// Outcome is the result of a single example evaluation.
type Outcome struct {
	Outputs  map[string]interface{}
	Score    float64
	Duration time.Duration
}

// forwardResult carries a program call's result across the timeout boundary.
type forwardResult struct {
	outputs map[string]interface{}
	err     error
}

// RunExample executes program on one example and scores the prediction.
// Panics in the program or the metric are recovered and converted to coded
// errors; a timeout cancels only this unit. This is the single-example
// primitive shared by Evaluate and the trajectory sampler.
func RunExample(ctx context.Context, program core.Program, example core.Example, metric core.Metric, opts ...Option) (Outcome, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return runExample(ctx, program, example, metric, o)
}

func runExample(ctx context.Context, program core.Program, example core.Example, metric core.Metric, o options) (Outcome, error) {
	start := time.Now()

	callCtx := ctx
	cancel := context.CancelFunc(func() {})
	if o.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, o.timeout)
	}
	defer cancel()

	done := make(chan forwardResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- forwardResult{err: errors.New(errors.ProgramPanic, fmt.Sprintf("program panicked: %v", r))}
			}
		}()
		outputs, err := program.Forward(callCtx, example.Inputs)
		done <- forwardResult{outputs: outputs, err: err}
	}()

	var res forwardResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		elapsed := time.Since(start)
		if ctx.Err() != nil {
			return Outcome{Duration: elapsed}, errors.Wrap(ctx.Err(), errors.Canceled, "evaluation canceled")
		}
		return Outcome{Duration: elapsed}, errors.WithFields(
			errors.New(errors.Timeout, "example evaluation timed out"),
			errors.Fields{"timeout": o.timeout.String()},
		)
	}

	elapsed := time.Since(start)

	if res.err != nil {
		if e, ok := res.err.(*errors.Error); ok && e.Code() == errors.ProgramPanic {
			return Outcome{Duration: elapsed}, res.err
		}
		return Outcome{Duration: elapsed}, errors.Wrap(res.err, errors.ProgramFailed, "program forward failed")
	}

	score, err := safeMetric(metric, example, core.Prediction{Outputs: res.outputs})
	if err != nil {
		return Outcome{Outputs: res.outputs, Duration: elapsed}, err
	}

	return Outcome{Outputs: res.outputs, Score: score, Duration: elapsed}, nil
}

// safeMetric invokes the metric with panic recovery.
func safeMetric(metric core.Metric, example core.Example, prediction core.Prediction) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.MetricFailed, fmt.Sprintf("metric panicked: %v", r))
		}
	}()
	return metric(example, prediction), nil
}
