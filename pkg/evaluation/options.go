package evaluation

import (
	"time"

	"github.com/prompteng/teleprompt/pkg/telemetry"
)

const (
	// DefaultMaxConcurrency caps in-flight example evaluations.
	DefaultMaxConcurrency = 100
	// DefaultProgressEvery throttles per-example telemetry events.
	DefaultProgressEvery = 10
)

// options configures an Evaluate call.
type options struct {
	maxConcurrency int
	// timeout bounds a single example evaluation. Zero means unbounded.
	timeout       time.Duration
	sink          telemetry.Sink
	progressEvery int
}

func defaultOptions() options {
	return options{
		maxConcurrency: DefaultMaxConcurrency,
		timeout:        0,
		sink:           telemetry.NopSink{},
		progressEvery:  DefaultProgressEvery,
	}
}

// Option configures the evaluation engine.
type Option func(*options)

// WithMaxConcurrency bounds the number of in-flight example evaluations.
func WithMaxConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrency = n
		}
	}
}

// WithTimeout bounds how long a single example evaluation may run before
// it is cancelled and recorded as a timeout failure. Zero disables the
// bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.timeout = d
		}
	}
}

// WithSink attaches a telemetry sink receiving batch and progress events.
func WithSink(sink telemetry.Sink) Option {
	return func(o *options) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithProgressEvery emits an example_evaluated event every nth example.
func WithProgressEvery(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.progressEvery = n
		}
	}
}
