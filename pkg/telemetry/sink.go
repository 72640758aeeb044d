package telemetry

import (
	"context"
	"time"

	"github.com/prompteng/teleprompt/pkg/logging"
)

// Lifecycle phases emitted by the evaluation engine and the teleprompter.
const (
	PhaseBatchStart         = "batch_start"
	PhaseBatchStop          = "batch_stop"
	PhaseExampleEvaluated   = "example_evaluated"
	PhaseRoundStart         = "round_start"
	PhaseRoundStop          = "round_stop"
	PhaseCandidateEvaluated = "candidate_evaluated"
)

// Event is a structured record describing one lifecycle point.
type Event struct {
	Phase        string
	Time         time.Time
	Measurements map[string]float64
	Metadata     map[string]interface{}
}

// Sink receives lifecycle events. Implementations must return quickly;
// the engine never blocks on a sink's result and ignores its errors.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event)

func (f SinkFunc) Emit(ctx context.Context, event Event) {
	f(ctx, event)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Emit(ctx context.Context, event Event) {}

// LogSink forwards events to the structured logger at DEBUG level.
type LogSink struct {
	logger *logging.Logger
}

func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, event Event) {
	s.logger.Debug(ctx, "telemetry: phase=%s measurements=%v metadata=%v",
		event.Phase, event.Measurements, event.Metadata)
}

// Multi fans events out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, event Event) {
		for _, sink := range sinks {
			sink.Emit(ctx, event)
		}
	})
}
