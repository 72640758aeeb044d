package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink exports lifecycle events as Prometheus metrics.
type PrometheusSink struct {
	batches    *prometheus.CounterVec
	examples   prometheus.Counter
	rounds     prometheus.Counter
	candidates prometheus.Counter
	scores     prometheus.Histogram
	durations  prometheus.Histogram
}

// NewPrometheusSink registers the sink's collectors with reg and returns
// the sink. Passing prometheus.DefaultRegisterer wires it into the
// process-wide registry.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teleprompt",
			Name:      "evaluation_batches_total",
			Help:      "Number of evaluation batches, by phase.",
		}, []string{"phase"}),
		examples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "teleprompt",
			Name:      "examples_evaluated_total",
			Help:      "Number of per-example evaluations observed.",
		}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "teleprompt",
			Name:      "optimization_rounds_total",
			Help:      "Number of completed optimization rounds.",
		}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "teleprompt",
			Name:      "candidates_evaluated_total",
			Help:      "Number of candidate variants scored.",
		}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "teleprompt",
			Name:      "batch_score",
			Help:      "Aggregated batch scores.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		durations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "teleprompt",
			Name:      "batch_duration_seconds",
			Help:      "Evaluation batch wall-clock duration.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
	}

	reg.MustRegister(s.batches, s.examples, s.rounds, s.candidates, s.scores, s.durations)
	return s
}

func (s *PrometheusSink) Emit(ctx context.Context, event Event) {
	switch event.Phase {
	case PhaseBatchStart:
		s.batches.WithLabelValues(event.Phase).Inc()
	case PhaseBatchStop:
		s.batches.WithLabelValues(event.Phase).Inc()
		if score, ok := event.Measurements["score"]; ok {
			s.scores.Observe(score)
		}
		if d, ok := event.Measurements["duration_seconds"]; ok {
			s.durations.Observe(d)
		}
	case PhaseExampleEvaluated:
		s.examples.Inc()
	case PhaseRoundStop:
		s.rounds.Inc()
	case PhaseCandidateEvaluated:
		s.candidates.Inc()
	}
}
