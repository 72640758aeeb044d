package evaluation

import (
	"time"

	"github.com/prompteng/teleprompt/pkg/errors"
)

// ErrorRecord captures a single failed example evaluation.
type ErrorRecord struct {
	// Index of the example within the evaluated batch.
	Index int `json:"index"`
	// Code classifies the failure.
	Code errors.ErrorCode `json:"code"`
	// Message is the human-readable failure description.
	Message string `json:"message"`
	// Critical marks failures of the harness itself (timeouts, panics,
	// cancellation) as opposed to soft, scoreable failures such as a
	// program that cannot parse its input.
	Critical bool `json:"critical"`
}

// Stats aggregates counts and timing for one evaluation batch.
type Stats struct {
	Total      int           `json:"total"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
	// SuccessRate is Successful/Total in [0,1].
	SuccessRate float64 `json:"success_rate"`
	// Throughput is examples per second. Durations under 1ms are floored
	// to 1ms for this figure only, so sub-millisecond batches do not
	// report absurd rates.
	Throughput float64       `json:"throughput"`
	Errors     []ErrorRecord `json:"errors,omitempty"`
}

// Result is the immutable outcome of one Evaluate call.
type Result struct {
	// Score is the mean of successful per-example scores, or 0.0 when a
	// batch produced only soft failures.
	Score float64 `json:"score"`
	Stats Stats   `json:"stats"`
}

// CriticalCode reports whether an error code indicates a harness-level
// failure rather than an informative program failure.
func CriticalCode(code errors.ErrorCode) bool {
	switch code {
	case errors.Timeout, errors.Canceled, errors.ProgramPanic, errors.MetricFailed:
		return true
	default:
		return false
	}
}
