package optimizers

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/prompteng/teleprompt/pkg/errors"
)

// Config contains the tunables of the teleprompter optimization loop.
// Every field is checked at Initializing; an invalid configuration is the
// only fatal error besides trainset/program/metric validation.
type Config struct {
	// Mini-batch configuration
	BatchSize int `json:"batch_size" yaml:"batch_size" validate:"min=1"` // Default: 32
	MaxSteps  int `json:"max_steps" yaml:"max_steps" validate:"min=0"`   // Default: 8

	// TrajectoriesPerExample is how many pool variants are sampled for
	// each mini-batch example. Buckets need at least MinBucketSize
	// trajectories to be actionable.
	TrajectoriesPerExample int `json:"trajectories_per_example" yaml:"trajectories_per_example" validate:"min=1"` // Default: 3

	// MaxCandidatesPerRound bounds how many new variants one round may produce.
	MaxCandidatesPerRound int `json:"max_candidates_per_round" yaml:"max_candidates_per_round" validate:"min=1"` // Default: 6

	// Prompt mutation limits
	MaxDemos int `json:"max_demos" yaml:"max_demos" validate:"min=1"` // Default: 4

	// Temperature for softmax sampling over running scores.
	Temperature float64 `json:"temperature" yaml:"temperature" validate:"gt=0"` // Default: 0.2

	// Pool management
	PoolCapacity int `json:"pool_capacity" yaml:"pool_capacity" validate:"min=1"` // Default: 8

	// Bucket analysis
	ImprovementThreshold float64 `json:"improvement_threshold" yaml:"improvement_threshold" validate:"gte=0"` // Default: 0.1
	MinBucketSize        int     `json:"min_bucket_size" yaml:"min_bucket_size" validate:"min=1"`             // Default: 2

	// Convergence
	ConvergenceEpsilon float64 `json:"convergence_epsilon" yaml:"convergence_epsilon" validate:"gte=0"` // Default: 0.001
	ConvergenceWindow  int     `json:"convergence_window" yaml:"convergence_window" validate:"min=1"`   // Default: 3

	// Held-out validation share of the trainset, fixed for the whole run.
	ValidationFraction float64 `json:"validation_fraction" yaml:"validation_fraction" validate:"gt=0,lt=1"` // Default: 0.3

	// Concurrency and resources
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency" validate:"min=1"` // Default: 100
	// SamplerConcurrency is a dedicated (smaller) bound for trajectory
	// sampling so it never starves candidate evaluation.
	SamplerConcurrency int `json:"sampler_concurrency" yaml:"sampler_concurrency" validate:"min=1"` // Default: 16

	// Timeout bounds a single example evaluation. Zero means unbounded.
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"min=0"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:              32,
		MaxSteps:               8,
		TrajectoriesPerExample: 3,
		MaxCandidatesPerRound:  6,
		MaxDemos:               4,
		Temperature:            0.2,
		PoolCapacity:           8,
		ImprovementThreshold:   0.1,
		MinBucketSize:          2,
		ConvergenceEpsilon:     0.001,
		ConvergenceWindow:      3,
		ValidationFraction:     0.3,
		MaxConcurrency:         100,
		SamplerConcurrency:     16,
		Timeout:                0,
	}
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return errors.Wrap(err, errors.InvalidConfig, "invalid teleprompter configuration")
	}
	return nil
}
