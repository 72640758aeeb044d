// Package optimizers implements the teleprompter: an iterative stochastic
// search over program variants. Each round samples trajectories from the
// variant pool over a mini-batch, groups them into buckets, applies
// mutation strategies to buckets where variants disagree, scores the new
// candidates on a held-out validation slice and prunes the pool back to
// capacity. The generation-0 baseline is never evicted, so the optimizer
// can always fall back to the unmodified student program.
package optimizers

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/prompteng/teleprompt/pkg/core"
	"github.com/prompteng/teleprompt/pkg/errors"
	"github.com/prompteng/teleprompt/pkg/evaluation"
	"github.com/prompteng/teleprompt/pkg/logging"
	"github.com/prompteng/teleprompt/pkg/telemetry"
)

// RoundRecord captures one optimization round for the trial history.
type RoundRecord struct {
	Round              int           `json:"round"`
	BestScore          float64       `json:"best_score"`
	TrajectoriesSample int           `json:"trajectories_sampled"`
	BucketsActionable  int           `json:"buckets_actionable"`
	CandidatesProduced int           `json:"candidates_produced"`
	CandidatesAdmitted int           `json:"candidates_admitted"`
	Duration           time.Duration `json:"duration"`
}

// CandidateRecord captures one scored candidate for the journal.
type CandidateRecord struct {
	Round      int     `json:"round"`
	VariantID  string  `json:"variant_id"`
	Generation int     `json:"generation"`
	Strategy   string  `json:"strategy"`
	Score      float64 `json:"score"`
}

// Journal persists per-round and per-candidate outcomes. Optional; journal
// failures are logged, never fatal.
type Journal interface {
	RecordRound(ctx context.Context, runID string, record RoundRecord) error
	RecordCandidate(ctx context.Context, runID string, record CandidateRecord) error
}

// CompileStats summarizes a whole optimization run.
type CompileStats struct {
	RunID        string        `json:"run_id"`
	Rounds       int           `json:"rounds"`
	BestScore    float64       `json:"best_score"`
	Converged    bool          `json:"converged"`
	Duration     time.Duration `json:"duration"`
	TrialHistory []RoundRecord `json:"trial_history"`
}

// CompileResult is the teleprompter's public output: the materialized best
// program, the variant that produced it and the run statistics.
type CompileResult struct {
	Program core.Program
	Variant *Variant
	Stats   CompileStats
}

// Teleprompter drives the optimization loop.
type Teleprompter struct {
	config   Config
	rng      *rand.Rand
	logger   *logging.Logger
	sink     telemetry.Sink
	proposer InstructionProposer
	journal  Journal

	// baseInstruction seeds the baseline variant when the student program
	// cannot report its own instruction.
	baseInstruction string
}

// Option configures a Teleprompter.
type Option func(*Teleprompter)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(t *Teleprompter) { t.config = cfg }
}

// WithSeed makes the run reproducible.
func WithSeed(seed int64) Option {
	return func(t *Teleprompter) { t.rng = rand.New(rand.NewSource(seed)) }
}

// WithSink attaches a telemetry sink.
func WithSink(sink telemetry.Sink) Option {
	return func(t *Teleprompter) {
		if sink != nil {
			t.sink = sink
		}
	}
}

// WithProposer enables the AppendInstructionRule strategy.
func WithProposer(p InstructionProposer) Option {
	return func(t *Teleprompter) { t.proposer = p }
}

// WithJournal attaches a run journal.
func WithJournal(j Journal) Option {
	return func(t *Teleprompter) { t.journal = j }
}

// WithBaseInstruction seeds the baseline variant's instruction text.
func WithBaseInstruction(instruction string) Option {
	return func(t *Teleprompter) { t.baseInstruction = instruction }
}

// New creates a Teleprompter with the documented defaults.
func New(opts ...Option) *Teleprompter {
	t := &Teleprompter{
		config: DefaultConfig(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logging.GetLogger(),
		sink:   telemetry.NopSink{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Compile optimizes the student program against the trainset and returns
// the best variant found, or the unmodified baseline when no improvement
// exists. The only fatal errors are validation failures at initialization.
func (t *Teleprompter) Compile(ctx context.Context, student core.Program, trainset []core.Example, metric core.Metric) (*CompileResult, error) {
	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	start := time.Now()

	if err := t.initialize(student, trainset, metric); err != nil {
		return nil, err
	}

	trainSlice, valSlice := t.split(trainset)

	t.logger.Info(ctx, "starting optimization: trainset=%d train=%d val=%d max_steps=%d",
		len(trainset), len(trainSlice), len(valSlice), t.config.MaxSteps)

	baseline := NewBaselineVariant(t.baseInstruction)
	variantPool := NewVariantPool(baseline)

	stats := CompileStats{RunID: runID}

	// Seed the baseline's running score so round-0 softmax sampling has a
	// real signal to weight against once candidates appear.
	if t.config.MaxSteps > 0 {
		if result, err := t.scoreVariant(ctx, baseline, student, valSlice, metric); err == nil {
			baseline.ObserveScore(result.Score)
			t.logger.Info(ctx, "baseline score: %.4f", result.Score)
		} else {
			t.logger.Warn(ctx, "baseline evaluation failed, continuing unscored: %v", err)
		}
	}

	strategies := defaultStrategies(t.config.MaxDemos, t.proposer)

	var bestHistory []float64
	converged := false

	for step := 0; step < t.config.MaxSteps; step++ {
		roundStart := time.Now()
		t.sink.Emit(ctx, telemetry.Event{
			Phase:        telemetry.PhaseRoundStart,
			Time:         roundStart,
			Measurements: map[string]float64{"round": float64(step)},
		})

		record := t.runRound(ctx, runID, step, student, variantPool, strategies, trainSlice, valSlice, metric)
		record.Duration = time.Since(roundStart)
		record.BestScore = variantPool.BestScore()
		stats.TrialHistory = append(stats.TrialHistory, record)
		stats.Rounds = step + 1

		t.sink.Emit(ctx, telemetry.Event{
			Phase: telemetry.PhaseRoundStop,
			Time:  time.Now(),
			Measurements: map[string]float64{
				"round":      float64(step),
				"best_score": record.BestScore,
				"candidates": float64(record.CandidatesProduced),
			},
		})

		if t.journal != nil {
			if err := t.journal.RecordRound(ctx, runID, record); err != nil {
				t.logger.Warn(ctx, "journal round write failed: %v", err)
			}
		}

		t.logger.Info(ctx, "round %d: best=%.4f actionable=%d produced=%d admitted=%d pool=%d",
			step, record.BestScore, record.BucketsActionable,
			record.CandidatesProduced, record.CandidatesAdmitted, variantPool.Len())

		bestHistory = append(bestHistory, record.BestScore)
		if t.hasConverged(bestHistory) {
			t.logger.Info(ctx, "optimization converged at round %d", step)
			converged = true
			break
		}
	}

	best := variantPool.Best()
	stats.BestScore = best.RunningScore()
	stats.Converged = converged
	stats.Duration = time.Since(start)

	t.logger.Info(ctx, "optimization complete: rounds=%d best_score=%.4f generation=%d duration=%v",
		stats.Rounds, stats.BestScore, best.Generation, stats.Duration)

	return &CompileResult{
		Program: best.Materialize(student),
		Variant: best,
		Stats:   stats,
	}, nil
}

// initialize validates everything that is fatal when wrong.
func (t *Teleprompter) initialize(student core.Program, trainset []core.Example, metric core.Metric) error {
	if err := t.config.Validate(); err != nil {
		return err
	}
	if student == nil {
		return errors.New(errors.InvalidProgram, "student program must not be nil")
	}
	if metric == nil {
		return errors.New(errors.InvalidMetric, "metric must not be nil")
	}
	if len(trainset) == 0 {
		return errors.New(errors.InvalidTrainset, "trainset must not be empty")
	}
	for i, example := range trainset {
		if !example.Valid() {
			return errors.WithFields(
				errors.New(errors.InvalidTrainset, "trainset example is missing inputs or outputs"),
				errors.Fields{"index": i},
			)
		}
	}
	return nil
}

// split shuffles the trainset once and cuts the fixed train/validation
// slices used for the whole run.
func (t *Teleprompter) split(trainset []core.Example) (train, val []core.Example) {
	shuffled := make([]core.Example, len(trainset))
	copy(shuffled, trainset)
	t.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	valSize := int(float64(len(shuffled)) * t.config.ValidationFraction)
	if valSize < 1 {
		valSize = 1
	}
	if valSize >= len(shuffled) {
		// Too few examples to hold anything out; validate on the full set.
		return shuffled, shuffled
	}
	return shuffled[valSize:], shuffled[:valSize]
}

// miniBatch draws up to BatchSize examples without replacement within the
// batch; across rounds examples are reused freely.
func (t *Teleprompter) miniBatch(train []core.Example) []core.Example {
	size := t.config.BatchSize
	if size > len(train) {
		size = len(train)
	}
	indices := t.rng.Perm(len(train))[:size]
	batch := make([]core.Example, size)
	for i, idx := range indices {
		batch[i] = train[idx]
	}
	return batch
}

// runRound performs one Sampling → Bucketing → Strategizing → Evaluating →
// PoolUpdate cycle. Failures inside a round are never fatal: a round that
// produces no candidates leaves the pool unchanged.
func (t *Teleprompter) runRound(ctx context.Context, runID string, step int, student core.Program, variantPool *VariantPool, strategies []Strategy, train, val []core.Example, metric core.Metric) RoundRecord {
	record := RoundRecord{Round: step}

	// Sampling
	batch := t.miniBatch(train)
	trajectories := t.sampleTrajectories(ctx, student, variantPool.Variants(), batch, metric)
	record.TrajectoriesSample = len(trajectories)

	// Bucketing
	buckets := BuildBuckets(trajectories, t.config.ImprovementThreshold, t.config.MinBucketSize)
	record.BucketsActionable = CountActionable(buckets)

	// Strategizing
	var candidates []*Variant
	for _, bucket := range buckets {
		if !bucket.HasImprovementPotential {
			continue
		}
		if len(candidates) >= t.config.MaxCandidatesPerRound {
			break
		}
		source := sampleVariant(t.rng, variantPool.Variants(), t.config.Temperature)
		if source == nil {
			continue
		}
		if candidate, ok := applyFirstApplicable(ctx, strategies, bucket, source); ok {
			candidates = append(candidates, candidate)
		}
	}
	record.CandidatesProduced = len(candidates)

	// Evaluating + PoolUpdate. Candidate evaluation failures discard the
	// candidate for this round only.
	for _, candidate := range candidates {
		result, err := t.scoreVariant(ctx, candidate, student, val, metric)
		if err != nil {
			t.logger.Warn(ctx, "candidate %s could not be scored, discarding: %v", candidate.ID, err)
			continue
		}
		candidate.ObserveScore(result.Score)
		variantPool.Admit(candidate)
		record.CandidatesAdmitted++

		t.sink.Emit(ctx, telemetry.Event{
			Phase: telemetry.PhaseCandidateEvaluated,
			Time:  time.Now(),
			Measurements: map[string]float64{
				"round": float64(step),
				"score": result.Score,
			},
			Metadata: map[string]interface{}{
				"variant_id": candidate.ID,
				"strategy":   candidate.Origin,
			},
		})

		if t.journal != nil {
			err := t.journal.RecordCandidate(ctx, runID, CandidateRecord{
				Round:      step,
				VariantID:  candidate.ID,
				Generation: candidate.Generation,
				Strategy:   candidate.Origin,
				Score:      result.Score,
			})
			if err != nil {
				t.logger.Warn(ctx, "journal candidate write failed: %v", err)
			}
		}
	}

	variantPool.SelectTopK(t.config.PoolCapacity)

	return record
}

// scoreVariant evaluates one variant on the validation slice.
func (t *Teleprompter) scoreVariant(ctx context.Context, v *Variant, student core.Program, val []core.Example, metric core.Metric) (*evaluation.Result, error) {
	return evaluation.Evaluate(ctx, v.Materialize(student), val, metric,
		evaluation.WithMaxConcurrency(t.config.MaxConcurrency),
		evaluation.WithTimeout(t.config.Timeout),
		evaluation.WithSink(t.sink),
	)
}

// hasConverged checks whether the best score improved by more than epsilon
// over the convergence window.
func (t *Teleprompter) hasConverged(bestHistory []float64) bool {
	window := t.config.ConvergenceWindow
	if len(bestHistory) <= window {
		return false
	}
	recent := bestHistory[len(bestHistory)-window:]
	before := bestHistory[len(bestHistory)-window-1]

	improvement := 0.0
	for _, score := range recent {
		if d := score - before; d > improvement {
			improvement = d
		}
	}
	return improvement <= t.config.ConvergenceEpsilon
}
