package optimizers_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prompteng/teleprompt/internal/testutil"
	"github.com/prompteng/teleprompt/pkg/core"
	"github.com/prompteng/teleprompt/pkg/errors"
	"github.com/prompteng/teleprompt/pkg/optimizers"
	"github.com/prompteng/teleprompt/pkg/telemetry"
)

func exactAnswer(example core.Example, prediction core.Prediction) float64 {
	if prediction.Outputs == nil {
		return 0.0
	}
	if prediction.Outputs["answer"] == example.Outputs["answer"] {
		return 1.0
	}
	return 0.0
}

// flakyTunable answers correctly on every second call until it has
// demonstrations, after which it always answers correctly. The
// alternation gives round-0 buckets a real score spread to act on.
type flakyTunable struct {
	calls *int64
	demos []core.Example
}

func newFlakyTunable() *flakyTunable {
	return &flakyTunable{calls: new(int64)}
}

func (p *flakyTunable) Forward(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	if len(p.demos) > 0 {
		return map[string]interface{}{"answer": inputs["question"]}, nil
	}
	if atomic.AddInt64(p.calls, 1)%2 == 0 {
		return map[string]interface{}{"answer": inputs["question"]}, nil
	}
	return map[string]interface{}{"answer": "wrong"}, nil
}

func (p *flakyTunable) WithPrompt(instruction string, demos []core.Example) core.Program {
	return &flakyTunable{calls: p.calls, demos: demos}
}

func TestCompileValidation(t *testing.T) {
	ctx := context.Background()
	student := newFlakyTunable()

	t.Run("nil program", func(t *testing.T) {
		_, err := optimizers.New(optimizers.WithSeed(1)).Compile(ctx, nil, testutil.QATrainset(10), exactAnswer)
		assert.True(t, errors.HasCode(err, errors.InvalidProgram))
	})

	t.Run("empty trainset", func(t *testing.T) {
		_, err := optimizers.New(optimizers.WithSeed(1)).Compile(ctx, student, nil, exactAnswer)
		assert.True(t, errors.HasCode(err, errors.InvalidTrainset))
	})

	t.Run("malformed trainset example", func(t *testing.T) {
		examples := testutil.QATrainset(5)
		examples[2].Outputs = nil
		_, err := optimizers.New(optimizers.WithSeed(1)).Compile(ctx, student, examples, exactAnswer)
		assert.True(t, errors.HasCode(err, errors.InvalidTrainset))
	})

	t.Run("nil metric", func(t *testing.T) {
		_, err := optimizers.New(optimizers.WithSeed(1)).Compile(ctx, student, testutil.QATrainset(10), nil)
		assert.True(t, errors.HasCode(err, errors.InvalidMetric))
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := optimizers.DefaultConfig()
		cfg.BatchSize = 0
		_, err := optimizers.New(optimizers.WithSeed(1), optimizers.WithConfig(cfg)).
			Compile(ctx, student, testutil.QATrainset(10), exactAnswer)
		assert.True(t, errors.HasCode(err, errors.InvalidConfig))
	})
}

func TestCompileZeroStepsReturnsBaseline(t *testing.T) {
	cfg := optimizers.DefaultConfig()
	cfg.MaxSteps = 0

	result, err := optimizers.New(optimizers.WithSeed(1), optimizers.WithConfig(cfg)).Compile(
		context.Background(), newFlakyTunable(), testutil.QATrainset(10), exactAnswer)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Stats.Rounds)
	assert.Empty(t, result.Stats.TrialHistory)
	assert.True(t, result.Variant.IsBaseline())
	assert.Empty(t, result.Variant.Demos)
}

func TestCompileImprovesFlakyProgram(t *testing.T) {
	cfg := optimizers.DefaultConfig()
	cfg.MaxSteps = 4
	cfg.BatchSize = 8
	cfg.MaxConcurrency = 8
	cfg.SamplerConcurrency = 4

	sink := &testutil.CapturingSink{}

	result, err := optimizers.New(optimizers.WithSeed(42), optimizers.WithConfig(cfg), optimizers.WithSink(sink)).
		Compile(context.Background(), newFlakyTunable(), testutil.QATrainset(20), exactAnswer)
	require.NoError(t, err)

	require.GreaterOrEqual(t, result.Stats.Rounds, 1)
	assert.False(t, result.Variant.IsBaseline(), "a demonstration-carrying candidate should win")
	assert.NotEmpty(t, result.Variant.Demos)
	assert.InDelta(t, 1.0, result.Stats.BestScore, 1e-9)

	// The materialized program actually answers correctly now.
	out, err := result.Program.Forward(context.Background(), map[string]interface{}{"question": "z"})
	require.NoError(t, err)
	assert.Equal(t, "z", out["answer"])

	// Round and candidate lifecycle events reached the sink.
	counts := map[string]int{}
	for _, phase := range sink.Phases() {
		counts[phase]++
	}
	assert.Equal(t, result.Stats.Rounds, counts[telemetry.PhaseRoundStart])
	assert.Equal(t, result.Stats.Rounds, counts[telemetry.PhaseRoundStop])
	assert.Greater(t, counts[telemetry.PhaseCandidateEvaluated], 0)
}

func TestCompileNoImprovementReturnsBaseline(t *testing.T) {
	// A deterministic program yields zero score spread, so no bucket is
	// ever actionable and every round produces zero candidates. That is
	// a normal outcome, not an error.
	cfg := optimizers.DefaultConfig()
	cfg.MaxSteps = 5

	result, err := optimizers.New(optimizers.WithSeed(7), optimizers.WithConfig(cfg)).Compile(
		context.Background(), testutil.EchoProgram(), testutil.QATrainset(10), exactAnswer)
	require.NoError(t, err)

	assert.True(t, result.Variant.IsBaseline())
	for _, record := range result.Stats.TrialHistory {
		assert.Equal(t, 0, record.CandidatesProduced)
	}
}

func TestCompileConvergesEarly(t *testing.T) {
	cfg := optimizers.DefaultConfig()
	cfg.MaxSteps = 20
	cfg.ConvergenceWindow = 3

	result, err := optimizers.New(optimizers.WithSeed(7), optimizers.WithConfig(cfg)).Compile(
		context.Background(), testutil.EchoProgram(), testutil.QATrainset(10), exactAnswer)
	require.NoError(t, err)

	assert.True(t, result.Stats.Converged)
	assert.Less(t, result.Stats.Rounds, 20)
}

func TestCompileWritesJournal(t *testing.T) {
	journal := new(testutil.MockJournal)

	var rounds []optimizers.RoundRecord
	journal.On("RecordRound", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			rounds = append(rounds, args.Get(2).(optimizers.RoundRecord))
		}).Return(nil)

	var candidates []optimizers.CandidateRecord
	journal.On("RecordCandidate", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			candidates = append(candidates, args.Get(2).(optimizers.CandidateRecord))
		}).Return(nil)

	cfg := optimizers.DefaultConfig()
	cfg.MaxSteps = 3
	cfg.BatchSize = 8

	result, err := optimizers.New(optimizers.WithSeed(42), optimizers.WithConfig(cfg), optimizers.WithJournal(journal)).
		Compile(context.Background(), newFlakyTunable(), testutil.QATrainset(20), exactAnswer)
	require.NoError(t, err)

	assert.Len(t, rounds, result.Stats.Rounds)
	assert.NotEmpty(t, candidates)
	for _, c := range candidates {
		assert.NotEmpty(t, c.VariantID)
		assert.NotEmpty(t, c.Strategy)
	}
}

func TestCompileTrialHistory(t *testing.T) {
	cfg := optimizers.DefaultConfig()
	cfg.MaxSteps = 2
	cfg.BatchSize = 4

	result, err := optimizers.New(optimizers.WithSeed(9), optimizers.WithConfig(cfg)).Compile(
		context.Background(), newFlakyTunable(), testutil.QATrainset(12), exactAnswer)
	require.NoError(t, err)

	require.Len(t, result.Stats.TrialHistory, result.Stats.Rounds)
	for i, record := range result.Stats.TrialHistory {
		assert.Equal(t, i, record.Round)
		assert.Greater(t, record.TrajectoriesSample, 0)
	}
	assert.NotEmpty(t, result.Stats.RunID)
}

func TestInstructionRuleDelegatesToProposer(t *testing.T) {
	trajectories := []optimizers.Trajectory{
		{
			ExampleIndex: 0,
			Example: core.Example{
				Inputs:  map[string]interface{}{"question": "capital of France"},
				Outputs: map[string]interface{}{"answer": "Paris"},
			},
			VariantID: "good",
			Outputs:   map[string]interface{}{"answer": "Paris"},
			Score:     0.9,
			Succeeded: true,
		},
		{
			ExampleIndex: 0,
			Example: core.Example{
				Inputs:  map[string]interface{}{"question": "capital of France"},
				Outputs: map[string]interface{}{"answer": "Paris"},
			},
			VariantID: "bad",
			Outputs:   map[string]interface{}{"answer": "Lyon"},
			Score:     0.1,
			Succeeded: true,
		},
	}
	buckets := optimizers.BuildBuckets(trajectories, 0.1, 2)
	require.Len(t, buckets, 1)

	proposer := new(testutil.MockProposer)
	proposer.On("Propose", mock.Anything, mock.AnythingOfType("optimizers.ProposalContext")).
		Return("Prefer the official capital over large cities.", nil)

	strategy := &optimizers.AppendInstructionRule{Proposer: proposer}
	source := optimizers.NewBaselineVariant("answer factual questions")

	candidate, err := strategy.Apply(context.Background(), buckets[0], source)
	require.NoError(t, err)

	assert.Equal(t, "answer factual questions\nPrefer the official capital over large cities.", candidate.Instruction)
	proposer.AssertExpectations(t)
}
