package optimizers

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/prompteng/teleprompt/pkg/core"
	"github.com/prompteng/teleprompt/pkg/evaluation"
	"github.com/prompteng/teleprompt/pkg/logging"
)

// Trajectory is one execution record: which variant handled which example,
// with what outcome. Trajectories are round-scoped and immutable.
type Trajectory struct {
	ExampleIndex int
	Example      core.Example
	VariantID    string
	Outputs      map[string]interface{}
	Score        float64
	Succeeded    bool
}

// softmaxIndex samples an index from scores using softmax with the given
// temperature: P(i) = exp(score_i/T) / sum_j exp(score_j/T). When every
// score is equal (round 0, or a collapsed pool) the distribution is exactly
// uniform, never a divide-by-zero.
func softmaxIndex(rng *rand.Rand, scores []float64, temperature float64) int {
	if len(scores) == 0 {
		return -1
	}
	if len(scores) == 1 {
		return 0
	}

	// Max-subtraction keeps the exponentials finite for any temperature.
	maxScore := scores[0]
	allEqual := true
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
		if s != scores[0] {
			allEqual = false
		}
	}
	if allEqual || temperature <= 0 {
		if temperature <= 0 {
			// Zero temperature degenerates to argmax.
			best := 0
			for i, s := range scores {
				if s > scores[best] {
					best = i
				}
			}
			return best
		}
		return rng.Intn(len(scores))
	}

	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp((s - maxScore) / temperature)
		sum += probs[i]
	}

	r := rng.Float64() * sum
	var cumulative float64
	for i, p := range probs {
		cumulative += p
		if r <= cumulative {
			return i
		}
	}
	return len(scores) - 1
}

// sampleVariant softmax-selects one variant from the slice by running score.
// Shared by trajectory sampling and strategy source selection.
func sampleVariant(rng *rand.Rand, variants []*Variant, temperature float64) *Variant {
	scores := make([]float64, len(variants))
	for i, v := range variants {
		scores[i] = v.RunningScore()
	}
	idx := softmaxIndex(rng, scores, temperature)
	if idx < 0 {
		return nil
	}
	return variants[idx]
}

// assignment pre-binds an example to a variant so that variant selection
// stays deterministic under a fixed seed while execution runs concurrently.
type assignment struct {
	exampleIndex int
	example      core.Example
	variant      *Variant
}

// SampleTrajectories executes the mini-batch against the pool. For each
// example it softmax-selects cfg.TrajectoriesPerExample variants (with
// replacement) and runs each selection through the single-example
// evaluation primitive under the sampler's own concurrency bound.
func (t *Teleprompter) sampleTrajectories(ctx context.Context, base core.Program, variants []*Variant, batch []core.Example, metric core.Metric) []Trajectory {
	logger := logging.GetLogger()

	// Selection happens up front on the loop goroutine; rng is not safe
	// for concurrent use.
	assignments := make([]assignment, 0, len(batch)*t.config.TrajectoriesPerExample)
	for i, example := range batch {
		for j := 0; j < t.config.TrajectoriesPerExample; j++ {
			variant := sampleVariant(t.rng, variants, t.config.Temperature)
			if variant == nil {
				continue
			}
			assignments = append(assignments, assignment{
				exampleIndex: i,
				example:      example,
				variant:      variant,
			})
		}
	}

	trajectories := make([]Trajectory, len(assignments))

	start := time.Now()
	p := pool.New().WithMaxGoroutines(t.config.SamplerConcurrency)
	for i, a := range assignments {
		i, a := i, a
		p.Go(func() {
			program := a.variant.Materialize(base)
			outcome, err := evaluation.RunExample(ctx, program, a.example, metric,
				evaluation.WithTimeout(t.config.Timeout))

			trajectories[i] = Trajectory{
				ExampleIndex: a.exampleIndex,
				Example:      a.example,
				VariantID:    a.variant.ID,
				Outputs:      outcome.Outputs,
				Score:        outcome.Score,
				Succeeded:    err == nil,
			}
		})
	}
	p.Wait()

	logger.Debug(ctx, "sampled %d trajectories over %d examples in %v",
		len(trajectories), len(batch), time.Since(start))

	return trajectories
}
