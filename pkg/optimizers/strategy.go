package optimizers

import (
	"context"
	"strings"

	"github.com/prompteng/teleprompt/pkg/core"
	"github.com/prompteng/teleprompt/pkg/errors"
	"github.com/prompteng/teleprompt/pkg/logging"
)

// Strategy mutates a source variant using the evidence in one bucket.
// Apply returns a StrategySkipped error when the bucket offers nothing for
// this strategy; that is a normal outcome, not a failure.
type Strategy interface {
	Name() string
	Applicable(bucket Bucket) bool
	Apply(ctx context.Context, bucket Bucket, source *Variant) (*Variant, error)
}

// skip builds the sentinel result for a strategy that passes on a bucket.
func skip(reason string) error {
	return errors.New(errors.StrategySkipped, reason)
}

// applyFirstApplicable walks the strategies in priority order and returns
// the first successfully produced variant. Skips fall through to the next
// strategy; a bucket where every strategy skips produces no variant.
func applyFirstApplicable(ctx context.Context, strategies []Strategy, bucket Bucket, source *Variant) (*Variant, bool) {
	logger := logging.GetLogger()

	for _, strategy := range strategies {
		if !strategy.Applicable(bucket) {
			continue
		}
		candidate, err := strategy.Apply(ctx, bucket, source)
		if err != nil {
			if errors.HasCode(err, errors.StrategySkipped) {
				logger.Debug(ctx, "strategy %s skipped bucket %d: %v", strategy.Name(), bucket.ExampleIndex, err)
				continue
			}
			logger.Warn(ctx, "strategy %s failed on bucket %d: %v", strategy.Name(), bucket.ExampleIndex, err)
			continue
		}
		return candidate, true
	}
	return nil, false
}

// AppendDemonstration turns the bucket's best trajectory into a new
// few-shot demonstration on the source variant. The demonstration list is
// FIFO-bounded: the oldest demo is evicted on overflow.
type AppendDemonstration struct {
	MaxDemos int
}

func (s *AppendDemonstration) Name() string { return "append_demonstration" }

func (s *AppendDemonstration) Applicable(bucket Bucket) bool {
	return bucket.HasImprovementPotential
}

func (s *AppendDemonstration) Apply(ctx context.Context, bucket Bucket, source *Variant) (*Variant, error) {
	best := bucket.BestTrajectory()
	if !best.Succeeded || best.Outputs == nil {
		return nil, skip("best trajectory did not produce outputs")
	}

	demo := core.Example{
		Inputs:  best.Example.Inputs,
		Outputs: best.Outputs,
	}

	demos := make([]core.Example, len(source.Demos), len(source.Demos)+1)
	copy(demos, source.Demos)
	demos = append(demos, demo)
	if len(demos) > s.MaxDemos {
		demos = demos[len(demos)-s.MaxDemos:]
	}

	return source.Child(source.Instruction, demos, s.Name()), nil
}

// AppendInstructionRule derives a natural-language rule from the bucket's
// contrastive best/worst pair and appends it to the source instruction.
// Rule text generation is delegated to the injected proposer.
type AppendInstructionRule struct {
	Proposer InstructionProposer
}

func (s *AppendInstructionRule) Name() string { return "append_instruction_rule" }

func (s *AppendInstructionRule) Applicable(bucket Bucket) bool {
	return bucket.HasImprovementPotential && s.Proposer != nil
}

func (s *AppendInstructionRule) Apply(ctx context.Context, bucket Bucket, source *Variant) (*Variant, error) {
	best := bucket.BestTrajectory()
	worst := bucket.WorstTrajectory()
	if best.Score <= worst.Score {
		return nil, skip("no contrastive pair in bucket")
	}

	rule, err := s.Proposer.Propose(ctx, ProposalContext{
		OriginalInstruction: source.Instruction,
		Pairs: []ContrastivePair{{
			Inputs:        best.Example.Inputs,
			BetterOutputs: best.Outputs,
			WorseOutputs:  worst.Outputs,
			BetterScore:   best.Score,
			WorseScore:    worst.Score,
		}},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ProposalFailed, "instruction proposal failed")
	}

	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, skip("proposer returned an empty rule")
	}

	instruction := rule
	if source.Instruction != "" {
		instruction = source.Instruction + "\n" + rule
	}

	return source.Child(instruction, source.Demos, s.Name()), nil
}

// defaultStrategies is the fixed priority order the loop applies.
func defaultStrategies(maxDemos int, proposer InstructionProposer) []Strategy {
	return []Strategy{
		&AppendDemonstration{MaxDemos: maxDemos},
		&AppendInstructionRule{Proposer: proposer},
	}
}
