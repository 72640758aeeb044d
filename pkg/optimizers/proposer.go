package optimizers

import "context"

// ContrastivePair shows one example where variants disagreed: the inputs,
// the better and the worse outputs, and their scores.
type ContrastivePair struct {
	Inputs        map[string]interface{}
	BetterOutputs map[string]interface{}
	WorseOutputs  map[string]interface{}
	BetterScore   float64
	WorseScore    float64
}

// ProposalContext is what an instruction proposer gets to work with.
type ProposalContext struct {
	OriginalInstruction string
	Pairs               []ContrastivePair
}

// InstructionProposer produces a natural-language refinement to append to
// a variant's instruction. Implementations are typically LLM-backed; the
// core only depends on this narrow interface.
type InstructionProposer interface {
	Propose(ctx context.Context, proposal ProposalContext) (string, error)
}

// ProposerFunc adapts a function to the InstructionProposer interface.
type ProposerFunc func(ctx context.Context, proposal ProposalContext) (string, error)

func (f ProposerFunc) Propose(ctx context.Context, proposal ProposalContext) (string, error) {
	return f(ctx, proposal)
}
