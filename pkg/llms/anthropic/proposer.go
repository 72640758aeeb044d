// Package anthropic provides an instruction proposer backed by Anthropic's
// Messages API. Given contrastive execution pairs it asks the model for one
// short rule that would push the worse outputs toward the better ones.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/prompteng/teleprompt/pkg/errors"
	"github.com/prompteng/teleprompt/pkg/logging"
	"github.com/prompteng/teleprompt/pkg/optimizers"
)

const (
	defaultModel     = anthropic.ModelClaudeSonnet4_5_20250929
	defaultMaxTokens = 512
)

// Proposer asks an Anthropic model for instruction refinements.
type Proposer struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// ProposerOption configures a Proposer.
type ProposerOption func(*Proposer)

// WithModel overrides the default model.
func WithModel(model anthropic.Model) ProposerOption {
	return func(p *Proposer) { p.model = model }
}

// WithMaxTokens bounds the proposal length.
func WithMaxTokens(n int64) ProposerOption {
	return func(p *Proposer) { p.maxTokens = n }
}

// NewProposer creates a Proposer. With an empty apiKey the SDK falls back
// to the ANTHROPIC_API_KEY environment variable.
func NewProposer(apiKey string, opts ...ProposerOption) *Proposer {
	var clientOpts []option.RequestOption
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}

	p := &Proposer{
		client:    anthropic.NewClient(clientOpts...),
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Propose implements optimizers.InstructionProposer.
func (p *Proposer) Propose(ctx context.Context, proposal optimizers.ProposalContext) (string, error) {
	logger := logging.GetLogger()

	prompt, err := buildPrompt(proposal)
	if err != nil {
		return "", errors.Wrap(err, errors.ProposalFailed, "failed to build proposal prompt")
	}

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model: p.model,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		return "", errors.WithFields(
			errors.Wrap(err, errors.ProposalFailed, "instruction proposal request failed"),
			errors.Fields{"model": string(p.model)})
	}
	if message == nil || len(message.Content) == 0 {
		return "", errors.New(errors.ProposalFailed, "empty response from Anthropic API")
	}

	var rule string
	if block := message.Content[0]; block.Type == "text" {
		rule = strings.TrimSpace(block.Text)
	}
	if rule == "" {
		return "", errors.New(errors.ProposalFailed, "model returned no usable rule text")
	}

	logger.Debug(ctx, "proposed rule (%d prompt tokens, %d completion tokens): %s",
		message.Usage.InputTokens, message.Usage.OutputTokens, rule)

	return rule, nil
}

// buildPrompt renders the contrastive pairs into a compact instruction for
// the model. Each pair is serialized as JSON so field structure survives.
func buildPrompt(proposal optimizers.ProposalContext) (string, error) {
	var b strings.Builder

	b.WriteString("You are refining the instruction of a language program.\n")
	b.WriteString("Current instruction:\n")
	if proposal.OriginalInstruction == "" {
		b.WriteString("(none)\n")
	} else {
		fmt.Fprintf(&b, "%s\n", proposal.OriginalInstruction)
	}

	b.WriteString("\nBelow are cases where different attempts on the same input scored differently.\n")
	for i, pair := range proposal.Pairs {
		encoded, err := json.Marshal(map[string]interface{}{
			"inputs":         pair.Inputs,
			"better_outputs": pair.BetterOutputs,
			"better_score":   pair.BetterScore,
			"worse_outputs":  pair.WorseOutputs,
			"worse_score":    pair.WorseScore,
		})
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "Case %d: %s\n", i+1, encoded)
	}

	b.WriteString("\nRespond with exactly one short imperative rule that, appended to the\n")
	b.WriteString("instruction, would steer the worse outputs toward the better ones.\n")
	b.WriteString("No preamble, no numbering, just the rule.")

	return b.String(), nil
}
