// Package testutil provides shared test doubles for the public packages.
package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/prompteng/teleprompt/pkg/core"
	"github.com/prompteng/teleprompt/pkg/optimizers"
	"github.com/prompteng/teleprompt/pkg/telemetry"
)

// MockProgram is a testify mock for core.Program.
type MockProgram struct {
	mock.Mock
}

func (m *MockProgram) Forward(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	args := m.Called(ctx, inputs)
	outputs, _ := args.Get(0).(map[string]interface{})
	return outputs, args.Error(1)
}

// MockProposer is a testify mock for optimizers.InstructionProposer.
type MockProposer struct {
	mock.Mock
}

func (m *MockProposer) Propose(ctx context.Context, proposal optimizers.ProposalContext) (string, error) {
	args := m.Called(ctx, proposal)
	return args.String(0), args.Error(1)
}

// MockJournal is a testify mock for optimizers.Journal.
type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) RecordRound(ctx context.Context, runID string, record optimizers.RoundRecord) error {
	args := m.Called(ctx, runID, record)
	return args.Error(0)
}

func (m *MockJournal) RecordCandidate(ctx context.Context, runID string, record optimizers.CandidateRecord) error {
	args := m.Called(ctx, runID, record)
	return args.Error(0)
}

// CapturingSink collects telemetry events for assertions.
type CapturingSink struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (s *CapturingSink) Emit(ctx context.Context, event telemetry.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a snapshot of everything emitted so far.
func (s *CapturingSink) Events() []telemetry.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]telemetry.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Phases returns the emitted phases in order.
func (s *CapturingSink) Phases() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	phases := make([]string, len(s.events))
	for i, e := range s.events {
		phases[i] = e.Phase
	}
	return phases
}

// EchoProgram returns a program that maps the "question" input straight to
// the "answer" output. Handy as an always-correct baseline.
func EchoProgram() core.Program {
	return core.ProgramFunc(func(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"answer": inputs["question"]}, nil
	})
}

// QATrainset builds n single-field question answering examples.
func QATrainset(n int) []core.Example {
	examples := make([]core.Example, n)
	for i := range examples {
		q := string(rune('a' + i%26))
		examples[i] = core.Example{
			Inputs:  map[string]interface{}{"question": q},
			Outputs: map[string]interface{}{"answer": q},
		}
	}
	return examples
}
