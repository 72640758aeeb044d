package optimizers

import (
	"github.com/google/uuid"

	"github.com/prompteng/teleprompt/pkg/core"
)

// Variant is one candidate configuration of the student program: an
// instruction and an ordered demonstration set, plus the running average
// score observed across evaluation rounds.
//
// Score updates are single-writer: only the optimization loop observes new
// scores, strictly between rounds, so the running average needs no lock.
// Concurrent workers only read variants while no writer is active.
type Variant struct {
	ID          string
	Generation  int
	Instruction string
	Demos       []core.Example

	// Strategy that produced this variant, empty for the baseline.
	Origin string

	scoreSum   float64
	scoreCount int

	// insertion order within the pool, used as the final tie-break
	order int
}

// NewBaselineVariant creates the distinguished generation-0 variant that
// the pool must never evict.
func NewBaselineVariant(instruction string) *Variant {
	return &Variant{
		ID:          uuid.New().String(),
		Generation:  0,
		Instruction: instruction,
	}
}

// Child derives a new variant from v with the given prompt state. The
// child starts with an empty score history.
func (v *Variant) Child(instruction string, demos []core.Example, origin string) *Variant {
	demosCopy := make([]core.Example, len(demos))
	copy(demosCopy, demos)
	return &Variant{
		ID:          uuid.New().String(),
		Generation:  v.Generation + 1,
		Instruction: instruction,
		Demos:       demosCopy,
		Origin:      origin,
	}
}

// ObserveScore appends a new round score to the running average. Past
// history is never edited.
func (v *Variant) ObserveScore(score float64) {
	v.scoreSum += score
	v.scoreCount++
}

// RunningScore is the arithmetic mean of all observed round scores, 0.0
// when nothing has been observed yet.
func (v *Variant) RunningScore() float64 {
	if v.scoreCount == 0 {
		return 0.0
	}
	return v.scoreSum / float64(v.scoreCount)
}

// Observations returns how many round scores have been folded in.
func (v *Variant) Observations() int {
	return v.scoreCount
}

// IsBaseline reports whether this is the generation-0 variant.
func (v *Variant) IsBaseline() bool {
	return v.Generation == 0
}

// Materialize applies the variant's prompt state to the base program.
// Programs that are not Tunable run unmodified; the variant then only
// differs in bookkeeping.
func (v *Variant) Materialize(base core.Program) core.Program {
	if tunable, ok := base.(core.Tunable); ok {
		return tunable.WithPrompt(v.Instruction, v.Demos)
	}
	return base
}
