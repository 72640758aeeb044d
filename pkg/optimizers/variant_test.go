package optimizers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompteng/teleprompt/pkg/core"
)

func TestVariantRunningScore(t *testing.T) {
	v := NewBaselineVariant("answer briefly")
	assert.Equal(t, 0.0, v.RunningScore())
	assert.Equal(t, 0, v.Observations())

	v.ObserveScore(0.4)
	v.ObserveScore(0.8)
	assert.InDelta(t, 0.6, v.RunningScore(), 1e-9)
	assert.Equal(t, 2, v.Observations())
}

func TestVariantChild(t *testing.T) {
	parent := NewBaselineVariant("base instruction")
	demos := []core.Example{{
		Inputs:  map[string]interface{}{"q": "x"},
		Outputs: map[string]interface{}{"a": "y"},
	}}

	child := parent.Child("refined instruction", demos, "append_demonstration")

	assert.NotEqual(t, parent.ID, child.ID)
	assert.Equal(t, 1, child.Generation)
	assert.Equal(t, "refined instruction", child.Instruction)
	assert.Equal(t, "append_demonstration", child.Origin)
	assert.Equal(t, 0, child.Observations())
	assert.False(t, child.IsBaseline())

	// The demo slice is copied, not shared.
	demos[0] = core.Example{}
	require.Len(t, child.Demos, 1)
	assert.NotNil(t, child.Demos[0].Inputs)
}

type recordingTunable struct {
	instruction string
	demos       []core.Example
}

func (p *recordingTunable) Forward(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"instruction": p.instruction, "demos": len(p.demos)}, nil
}

func (p *recordingTunable) WithPrompt(instruction string, demos []core.Example) core.Program {
	return &recordingTunable{instruction: instruction, demos: demos}
}

func TestVariantMaterialize(t *testing.T) {
	base := &recordingTunable{}
	v := NewBaselineVariant("be concise")
	v.Demos = []core.Example{{Inputs: map[string]interface{}{}, Outputs: map[string]interface{}{}}}

	program := v.Materialize(base)
	out, err := program.Forward(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "be concise", out["instruction"])
	assert.Equal(t, 1, out["demos"])
}

func TestVariantMaterializeNonTunable(t *testing.T) {
	base := core.ProgramFunc(func(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"ok": true}, nil
	})
	v := NewBaselineVariant("ignored")

	program := v.Materialize(base)
	out, err := program.Forward(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, true, out["ok"])
}
