package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prompteng/teleprompt/pkg/core"
)

func qa(answer string) core.Example {
	return core.Example{
		Inputs:  map[string]interface{}{"question": "q"},
		Outputs: map[string]interface{}{"answer": answer},
	}
}

func predicted(fields map[string]interface{}) core.Prediction {
	return core.Prediction{Outputs: fields}
}

func TestExactMatch(t *testing.T) {
	tests := []struct {
		name     string
		example  core.Example
		outputs  map[string]interface{}
		expected float64
	}{
		{
			name:     "identical fields",
			example:  qa("Paris"),
			outputs:  map[string]interface{}{"answer": "Paris"},
			expected: 1.0,
		},
		{
			name:     "extra predicted fields are ignored",
			example:  qa("Paris"),
			outputs:  map[string]interface{}{"answer": "Paris", "confidence": 0.9},
			expected: 1.0,
		},
		{
			name:     "wrong value",
			example:  qa("Paris"),
			outputs:  map[string]interface{}{"answer": "Lyon"},
			expected: 0.0,
		},
		{
			name:     "missing field",
			example:  qa("Paris"),
			outputs:  map[string]interface{}{"other": "Paris"},
			expected: 0.0,
		},
		{
			name:     "case sensitive",
			example:  qa("Paris"),
			outputs:  map[string]interface{}{"answer": "paris"},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExactMatch(tt.example, predicted(tt.outputs)))
		})
	}
}

func TestAnyMatch(t *testing.T) {
	example := qa("Paris")

	t.Run("scalar match", func(t *testing.T) {
		assert.Equal(t, 1.0, AnyMatch(example, predicted(map[string]interface{}{"answer": "Paris"})))
	})

	t.Run("slice containing the answer", func(t *testing.T) {
		got := predicted(map[string]interface{}{"answer": []interface{}{"Lyon", "Paris"}})
		assert.Equal(t, 1.0, AnyMatch(example, got))
	})

	t.Run("slice without the answer", func(t *testing.T) {
		got := predicted(map[string]interface{}{"answer": []interface{}{"Lyon", "Nice"}})
		assert.Equal(t, 0.0, AnyMatch(example, got))
	})

	t.Run("missing field", func(t *testing.T) {
		assert.Equal(t, 0.0, AnyMatch(example, predicted(map[string]interface{}{})))
	})
}

func TestFoldedMatch(t *testing.T) {
	t.Run("case folded strings", func(t *testing.T) {
		assert.Equal(t, 1.0, FoldedMatch(qa("PARIS"), predicted(map[string]interface{}{"answer": "paris"})))
	})

	t.Run("surrounding whitespace trimmed", func(t *testing.T) {
		assert.Equal(t, 1.0, FoldedMatch(qa("Paris"), predicted(map[string]interface{}{"answer": "  Paris \n"})))
	})

	t.Run("different strings", func(t *testing.T) {
		assert.Equal(t, 0.0, FoldedMatch(qa("Paris"), predicted(map[string]interface{}{"answer": "Lyon"})))
	})

	t.Run("non-string fields use deep equality", func(t *testing.T) {
		example := core.Example{
			Inputs:  map[string]interface{}{"q": "q"},
			Outputs: map[string]interface{}{"count": 3},
		}
		assert.Equal(t, 1.0, FoldedMatch(example, predicted(map[string]interface{}{"count": 3})))
		assert.Equal(t, 0.0, FoldedMatch(example, predicted(map[string]interface{}{"count": 4})))
	})
}

func TestF1(t *testing.T) {
	t.Run("perfect overlap", func(t *testing.T) {
		score := F1(qa("the capital is Paris"), predicted(map[string]interface{}{"answer": "the capital is Paris"}))
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("partial overlap", func(t *testing.T) {
		// 2 shared tokens, precision 2/2, recall 2/4 -> F1 = 2*1*0.5/1.5.
		score := F1(qa("the capital is Paris"), predicted(map[string]interface{}{"answer": "capital Paris"}))
		assert.InDelta(t, 2.0/3.0, score, 1e-9)
	})

	t.Run("no overlap", func(t *testing.T) {
		assert.Equal(t, 0.0, F1(qa("Paris"), predicted(map[string]interface{}{"answer": "Lyon"})))
	})

	t.Run("repeated tokens counted once each", func(t *testing.T) {
		// Expected has one "a"; predicting "a a" only credits one.
		score := F1(qa("a"), predicted(map[string]interface{}{"answer": "a a"}))
		precision, recall := 0.5, 1.0
		assert.InDelta(t, 2*precision*recall/(precision+recall), score, 1e-9)
	})

	t.Run("no comparable fields", func(t *testing.T) {
		assert.Equal(t, 0.0, F1(qa("Paris"), predicted(map[string]interface{}{"other": 1})))
	})
}
