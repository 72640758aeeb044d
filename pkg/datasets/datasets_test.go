package datasets

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompteng/teleprompt/pkg/core"
)

func someExamples(n int) []core.Example {
	examples := make([]core.Example, n)
	for i := range examples {
		examples[i] = core.Example{
			Inputs:  map[string]interface{}{"question": i},
			Outputs: map[string]interface{}{"answer": i},
		}
	}
	return examples
}

func TestInMemoryDataset(t *testing.T) {
	d := NewInMemoryDataset(someExamples(3))
	assert.Equal(t, 3, d.Len())

	collected := core.Collect(d)
	require.Len(t, collected, 3)
	assert.Equal(t, 0, collected[0].Inputs["question"])
	assert.Equal(t, 2, collected[2].Inputs["question"])

	// Exhausted iterator keeps returning false until Reset.
	_, ok := d.Next()
	assert.False(t, ok)
	d.Reset()
	_, ok = d.Next()
	assert.True(t, ok)
}

func TestSplit(t *testing.T) {
	examples := someExamples(10)
	rng := rand.New(rand.NewSource(1))

	train, test := Split(examples, 0.3, rng)
	assert.Len(t, train, 7)
	assert.Len(t, test, 3)

	// Every original example lands in exactly one side.
	seen := map[interface{}]bool{}
	for _, e := range append(train, test...) {
		seen[e.Inputs["question"]] = true
	}
	assert.Len(t, seen, 10)

	// Input order untouched.
	assert.Equal(t, 0, examples[0].Inputs["question"])
	assert.Equal(t, 9, examples[9].Inputs["question"])
}

func TestReadJSONL(t *testing.T) {
	t.Run("valid records", func(t *testing.T) {
		input := `{"inputs": {"question": "a"}, "outputs": {"answer": "A"}}

{"inputs": {"question": "b"}, "outputs": {"answer": "B"}}
`
		examples, err := ReadJSONL(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, examples, 2)
		assert.Equal(t, "a", examples[0].Inputs["question"])
		assert.Equal(t, "B", examples[1].Outputs["answer"])
	})

	t.Run("malformed json reports line", func(t *testing.T) {
		input := `{"inputs": {"question": "a"}, "outputs": {"answer": "A"}}
not json`
		_, err := ReadJSONL(strings.NewReader(input))
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, 2, loadErr.Line)
	})

	t.Run("missing outputs rejected", func(t *testing.T) {
		_, err := ReadJSONL(strings.NewReader(`{"inputs": {"question": "a"}}`))
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, 1, loadErr.Line)
	})

	t.Run("empty input yields no examples", func(t *testing.T) {
		examples, err := ReadJSONL(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, examples)
	})
}
