// Package datasets provides loaders and helpers for building trainsets:
// an in-memory dataset, a JSONL loader and a parquet loader for question
// answering corpora published in columnar form.
package datasets

import (
	"math/rand"

	"github.com/prompteng/teleprompt/pkg/core"
)

// InMemoryDataset is a slice-backed core.Dataset.
type InMemoryDataset struct {
	examples []core.Example
	pos      int
}

// NewInMemoryDataset wraps the given examples. The slice is not copied.
func NewInMemoryDataset(examples []core.Example) *InMemoryDataset {
	return &InMemoryDataset{examples: examples}
}

func (d *InMemoryDataset) Next() (core.Example, bool) {
	if d.pos >= len(d.examples) {
		return core.Example{}, false
	}
	example := d.examples[d.pos]
	d.pos++
	return example, true
}

func (d *InMemoryDataset) Reset() { d.pos = 0 }

// Len reports the total number of examples regardless of iterator position.
func (d *InMemoryDataset) Len() int { return len(d.examples) }

// Split shuffles examples with the given rng and cuts them into a train and
// test slice, with fraction (0,1) going to test. The input is not modified.
func Split(examples []core.Example, fraction float64, rng *rand.Rand) (train, test []core.Example) {
	shuffled := make([]core.Example, len(examples))
	copy(shuffled, examples)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	testSize := int(float64(len(shuffled)) * fraction)
	return shuffled[testSize:], shuffled[:testSize]
}
