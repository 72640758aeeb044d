package core

// Dataset represents a collection of examples for training/evaluation.
type Dataset interface {
	// Next returns the next example in the dataset
	Next() (Example, bool)
	// Reset resets the dataset iterator
	Reset()
}

// Collect drains a dataset into a slice, resetting it first.
func Collect(d Dataset) []Example {
	d.Reset()
	var examples []Example
	for {
		example, ok := d.Next()
		if !ok {
			break
		}
		examples = append(examples, example)
	}
	return examples
}
