package core

// Example represents a single training/evaluation example. Examples are
// treated as immutable once constructed: the engine only ever reads them.
type Example struct {
	Inputs   map[string]interface{}
	Outputs  map[string]interface{}
	Metadata map[string]interface{}
}

// Valid reports whether the example carries both an input and an output map.
func (e Example) Valid() bool {
	return e.Inputs != nil && e.Outputs != nil
}

// Prediction is the output of a single Program.Forward call.
type Prediction struct {
	Outputs map[string]interface{}
	// Usage carries optional cost/usage metadata reported by the program.
	Usage map[string]interface{}
}

// Metric scores a prediction against its gold example. Metrics must be
// pure and fast; a panicking metric is treated as a per-example error by
// the evaluation engine, never as a systemic fault.
type Metric func(example Example, prediction Prediction) float64
