package core

import "context"

// Program is the unit the evaluation engine and the teleprompter operate
// on: given a map of input fields it produces a map of output fields.
// Implementations must be safe to invoke concurrently from independent
// calls; they must not share mutable state between invocations unless they
// synchronize it themselves.
type Program interface {
	Forward(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error)
}

// ProgramFunc adapts a plain function to the Program interface.
type ProgramFunc func(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error)

func (f ProgramFunc) Forward(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	return f(ctx, inputs)
}

// Tunable is implemented by programs whose prompt can be reconfigured.
// WithPrompt returns a copy of the program carrying the given instruction
// and demonstration set; the receiver is left untouched. Programs that are
// not Tunable are executed unmodified by every variant.
type Tunable interface {
	Program
	WithPrompt(instruction string, demos []Example) Program
}
