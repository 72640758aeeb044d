package datasets

import (
	"errors"
	"fmt"
)

var errMissingFields = errors.New("record needs non-empty inputs and outputs")

// LoadError reports a malformed record with its line number.
type LoadError struct {
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
