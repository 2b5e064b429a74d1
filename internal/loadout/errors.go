// Package loadout builds the linear program for one gear optimization and
// decodes solver assignments back into verified loadout solutions.
package loadout

import "fmt"

// ConsistencyError represents an internal invariant violation while decoding
// a solver assignment, e.g. a nominally-integer variable sitting outside
// tolerance of a whole number. It is fatal; values are never silently
// coerced.
type ConsistencyError struct {
	Variable string
	Message  string
}

func (e *ConsistencyError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("inconsistent solver assignment: variable %s: %s", e.Variable, e.Message)
	}
	return fmt.Sprintf("inconsistent solver assignment: %s", e.Message)
}
