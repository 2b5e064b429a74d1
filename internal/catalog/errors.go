// Package catalog loads the game data document and derives the filtered
// candidate pools the optimizer runs on.
package catalog

import "fmt"

// Error represents an error that occurs while loading or filtering game data
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}
