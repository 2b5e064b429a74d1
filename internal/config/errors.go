// Package config loads the optimization profile document and resolves it
// against the game data catalog.
package config

import (
	"fmt"
	"strings"
)

// Error represents an error loading or validating the profile document
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

// ResolveError reports every profile name that does not resolve against the
// catalog. All unresolved names are collected before failing so a user can
// fix the whole document in one pass.
type ResolveError struct {
	UnknownJobs  []string
	UnknownStats []string
}

func (e *ResolveError) Error() string {
	var parts []string
	if len(e.UnknownJobs) > 0 {
		parts = append(parts, fmt.Sprintf("unknown jobs: %s", strings.Join(e.UnknownJobs, ", ")))
	}
	if len(e.UnknownStats) > 0 {
		parts = append(parts, fmt.Sprintf("unknown stats: %s", strings.Join(e.UnknownStats, ", ")))
	}
	return "profile does not match catalog: " + strings.Join(parts, "; ")
}
