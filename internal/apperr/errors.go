// Package apperr holds sentinel errors shared across packages. Callers wrap
// them with context and test with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound marks a missing package, run or candidate.
	ErrNotFound = errors.New("not found")
	// ErrConfig marks a fatal configuration problem such as a missing
	// database or input file.
	ErrConfig = errors.New("configuration error")
	// ErrInvalid marks malformed input rejected before any work is done.
	ErrInvalid = errors.New("invalid input")
)
