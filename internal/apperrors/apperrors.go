// Package apperrors holds the sentinel errors shared between services and
// handlers. Services wrap them with context via fmt.Errorf and %w; handlers
// unwrap with errors.Is to pick a status code.
package apperrors

import "errors"

var (
	// ErrNotFound: a referenced user or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput: the caller sent something unusable, e.g. a
	// non-positive calorie goal.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream: an external store or API failed. Not retried here
	// beyond the collaborator boundary's own policy; surfaced as-is.
	ErrUpstream = errors.New("upstream failure")
)
