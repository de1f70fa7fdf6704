package core

import "errors"

var (
	// ErrNotFound is returned when a post, revision, blueprint, brand or
	// collection does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed input detected before any
	// external call is made.
	ErrValidation = errors.New("validation failed")

	// ErrRefinementFailed wraps a failure reported by the generative service.
	ErrRefinementFailed = errors.New("refinement failed")

	// ErrStaleResult is returned when a refinement finished after the post
	// had already moved on.
	ErrStaleResult = errors.New("stale refinement result")

	ErrInvalidCollection = errors.New("invalid collection name")
)
