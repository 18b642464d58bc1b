package setup

import "errors"

var (
	// ErrInvalidTransition means the requested status change is not legal
	// from the setup's current status. Persisted state is left untouched.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSetupNotFound means no setup exists with the given id
	ErrSetupNotFound = errors.New("setup not found")

	// ErrOrderNotFound means the order a setup was started against does not exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrSetupExists means a setup was already started for the order
	ErrSetupExists = errors.New("setup already exists for this order")

	// ErrMissingEvidence means the completion form lacks a required
	// photo, speed test or signature
	ErrMissingEvidence = errors.New("missing required evidence")

	// ErrEmptyReason means reject was called without a reason
	ErrEmptyReason = errors.New("rejection reason is required")

	// ErrStepIncomplete means the current step's completion predicate
	// does not hold yet
	ErrStepIncomplete = errors.New("current step is not complete")

	// ErrNotConfirmed means the stepper reached confirmation but the
	// completion transition has not succeeded
	ErrNotConfirmed = errors.New("setup completion not confirmed")
)
