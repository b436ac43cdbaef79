package models

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Controllers map these onto HTTP codes; services wrap
// them with context via fmt.Errorf("...: %w", err).
var (
	// ErrValidation marks malformed input (bad date range, non-positive price
	// or guest count). Never retried.
	ErrValidation = errors.New("validation_failed")

	// ErrConflict means the requested date range is no longer available at
	// commit time. The caller must re-quote.
	ErrConflict = errors.New("dates_unavailable")

	// ErrState marks a transition requested from a state that forbids it.
	// The booking is left untouched.
	ErrState = errors.New("invalid_state")

	// ErrSignature marks a webhook callback that failed the authenticity
	// check. Logged and dropped, zero state change.
	ErrSignature = errors.New("invalid_signature")

	// ErrGatewayUnavailable marks a transient failure talking to the payment
	// gateway. Retried with bounded backoff by the orchestrator.
	ErrGatewayUnavailable = errors.New("gateway_unavailable")

	// ErrVersionConflict means a compare-and-set on (booking_id, version)
	// lost the race. Internal; callers reload and retry.
	ErrVersionConflict = errors.New("version_conflict")

	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("not_found")
)

func ValidationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func StateErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrState)...)
}
