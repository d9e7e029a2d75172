package vesting

import "errors"

// Validation failures. Each leaves no partial mutation and is safe to
// retry.
var (
	// ErrInvalidParameter is returned when a schedule creation constraint
	// is violated.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInsufficientBalance is returned when a new grant is not covered
	// by the pre-funded balance.
	ErrInsufficientBalance = errors.New("insufficient pre-funded balance")

	// ErrInvalidScheduleID is returned for an out-of-range schedule id.
	ErrInvalidScheduleID = errors.New("invalid schedule id")

	// ErrScheduleRevoked is returned when releasing a revoked schedule.
	ErrScheduleRevoked = errors.New("schedule revoked")

	// ErrNothingToRelease is returned when no amount is releasable.
	ErrNothingToRelease = errors.New("nothing to release")

	// ErrNotRevocable is returned when revoking a non-revocable schedule.
	ErrNotRevocable = errors.New("schedule not revocable")

	// ErrAlreadyRevoked is returned when revoking twice.
	ErrAlreadyRevoked = errors.New("schedule already revoked")
)

// ErrUnauthorized is the authorization failure for admin-gated mutations.
var ErrUnauthorized = errors.New("unauthorized")
