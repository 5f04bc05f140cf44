package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrSlotConflict is retryable from the caller's point of view:
	// choose another slot.
	ErrSlotConflict = errors.New("slot already taken")
	// ErrOutOfSchedule means the requested interval falls outside the
	// court's open hours.
	ErrOutOfSchedule = errors.New("slot outside court open hours")
	// ErrInvalidDuration means the interval is not aligned to the court's
	// slot grid or its length is not a multiple of the slot duration.
	ErrInvalidDuration = errors.New("interval not aligned to slot duration")
	// ErrRuleGap is a tenant configuration/data error: pricing could not
	// be resolved for the interval. Non-retryable.
	ErrRuleGap = errors.New("no single price rule covers the interval")
	// ErrCredential means the tenant's stored processor credential is
	// missing or undecryptable. Non-retryable until the tenant fixes it.
	ErrCredential = errors.New("tenant payment credential unusable")
)
