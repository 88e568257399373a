package plan

import "errors"

var (
	// ErrPlanNotFound and ErrUserPlanNotFound are fatal to the requested
	// operation; callers surface them without retry.
	ErrPlanNotFound     = errors.New("plan: reading plan not found")
	ErrUserPlanNotFound = errors.New("plan: user plan not found")

	// ErrInvalidAddressing marks a completion token or section id that does
	// not correspond to any unit of the plan. Rejected rather than ignored
	// so phantom completions cannot corrupt streak statistics.
	ErrInvalidAddressing = errors.New("plan: token does not address a unit of this plan")

	// ErrOutOfOrderAdvance marks an advance requested while the current
	// position's units are not all complete.
	ErrOutOfOrderAdvance = errors.New("plan: current readings not complete, cannot advance")

	// ErrStaleState is returned by storage when the caller's position record
	// lost an optimistic-concurrency race. The caller re-fetches and retries;
	// the engine never retries internally.
	ErrStaleState = errors.New("plan: user plan was modified concurrently, re-fetch and retry")

	// ErrPlanCompleted marks an advance against a plan already past its end.
	ErrPlanCompleted = errors.New("plan: plan is already completed")
)
