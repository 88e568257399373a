package storage

import (
	"context"

	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
)

type PlanRepository interface {
	// GetPlan returns plan.ErrPlanNotFound for unknown ids. Plans are
	// immutable post-publication, so results are cacheable indefinitely.
	GetPlan(ctx context.Context, planID string) (*internal.ReadingPlan, error)
	ListPlans(ctx context.Context) ([]internal.ReadingPlan, error)
	SavePlan(ctx context.Context, p *internal.ReadingPlan) error
}

type UserPlanRepository interface {
	CreateUserPlan(ctx context.Context, up *internal.UserPlan) error
	// GetUserPlan returns plan.ErrUserPlanNotFound for unknown ids.
	GetUserPlan(ctx context.Context, userPlanID string) (*internal.UserPlan, error)
	ListUserPlans(ctx context.Context, userID string) ([]internal.UserPlan, error)
	// UpdateUserPlan applies the update only when the stored version still
	// equals expectedVersion, returning plan.ErrStaleState otherwise. On
	// success the stored (and passed) version is bumped by one.
	UpdateUserPlan(ctx context.Context, up *internal.UserPlan, expectedVersion int64) error
}

type ProgressRepository interface {
	// GetProgress returns (nil, nil) when no record exists for the date;
	// a missing record is a normal non-reading day, not an error.
	GetProgress(ctx context.Context, userPlanID, date string) (*internal.DailyProgress, error)
	ListProgressByUser(ctx context.Context, userID string) ([]internal.DailyProgress, error)
	// UpsertProgress keys on (user plan, date): the first write for a date
	// creates the record, later writes mutate it. Never duplicates.
	UpsertProgress(ctx context.Context, rec *internal.DailyProgress) error
}

type ProfileRepository interface {
	// GetProfile returns (nil, nil) when the user has no stored profile;
	// callers fall back to defaults.
	GetProfile(ctx context.Context, userID string) (*internal.Profile, error)
	UpsertProfile(ctx context.Context, p *internal.Profile) error
}

// MutationStore commits an advance as one atomic operation: the user-plan
// position update (version-checked) together with the day's progress
// record. Either both land or neither does.
type MutationStore interface {
	ApplyMutation(ctx context.Context, up *internal.UserPlan, expectedVersion int64, rec *internal.DailyProgress) error
}
