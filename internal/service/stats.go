package service

import (
	"context"
	"time"

	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/plan"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/storage"
)

// streakMinimumFor reads the user's configured threshold, falling back to
// the engine default when the profile is missing or misconfigured.
func streakMinimumFor(ctx context.Context, repos *storage.Repositories, userID string) int {
	profile, err := repos.Profiles.GetProfile(ctx, userID)
	if err != nil || profile == nil || profile.StreakMinimum <= 0 {
		return plan.DefaultStreakMinimum
	}
	return profile.StreakMinimum
}

// ComputeUserStats derives the whole stats block from the user's progress
// history. Records from different plans contribute to the same calendar
// dates; chapter counts follow each plan's structure semantics.
func ComputeUserStats(ctx context.Context, repos *storage.Repositories, user *internal.User, today string) (*internal.UserStats, error) {
	ups, err := repos.UserPlans.ListUserPlans(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	records, err := repos.Progress.ListProgressByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	structures := make(map[string]plan.DailyStructure, len(ups)) // userPlanID -> structure
	stats := &internal.UserStats{}
	for _, up := range ups {
		p, err := repos.Plans.GetPlan(ctx, up.PlanID)
		if err != nil {
			return nil, err
		}
		structures[up.ID] = p.DailyStructure
		if up.IsCompleted {
			stats.PlansCompleted++
		} else if !up.IsArchived {
			stats.PlansActive++
		}
	}

	chaptersByDate := make(map[string]int)
	for _, rec := range records {
		s, ok := structures[rec.UserPlanID]
		if !ok {
			continue
		}
		chapters := plan.QualifyingChapters(s, rec.CompletedSections)
		chaptersByDate[rec.Date] += chapters
		stats.TotalChaptersRead += chapters
	}

	minimum := streakMinimumFor(ctx, repos, user.ID)
	streaks := plan.ComputeStreaks(chaptersByDate, minimum, today)
	stats.CurrentStreak = streaks.CurrentStreak
	stats.LongestStreak = streaks.LongestStreak
	stats.TotalDaysReading = streaks.QualifyingDays

	rank := plan.Rank(streaks.CurrentStreak)
	stats.Rank = rank.Rank
	stats.NextRank = rank.NextRank
	stats.DaysToNextRank = rank.DaysToNext
	return stats, nil
}

type ProfileRequest struct {
	DisplayName   string `json:"display_name" validate:"omitempty,max=64"`
	StreakMinimum int    `json:"streak_minimum" validate:"required,gte=1,lte=100"`
}

func ValidateProfileRequest(req *ProfileRequest) error {
	return validate.Struct(req)
}

// GetProfile returns the stored profile or a default one for first-time
// users.
func GetProfile(ctx context.Context, repos *storage.Repositories, user *internal.User) (*internal.Profile, error) {
	profile, err := repos.Profiles.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &internal.Profile{
			UserID:        user.ID,
			DisplayName:   user.Name,
			StreakMinimum: plan.DefaultStreakMinimum,
		}
	}
	return profile, nil
}

func UpdateProfile(ctx context.Context, repos *storage.Repositories, user *internal.User, req *ProfileRequest) (*internal.Profile, error) {
	profile, err := GetProfile(ctx, repos, user)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if req.DisplayName != "" {
		profile.DisplayName = req.DisplayName
	}
	profile.StreakMinimum = req.StreakMinimum
	profile.UpdatedAt = now
	if err := repos.Profiles.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
