package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/plan"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/storage"
)

const testDate = "2025-03-20"

func newTestRepos(t *testing.T) (*storage.Repositories, *internal.User) {
	dir := t.TempDir()
	logger := internal.NewZapLogger(zap.NewNop().Sugar())
	repos, fs, err := storage.NewFileRepositories(
		filepath.Join(dir, "plans.json"),
		filepath.Join(dir, "user_plans.json"),
		filepath.Join(dir, "progress.json"),
		filepath.Join(dir, "profiles.json"),
		logger,
	)
	assert.NoError(t, err)
	t.Cleanup(func() { fs.Close() })
	assert.NoError(t, storage.SeedDefaultPlans(context.Background(), repos.Plans, logger))
	return repos, &internal.User{ID: "u1", Token: "MOCK-TOKEN", Name: "Test Reader"}
}

func TestEffectiveDate(t *testing.T) {
	got, err := EffectiveDate("2025-03-20")
	assert.NoError(t, err)
	assert.Equal(t, "2025-03-20", got)

	got, err = EffectiveDate("")
	assert.NoError(t, err)
	assert.Len(t, got, 10)

	_, err = EffectiveDate("20-03-2025")
	assert.Error(t, err)
}

func TestEnrollAndListEnrollments(t *testing.T) {
	repos, user := newTestRepos(t)
	ctx := context.Background()

	up, err := EnrollInPlan(ctx, repos, user, "gospel-rotation", testDate)
	assert.NoError(t, err)
	assert.Equal(t, 1, up.CurrentDay)
	assert.Equal(t, int64(1), up.Version)
	assert.Equal(t, testDate, up.StartDate)

	active, archived, err := ListEnrollments(ctx, repos, user)
	assert.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Len(t, archived, 0)
	assert.Equal(t, "Gospel Rotation", active[0].PlanName)
	assert.Equal(t, plan.TypeCyclingLists, active[0].StructureType)
}

func TestEnrollUnknownAndInactivePlan(t *testing.T) {
	repos, user := newTestRepos(t)
	ctx := context.Background()

	_, err := EnrollInPlan(ctx, repos, user, "no-such-plan", testDate)
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)

	retired := storage.DefaultPlans()[0]
	retired.ID = "retired"
	retired.IsActive = false
	assert.NoError(t, repos.Plans.SavePlan(ctx, &retired))
	_, err = EnrollInPlan(ctx, repos, user, "retired", testDate)
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)
}

func TestTodaysReadingsHidesOtherUsersPlans(t *testing.T) {
	repos, user := newTestRepos(t)
	ctx := context.Background()

	up, err := EnrollInPlan(ctx, repos, user, "gospel-rotation", testDate)
	assert.NoError(t, err)

	other := &internal.User{ID: "u2", Name: "Someone Else"}
	_, err = TodaysReadings(ctx, repos, other, up.ID, testDate)
	assert.ErrorIs(t, err, plan.ErrUserPlanNotFound)
}

func TestToggleThenAdvanceCyclingList(t *testing.T) {
	repos, user := newTestRepos(t)
	ctx := context.Background()

	up, err := EnrollInPlan(ctx, repos, user, "gospel-rotation", testDate)
	assert.NoError(t, err)

	// Advancing before reading is out of order.
	_, _, err = Advance(ctx, repos, user, up.ID, testDate, &AdvanceRequest{ListID: "gospels"})
	assert.ErrorIs(t, err, plan.ErrOutOfOrderAdvance)

	rec, added, err := ToggleCompletion(ctx, repos, user, up.ID, testDate, &ToggleRequest{Token: plan.Token("gospels", 0)})
	assert.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"gospels:0"}, rec.CompletedSections)

	updated, outcome, err := Advance(ctx, repos, user, up.ID, testDate, &AdvanceRequest{ListID: "gospels"})
	assert.NoError(t, err)
	assert.False(t, outcome.Wrapped)
	assert.Equal(t, 1, updated.ListPositions["gospels"])
	assert.Equal(t, int64(2), updated.Version)

	// The same chapter cannot be advanced past twice.
	_, _, err = Advance(ctx, repos, user, up.ID, testDate, &AdvanceRequest{ListID: "gospels"})
	assert.ErrorIs(t, err, plan.ErrOutOfOrderAdvance)
}

func TestToggleOffRemovesToken(t *testing.T) {
	repos, user := newTestRepos(t)
	ctx := context.Background()

	up, err := EnrollInPlan(ctx, repos, user, "gospel-rotation", testDate)
	assert.NoError(t, err)

	_, added, err := ToggleCompletion(ctx, repos, user, up.ID, testDate, &ToggleRequest{Token: plan.Token("gospels", 0)})
	assert.NoError(t, err)
	assert.True(t, added)

	rec, added, err := ToggleCompletion(ctx, repos, user, up.ID, testDate, &ToggleRequest{Token: plan.Token("gospels", 0)})
	assert.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, rec.CompletedSections)
}

func TestToggleRejectsBadToken(t *testing.T) {
	repos, user := newTestRepos(t)
	ctx := context.Background()

	up, err := EnrollInPlan(ctx, repos, user, "gospel-rotation", testDate)
	assert.NoError(t, err)

	_, _, err = ToggleCompletion(ctx, repos, user, up.ID, testDate, &ToggleRequest{Token: "nonsense"})
	assert.ErrorIs(t, err, plan.ErrInvalidAddressing)
}

func TestAdvanceStaleVersion(t *testing.T) {
	repos, user := newTestRepos(t)
	ctx := context.Background()

	up, err := EnrollInPlan(ctx, repos, user, "gospel-rotation", testDate)
	assert.NoError(t, err)

	_, _, err = ToggleCompletion(ctx, repos, user, up.ID, testDate, &ToggleRequest{Token: plan.Token("gospels", 0)})
	assert.NoError(t, err)

	_, _, err = Advance(ctx, repos, user, up.ID, testDate, &AdvanceRequest{ListID: "gospels", Version: 42})
	assert.ErrorIs(t, err, plan.ErrStaleState)
}

func TestSectionalDayAdvanceAndCompletion(t *testing.T) {
	repos, user := newTestRepos(t)
	ctx := context.Background()

	up, err := EnrollInPlan(ctx, repos, user, "balanced-30", testDate)
	assert.NoError(t, err)

	// A partial day blocks the advance.
	_, _, err = ToggleCompletion(ctx, repos, user, up.ID, testDate, &ToggleRequest{Token: "d1-gospel"})
	assert.NoError(t, err)
	_, _, err = Advance(ctx, repos, user, up.ID, testDate, &AdvanceRequest{})
	assert.ErrorIs(t, err, plan.ErrOutOfOrderAdvance)

	for _, token := range []string{"d1-psalm", "d1-proverb"} {
		_, _, err = ToggleCompletion(ctx, repos, user, up.ID, testDate, &ToggleRequest{Token: token})
		assert.NoError(t, err)
	}
	rec, err := repos.Progress.GetProgress(ctx, up.ID, testDate)
	assert.NoError(t, err)
	assert.True(t, rec.IsComplete)

	updated, outcome, err := Advance(ctx, repos, user, up.ID, testDate, &AdvanceRequest{})
	assert.NoError(t, err)
	assert.False(t, outcome.PlanCompleted)
	assert.Equal(t, 2, updated.CurrentDay)
}

func TestTodaysReadingsView(t *testing.T) {
	repos, user := newTestRepos(t)
	ctx := context.Background()

	up, err := EnrollInPlan(ctx, repos, user, "gospel-rotation", testDate)
	assert.NoError(t, err)

	for _, token := range []string{plan.Token("gospels", 0), plan.Token("psalms", 0), plan.Token("proverbs", 0)} {
		_, _, err = ToggleCompletion(ctx, repos, user, up.ID, testDate, &ToggleRequest{Token: token})
		assert.NoError(t, err)
	}

	view, err := TodaysReadings(ctx, repos, user, up.ID, testDate)
	assert.NoError(t, err)
	assert.Len(t, view.Readings, 3)
	assert.Equal(t, "Matthew 1", view.Readings[0].Passage)
	assert.Equal(t, 3, view.ChaptersToday)
	assert.Equal(t, plan.DefaultStreakMinimum, view.StreakMinimum)
	assert.True(t, view.GoalMet)
	assert.Equal(t, 1, view.DaysOnPlan)
	assert.Equal(t, 0, view.DaysAheadBehind)
}

func TestArchiveDropsFromActive(t *testing.T) {
	repos, user := newTestRepos(t)
	ctx := context.Background()

	up, err := EnrollInPlan(ctx, repos, user, "gospel-rotation", testDate)
	assert.NoError(t, err)

	archivedPlan, err := SetArchived(ctx, repos, user, up.ID, true)
	assert.NoError(t, err)
	assert.True(t, archivedPlan.IsArchived)

	active, archived, err := ListEnrollments(ctx, repos, user)
	assert.NoError(t, err)
	assert.Len(t, active, 0)
	assert.Len(t, archived, 1)

	restored, err := SetArchived(ctx, repos, user, up.ID, false)
	assert.NoError(t, err)
	assert.False(t, restored.IsArchived)
}

func TestComputeUserStats(t *testing.T) {
	repos, user := newTestRepos(t)
	ctx := context.Background()

	up, err := EnrollInPlan(ctx, repos, user, "gospel-rotation", testDate)
	assert.NoError(t, err)

	// Three chapters on each of the two days before testDate, plus testDate.
	dates := []string{"2025-03-18", "2025-03-19", testDate}
	for _, date := range dates {
		for _, list := range []string{"gospels", "psalms", "proverbs"} {
			_, _, err = ToggleCompletion(ctx, repos, user, up.ID, date, &ToggleRequest{Token: plan.Token(list, 0)})
			assert.NoError(t, err)
		}
	}

	stats, err := ComputeUserStats(ctx, repos, user, testDate)
	assert.NoError(t, err)
	assert.Equal(t, 9, stats.TotalChaptersRead)
	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 3, stats.LongestStreak)
	assert.Equal(t, 3, stats.TotalDaysReading)
	assert.Equal(t, 1, stats.PlansActive)
	assert.Equal(t, 0, stats.PlansCompleted)
	assert.Equal(t, plan.RankRecruit, stats.Rank)
	assert.Equal(t, plan.RankSoldier, stats.NextRank)
	assert.Equal(t, 4, stats.DaysToNextRank)
}

func TestProfileDefaultsAndUpdate(t *testing.T) {
	repos, user := newTestRepos(t)
	ctx := context.Background()

	profile, err := GetProfile(ctx, repos, user)
	assert.NoError(t, err)
	assert.Equal(t, plan.DefaultStreakMinimum, profile.StreakMinimum)
	assert.Equal(t, user.Name, profile.DisplayName)

	updated, err := UpdateProfile(ctx, repos, user, &ProfileRequest{StreakMinimum: 5})
	assert.NoError(t, err)
	assert.Equal(t, 5, updated.StreakMinimum)

	// The raised threshold changes what counts as a qualifying day.
	up, err := EnrollInPlan(ctx, repos, user, "gospel-rotation", testDate)
	assert.NoError(t, err)
	for _, list := range []string{"gospels", "psalms", "proverbs"} {
		_, _, err = ToggleCompletion(ctx, repos, user, up.ID, testDate, &ToggleRequest{Token: plan.Token(list, 0)})
		assert.NoError(t, err)
	}
	stats, err := ComputeUserStats(ctx, repos, user, testDate)
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.CurrentStreak)
}

func TestValidateRequests(t *testing.T) {
	assert.Error(t, ValidateToggleRequest(&ToggleRequest{}))
	assert.NoError(t, ValidateToggleRequest(&ToggleRequest{Token: "gospels:0"}))
	assert.Error(t, ValidateToggleRequest(&ToggleRequest{Token: "gospels:0", Date: "bad"}))

	assert.NoError(t, ValidateAdvanceRequest(&AdvanceRequest{}))
	assert.NoError(t, ValidateAdvanceRequest(&AdvanceRequest{ListID: "gospels", Date: "2025-03-20", Version: 3}))

	assert.Error(t, ValidateProfileRequest(&ProfileRequest{StreakMinimum: 0}))
	assert.Error(t, ValidateProfileRequest(&ProfileRequest{StreakMinimum: 101}))
	assert.NoError(t, ValidateProfileRequest(&ProfileRequest{StreakMinimum: 3}))
}
