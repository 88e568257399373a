package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/plan"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Date is the YYYY-MM-DD calendar day the client reports as its local
// date. The stored string is authoritative for streaks, so the client's
// own calendar wins over server time whenever it is supplied.
func EffectiveDate(date string) (string, error) {
	if date == "" {
		return time.Now().Format(plan.DateLayout), nil
	}
	if _, err := time.Parse(plan.DateLayout, date); err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
	}
	return date, nil
}

func positionOf(up *internal.UserPlan) plan.Position {
	pos := plan.Position{CurrentDay: up.CurrentDay, ListPositions: up.ListPositions}
	if pos.ListPositions == nil {
		pos.ListPositions = map[string]int{}
	}
	return pos
}

func applyPosition(up *internal.UserPlan, pos plan.Position) {
	up.CurrentDay = pos.CurrentDay
	up.ListPositions = pos.ListPositions
}

// loadOwnedUserPlan fetches a user plan and hides other users' plans
// behind not-found.
func loadOwnedUserPlan(ctx context.Context, repos *storage.Repositories, user *internal.User, userPlanID string) (*internal.UserPlan, error) {
	up, err := repos.UserPlans.GetUserPlan(ctx, userPlanID)
	if err != nil {
		return nil, err
	}
	if up.UserID != user.ID {
		return nil, plan.ErrUserPlanNotFound
	}
	return up, nil
}

// EnrollInPlan creates a fresh enrollment: day 1, every list at its start.
func EnrollInPlan(ctx context.Context, repos *storage.Repositories, user *internal.User, planID, today string) (*internal.UserPlan, error) {
	p, err := repos.Plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, plan.ErrPlanNotFound
	}
	up := &internal.UserPlan{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		PlanID:        p.ID,
		StartDate:     today,
		CurrentDay:    1,
		ListPositions: map[string]int{},
		Version:       1,
		CreatedAt:     time.Now(),
	}
	if err := repos.UserPlans.CreateUserPlan(ctx, up); err != nil {
		return nil, err
	}
	return up, nil
}

// EnrollmentView is one user plan joined with its catalog entry, for
// listing.
type EnrollmentView struct {
	UserPlan      internal.UserPlan        `json:"user_plan"`
	PlanName      string                   `json:"plan_name"`
	StructureType string                   `json:"structure_type"`
	Percent       int                      `json:"percent"`
	CycleProgress []plan.ListCycleProgress `json:"cycle_progress,omitempty"`
}

func ListEnrollments(ctx context.Context, repos *storage.Repositories, user *internal.User) (active, archived []EnrollmentView, err error) {
	ups, err := repos.UserPlans.ListUserPlans(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	active, archived = []EnrollmentView{}, []EnrollmentView{}
	for _, up := range ups {
		p, err := repos.Plans.GetPlan(ctx, up.PlanID)
		if err != nil {
			return nil, nil, err
		}
		up := up
		view := EnrollmentView{
			UserPlan:      up,
			PlanName:      p.Name,
			StructureType: p.DailyStructure.Type(),
			Percent:       plan.PercentComplete(positionOf(&up), p.DurationDays),
			CycleProgress: plan.CycleProgress(p.DailyStructure, positionOf(&up)),
		}
		if up.IsArchived {
			archived = append(archived, view)
		} else {
			active = append(active, view)
		}
	}
	return active, archived, nil
}

// TodayView is everything the active-plan screen needs for one date.
type TodayView struct {
	UserPlan        internal.UserPlan        `json:"user_plan"`
	PlanName        string                   `json:"plan_name"`
	StructureType   string                   `json:"structure_type"`
	DurationDays    int                      `json:"duration_days"`
	Date            string                   `json:"date"`
	Readings        []plan.ReadingUnit       `json:"readings"`
	ChaptersToday   int                      `json:"chapters_today"`
	StreakMinimum   int                      `json:"streak_minimum"`
	GoalMet         bool                     `json:"goal_met"`
	Percent         int                      `json:"percent"`
	CycleProgress   []plan.ListCycleProgress `json:"cycle_progress,omitempty"`
	DaysOnPlan      int                      `json:"days_on_plan"`
	DaysAheadBehind int                      `json:"days_ahead_behind"`
}

func TodaysReadings(ctx context.Context, repos *storage.Repositories, user *internal.User, userPlanID, today string) (*TodayView, error) {
	up, err := loadOwnedUserPlan(ctx, repos, user, userPlanID)
	if err != nil {
		return nil, err
	}
	p, err := repos.Plans.GetPlan(ctx, up.PlanID)
	if err != nil {
		return nil, err
	}
	rec, err := repos.Progress.GetProgress(ctx, up.ID, today)
	if err != nil {
		return nil, err
	}
	var sections []string
	if rec != nil {
		sections = rec.CompletedSections
	}
	pos := positionOf(up)
	minimum := streakMinimumFor(ctx, repos, user.ID)

	chaptersToday := plan.QualifyingChapters(p.DailyStructure, sections)
	view := &TodayView{
		UserPlan:      *up,
		PlanName:      p.Name,
		StructureType: p.DailyStructure.Type(),
		DurationDays:  p.DurationDays,
		Date:          today,
		Readings:      plan.Resolve(p.DailyStructure, pos, sections),
		ChaptersToday: chaptersToday,
		StreakMinimum: minimum,
		GoalMet:       chaptersToday >= minimum,
		Percent:       plan.PercentComplete(pos, p.DurationDays),
		CycleProgress: plan.CycleProgress(p.DailyStructure, pos),
	}
	view.DaysOnPlan, view.DaysAheadBehind = daysOnPlan(up, today)
	return view, nil
}

// daysOnPlan counts elapsed calendar days since enrollment, day 1 being
// the start date, and how far the plan position runs ahead of or behind
// the calendar.
func daysOnPlan(up *internal.UserPlan, today string) (days, aheadBehind int) {
	start, err1 := time.Parse(plan.DateLayout, up.StartDate)
	now, err2 := time.Parse(plan.DateLayout, today)
	if err1 != nil || err2 != nil {
		return 1, 0
	}
	days = int(now.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days, up.CurrentDay - days
}

type ToggleRequest struct {
	Token string `json:"token" validate:"required"`
	Date  string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func ValidateToggleRequest(req *ToggleRequest) error {
	return validate.Struct(req)
}

// ToggleCompletion marks or unmarks one reading unit for the day,
// creating the day's record on first use. The record is keyed by date, so
// repeated events on the same day mutate one row.
func ToggleCompletion(ctx context.Context, repos *storage.Repositories, user *internal.User, userPlanID, today string, req *ToggleRequest) (*internal.DailyProgress, bool, error) {
	up, err := loadOwnedUserPlan(ctx, repos, user, userPlanID)
	if err != nil {
		return nil, false, err
	}
	p, err := repos.Plans.GetPlan(ctx, up.PlanID)
	if err != nil {
		return nil, false, err
	}
	rec, err := repos.Progress.GetProgress(ctx, up.ID, today)
	if err != nil {
		return nil, false, err
	}
	if rec == nil {
		rec = &internal.DailyProgress{
			UserID:     user.ID,
			UserPlanID: up.ID,
			Date:       today,
		}
	}

	pos := positionOf(up)
	sections, added, err := plan.Toggle(p.DailyStructure, pos, req.Token, rec.CompletedSections)
	if err != nil {
		return nil, false, err
	}
	rec.CompletedSections = sections
	if _, ok := p.DailyStructure.(plan.CyclingLists); !ok {
		rec.IsComplete = plan.AllComplete(p.DailyStructure, pos, sections)
	}
	if err := repos.Progress.UpsertProgress(ctx, rec); err != nil {
		return nil, false, err
	}
	return rec, added, nil
}

type AdvanceRequest struct {
	// ListID selects the cycling list to advance; empty means a day
	// advance on a sequential or sectional plan.
	ListID string `json:"list_id" validate:"omitempty"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	// Version is the user-plan version the client last read. Zero means
	// "whatever was current when this request loaded the plan"; passing it
	// makes the stale-state check span the whole client round trip.
	Version int64 `json:"version" validate:"omitempty,gte=0"`
}

func ValidateAdvanceRequest(req *AdvanceRequest) error {
	return validate.Struct(req)
}

// AdvanceOutcome reports what an advance did beyond moving the position.
type AdvanceOutcome struct {
	Wrapped       bool `json:"wrapped"`
	PlanCompleted bool `json:"plan_completed"`
}

// Advance moves the plan position forward once the engine agrees the
// current readings are complete, and commits position plus day record as
// one atomic, version-checked write. A lost race surfaces as
// plan.ErrStaleState; the client re-fetches and retries.
func Advance(ctx context.Context, repos *storage.Repositories, user *internal.User, userPlanID, today string, req *AdvanceRequest) (*internal.UserPlan, *AdvanceOutcome, error) {
	up, err := loadOwnedUserPlan(ctx, repos, user, userPlanID)
	if err != nil {
		return nil, nil, err
	}
	p, err := repos.Plans.GetPlan(ctx, up.PlanID)
	if err != nil {
		return nil, nil, err
	}
	rec, err := repos.Progress.GetProgress(ctx, up.ID, today)
	if err != nil {
		return nil, nil, err
	}
	var sections []string
	if rec != nil {
		sections = rec.CompletedSections
	}

	pos := positionOf(up)
	outcome := &AdvanceOutcome{}
	var res plan.AdvanceResult
	if _, ok := p.DailyStructure.(plan.CyclingLists); ok {
		res, err = plan.AdvanceList(p.DailyStructure, pos, req.ListID, sections)
	} else {
		res, err = plan.AdvanceDay(p.DailyStructure, pos, p.DurationDays, sections)
	}
	if err != nil {
		return nil, nil, err
	}
	applyPosition(up, res.Position)
	outcome.Wrapped = res.Wrapped
	outcome.PlanCompleted = res.PlanCompleted
	if res.PlanCompleted {
		now := time.Now()
		up.IsCompleted = true
		up.CompletedAt = &now
	}
	if rec != nil {
		if _, ok := p.DailyStructure.(plan.CyclingLists); !ok {
			rec.IsComplete = true
		}
	}

	expected := req.Version
	if expected == 0 {
		expected = up.Version
	}
	if err := repos.Mutations.ApplyMutation(ctx, up, expected, rec); err != nil {
		return nil, nil, err
	}
	return up, outcome, nil
}

// SetArchived shelves or restores an enrollment. Archived plans keep all
// progress and drop out of active counts.
func SetArchived(ctx context.Context, repos *storage.Repositories, user *internal.User, userPlanID string, archived bool) (*internal.UserPlan, error) {
	up, err := loadOwnedUserPlan(ctx, repos, user, userPlanID)
	if err != nil {
		return nil, err
	}
	if up.IsArchived == archived {
		return up, nil
	}
	up.IsArchived = archived
	if err := repos.UserPlans.UpdateUserPlan(ctx, up, up.Version); err != nil {
		return nil, err
	}
	return up, nil
}
