package internal

import (
	"encoding/json"
	"time"

	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/plan"
)

type User struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
}

// Profile holds per-user settings and display data. StreakMinimum is the
// number of chapters a day must reach to count toward the streak.
type Profile struct {
	UserID        string    `json:"user_id"`
	DisplayName   string    `json:"display_name,omitempty"`
	StreakMinimum int       `json:"streak_minimum"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ReadingPlan is a catalog entry. Plans are authored content and never
// mutated after publication.
type ReadingPlan struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description,omitempty"`
	DurationDays   int                 `json:"duration_days"` // 0 for open-ended
	DailyStructure plan.DailyStructure `json:"daily_structure"`
	IsActive       bool                `json:"is_active"`
	CreatedAt      time.Time           `json:"created_at"`
}

// UnmarshalJSON decodes the daily_structure union by its type tag. The
// generated encoder handles marshaling; decoding an interface field needs
// the explicit dispatch.
func (p *ReadingPlan) UnmarshalJSON(data []byte) error {
	type alias ReadingPlan
	aux := struct {
		*alias
		DailyStructure json.RawMessage `json:"daily_structure"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.DailyStructure) > 0 && string(aux.DailyStructure) != "null" {
		s, err := plan.UnmarshalStructure(aux.DailyStructure)
		if err != nil {
			return err
		}
		p.DailyStructure = s
	}
	return nil
}

// UserPlan is a user's enrollment in a ReadingPlan. Version backs the
// optimistic-concurrency check on mutations.
type UserPlan struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	PlanID        string         `json:"plan_id"`
	StartDate     string         `json:"start_date"` // YYYY-MM-DD, user's local day
	CurrentDay    int            `json:"current_day"`
	ListPositions map[string]int `json:"list_positions,omitempty"`
	IsCompleted   bool           `json:"is_completed"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	IsArchived    bool           `json:"is_archived"`
	Version       int64          `json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
}

// DailyProgress is the one record per (user plan, local calendar date).
// Date is a YYYY-MM-DD string attached at write time; it is authoritative
// and no timezone math is done on it afterwards.
type DailyProgress struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	UserPlanID        string    `json:"user_plan_id"`
	Date              string    `json:"date"`
	CompletedSections []string  `json:"completed_sections"`
	IsComplete        bool      `json:"is_complete"` // non-cycling plans only
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type UserStats struct {
	TotalChaptersRead int    `json:"total_chapters_read"`
	CurrentStreak     int    `json:"current_streak"`
	LongestStreak     int    `json:"longest_streak"`
	PlansCompleted    int    `json:"plans_completed"`
	PlansActive       int    `json:"plans_active"`
	TotalDaysReading  int    `json:"total_days_reading"`
	Rank              string `json:"rank"`
	NextRank          string `json:"next_rank,omitempty"`
	DaysToNextRank    int    `json:"days_to_next_rank"`
}
