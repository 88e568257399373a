package plan

import (
	"sort"
	"time"
)

// DateLayout is the calendar-date format used throughout progress records.
const DateLayout = "2006-01-02"

// DefaultStreakMinimum is the chapters-per-day threshold applied when a
// profile carries a missing or non-positive streak minimum. Streak display
// degrades to the default rather than erroring.
const DefaultStreakMinimum = 3

// StreakStats is the derived streak state for a user's whole history.
type StreakStats struct {
	CurrentStreak  int `json:"current_streak"`
	LongestStreak  int `json:"longest_streak"`
	QualifyingDays int `json:"qualifying_days"`
}

// QualifyingChapters converts one day's token set into a chapter count
// under the plan's structure semantics. A sequential token stands for a
// whole block of ChaptersPerDay chapters; sectional and cycling tokens
// count one chapter each.
func QualifyingChapters(s DailyStructure, completedSections []string) int {
	n := len(completedSections)
	if seq, ok := s.(Sequential); ok {
		per := seq.ChaptersPerDay
		if per <= 0 {
			per = 1
		}
		return n * per
	}
	return n
}

// ComputeStreaks derives current streak, longest streak and qualifying-day
// count from per-date chapter totals. chaptersByDate must already be
// aggregated across plans (one total per unique calendar date). Dates are
// the YYYY-MM-DD strings attached to the records at write time and are
// taken as authoritative; no timezone math happens here.
//
// The current streak counts the run anchored at the most recent qualifying
// date, and only if that date is today or yesterday. A streak broken
// before yesterday is zero no matter how long history's best run was.
func ComputeStreaks(chaptersByDate map[string]int, minimum int, today string) StreakStats {
	if minimum <= 0 {
		minimum = DefaultStreakMinimum
	}

	qualifying := make([]time.Time, 0, len(chaptersByDate))
	for date, chapters := range chaptersByDate {
		if chapters < minimum {
			continue
		}
		d, err := time.Parse(DateLayout, date)
		if err != nil {
			continue
		}
		qualifying = append(qualifying, d)
	}
	if len(qualifying) == 0 {
		return StreakStats{}
	}
	sort.Slice(qualifying, func(i, j int) bool { return qualifying[i].After(qualifying[j]) })

	longest, run := 1, 1
	for i := 1; i < len(qualifying); i++ {
		if qualifying[i-1].AddDate(0, 0, -1).Equal(qualifying[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	current := 0
	now, err := time.Parse(DateLayout, today)
	if err == nil {
		anchor := qualifying[0]
		if anchor.Equal(now) || anchor.Equal(now.AddDate(0, 0, -1)) {
			current = 1
			for i := 1; i < len(qualifying); i++ {
				if qualifying[i-1].AddDate(0, 0, -1).Equal(qualifying[i]) {
					current++
				} else {
					break
				}
			}
		}
	}

	return StreakStats{
		CurrentStreak:  current,
		LongestStreak:  longest,
		QualifyingDays: len(qualifying),
	}
}

// Streak rank ladder. The thresholds are days of current streak.
const (
	RankRecruit   = "RECRUIT"
	RankSoldier   = "SOLDIER"
	RankWarrior   = "WARRIOR"
	RankVeteran   = "VETERAN"
	RankLegendary = "LEGENDARY"
)

type RankInfo struct {
	Rank       string `json:"rank"`
	NextRank   string `json:"next_rank,omitempty"`
	DaysToNext int    `json:"days_to_next"`
}

// Rank maps a streak length onto the rank ladder and reports how far the
// next rank is.
func Rank(streakDays int) RankInfo {
	switch {
	case streakDays >= 90:
		return RankInfo{Rank: RankLegendary}
	case streakDays >= 60:
		return RankInfo{Rank: RankVeteran, NextRank: RankLegendary, DaysToNext: 90 - streakDays}
	case streakDays >= 30:
		return RankInfo{Rank: RankWarrior, NextRank: RankVeteran, DaysToNext: 60 - streakDays}
	case streakDays >= 7:
		return RankInfo{Rank: RankSoldier, NextRank: RankWarrior, DaysToNext: 30 - streakDays}
	default:
		return RankInfo{Rank: RankRecruit, NextRank: RankSoldier, DaysToNext: 7 - streakDays}
	}
}
