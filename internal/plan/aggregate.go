package plan

import "math"

// PercentComplete reports progress through a fixed-length plan as an
// integer 0-100. Day N in progress means N-1 days are behind the user.
// A zero duration (open-ended plan) yields 0; callers should branch on
// structure type and use CycleProgress for cycling plans instead.
func PercentComplete(pos Position, durationDays int) int {
	if durationDays <= 0 {
		return 0
	}
	pct := int(math.Round(float64(pos.CurrentDay-1) / float64(durationDays) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ListCycleProgress is one list's progress through its current cycle.
type ListCycleProgress struct {
	ListID        string `json:"list_id"`
	Label         string `json:"label"`
	ChapterIndex  int    `json:"chapter_index"`
	TotalChapters int    `json:"total_chapters"`
	Percent       int    `json:"percent"`
}

// CycleProgress reports per-list progress for a cycling plan. A plan with
// no end has no meaningful overall percent; progress through the current
// cycle of each list is the closest substitute. Non-cycling structures
// yield nil.
func CycleProgress(s DailyStructure, pos Position) []ListCycleProgress {
	c, ok := s.(CyclingLists)
	if !ok {
		return nil
	}
	out := make([]ListCycleProgress, 0, len(c.Lists))
	for _, l := range c.Lists {
		idx := pos.listPosition(l)
		pct := 0
		if l.TotalChapters > 0 {
			pct = int(math.Round(float64(idx) / float64(l.TotalChapters) * 100))
		}
		out = append(out, ListCycleProgress{
			ListID:        l.ID,
			Label:         l.Label,
			ChapterIndex:  idx,
			TotalChapters: l.TotalChapters,
			Percent:       pct,
		})
	}
	return out
}
