package plan

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is the engine's view of where a user stands in a plan.
// CurrentDay applies to Sequential and Sectional structures; ListPositions
// applies to CyclingLists. The zero value is a fresh enrollment.
type Position struct {
	CurrentDay    int
	ListPositions map[string]int
}

// NewPosition returns the position of a fresh enrollment: day 1, every
// list at its start.
func NewPosition() Position {
	return Position{CurrentDay: 1, ListPositions: map[string]int{}}
}

// clone returns an independent copy so mutations never alias caller state.
func (p Position) clone() Position {
	out := Position{CurrentDay: p.CurrentDay, ListPositions: make(map[string]int, len(p.ListPositions))}
	for k, v := range p.ListPositions {
		out.ListPositions[k] = v
	}
	return out
}

// listPosition returns the normalized chapter index for a list. Missing
// entries read as 0; out-of-range values wrap modulo the list length,
// treating corrupted state as recoverable.
func (p Position) listPosition(l ReadingList) int {
	idx := p.ListPositions[l.ID]
	if l.TotalChapters <= 0 {
		return 0
	}
	if idx < 0 || idx >= l.TotalChapters {
		idx = ((idx % l.TotalChapters) + l.TotalChapters) % l.TotalChapters
	}
	return idx
}

// ReadingUnit is one addressable reading due now, annotated with whether
// today's progress record already marks it done.
type ReadingUnit struct {
	ID           string `json:"id"`
	ListID       string `json:"list_id,omitempty"`
	ChapterIndex int    `json:"chapter_index,omitempty"`
	Label        string `json:"label"`
	Passage      string `json:"passage"`
	Completed    bool   `json:"completed"`
}

// Token builds the completion token for a cycling-list chapter,
// e.g. "gospels:42".
func Token(listID string, chapterIndex int) string {
	return listID + ":" + strconv.Itoa(chapterIndex)
}

// SequentialToken is the sentinel recorded when a sequential day block is
// read, e.g. "day:5". The day number keeps two blocks finished on the same
// calendar date distinct.
func SequentialToken(day int) string {
	return fmt.Sprintf("day:%d", day)
}

// ParseToken splits a cycling completion token into its list id and
// chapter index.
func ParseToken(token string) (listID string, chapterIndex int, err error) {
	i := strings.LastIndex(token, ":")
	if i <= 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidAddressing, token)
	}
	idx, err := strconv.Atoi(token[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidAddressing, token)
	}
	return token[:i], idx, nil
}

// Resolve produces the readings due at the given position, in plan order,
// each annotated with completion status from today's token set.
//
// CyclingLists yields one unit per list, at that list's current chapter.
// Sequential yields one unit for the current day's chapter block.
// Sectional yields one unit per section of the current day.
// A CurrentDay past the defined days yields an empty slice: the plan has
// no further content.
func Resolve(s DailyStructure, pos Position, completed []string) []ReadingUnit {
	tokens := tokenSet(completed)
	switch v := s.(type) {
	case CyclingLists:
		units := make([]ReadingUnit, 0, len(v.Lists))
		for _, l := range v.Lists {
			idx := pos.listPosition(l)
			token := Token(l.ID, idx)
			units = append(units, ReadingUnit{
				ID:           token,
				ListID:       l.ID,
				ChapterIndex: idx,
				Label:        l.Label,
				Passage:      l.ChapterRef(idx),
				Completed:    tokens[token],
			})
		}
		return units
	case Sequential:
		day, ok := sequentialDay(v, pos.CurrentDay)
		if !ok {
			return []ReadingUnit{}
		}
		token := SequentialToken(pos.CurrentDay)
		label := day.Label
		if label == "" {
			label = fmt.Sprintf("Day %d", pos.CurrentDay)
		}
		return []ReadingUnit{{
			ID:        token,
			Label:     label,
			Passage:   strings.Join(day.Passages, ", "),
			Completed: tokens[token],
		}}
	case Sectional:
		day, ok := sectionalDay(v, pos.CurrentDay)
		if !ok {
			return []ReadingUnit{}
		}
		units := make([]ReadingUnit, 0, len(day.Sections))
		for _, sec := range day.Sections {
			units = append(units, ReadingUnit{
				ID:        sec.ID,
				Label:     sec.Label,
				Passage:   strings.Join(sec.Passages, ", "),
				Completed: tokens[sec.ID],
			})
		}
		return units
	default:
		return []ReadingUnit{}
	}
}

// AllComplete reports whether every unit due at the position is marked
// done. False when the position resolves to no units.
func AllComplete(s DailyStructure, pos Position, completed []string) bool {
	units := Resolve(s, pos, completed)
	if len(units) == 0 {
		return false
	}
	for _, u := range units {
		if !u.Completed {
			return false
		}
	}
	return true
}

func tokenSet(completed []string) map[string]bool {
	set := make(map[string]bool, len(completed))
	for _, t := range completed {
		set[t] = true
	}
	return set
}

// sequentialDay fetches the 1-based day entry, preferring an explicit Day
// number match over positional indexing.
func sequentialDay(s Sequential, day int) (SequentialDay, bool) {
	for _, d := range s.Days {
		if d.Day == day {
			return d, true
		}
	}
	if day >= 1 && day <= len(s.Days) && s.Days[day-1].Day == 0 {
		return s.Days[day-1], true
	}
	return SequentialDay{}, false
}

func sectionalDay(s Sectional, day int) (SectionalDay, bool) {
	for _, d := range s.Days {
		if d.Day == day {
			return d, true
		}
	}
	if day >= 1 && day <= len(s.Days) && s.Days[day-1].Day == 0 {
		return s.Days[day-1], true
	}
	return SectionalDay{}, false
}

// findList locates a cycling list by id.
func findList(c CyclingLists, listID string) (ReadingList, bool) {
	for _, l := range c.Lists {
		if l.ID == listID {
			return l, true
		}
	}
	return ReadingList{}, false
}
