package plan

import "fmt"

// AdvanceResult is the outcome of an advance event. Position is a fresh
// copy; the input position is never modified.
type AdvanceResult struct {
	Position Position
	// Wrapped is true when a cycling list returned to its start, meaning
	// one full cycle of that list was completed. The fact is reported to
	// the caller but not separately persisted.
	Wrapped bool
	// PlanCompleted is true when a fixed-length plan advanced past its
	// final day. The caller sets the completion flag and timestamp.
	PlanCompleted bool
}

// Toggle adds or removes a completion token from the day's token set and
// returns the new set as a copy. Toggling is idempotent per direction:
// adding a present token or removing an absent one cannot happen, because
// presence decides the direction. The same call therefore both marks and
// unmarks. The returned added flag reports which way it went.
//
// Tokens that do not address a unit of the plan are rejected with
// ErrInvalidAddressing so phantom completions never reach the record.
func Toggle(s DailyStructure, pos Position, token string, completed []string) (sections []string, added bool, err error) {
	if err := validateToken(s, pos, token); err != nil {
		return nil, false, err
	}
	for i, t := range completed {
		if t == token {
			out := make([]string, 0, len(completed)-1)
			out = append(out, completed[:i]...)
			out = append(out, completed[i+1:]...)
			return out, false, nil
		}
	}
	out := make([]string, len(completed), len(completed)+1)
	copy(out, completed)
	return append(out, token), true, nil
}

// AdvanceList moves one cycling list forward by a single chapter, wrapping
// to 0 when it reaches the list's chapter count. The current chapter must
// already be marked complete; an out-of-order advance is rejected, never
// silently applied.
func AdvanceList(s DailyStructure, pos Position, listID string, completed []string) (AdvanceResult, error) {
	c, ok := s.(CyclingLists)
	if !ok {
		return AdvanceResult{}, fmt.Errorf("%w: list advance on %s plan", ErrInvalidAddressing, s.Type())
	}
	l, ok := findList(c, listID)
	if !ok {
		return AdvanceResult{}, fmt.Errorf("%w: unknown list %q", ErrInvalidAddressing, listID)
	}
	idx := pos.listPosition(l)
	if !tokenSet(completed)[Token(l.ID, idx)] {
		return AdvanceResult{}, fmt.Errorf("%w: %s chapter %d", ErrOutOfOrderAdvance, listID, idx)
	}
	next := idx + 1
	wrapped := false
	if l.TotalChapters > 0 && next >= l.TotalChapters {
		next = 0
		wrapped = true
	}
	out := pos.clone()
	out.ListPositions[l.ID] = next
	return AdvanceResult{Position: out, Wrapped: wrapped}, nil
}

// AdvanceDay consumes the current day of a Sequential or Sectional plan.
// Every unit due today must be complete. When the new day exceeds a
// positive duration the result reports plan completion and the position
// rests one past the end.
func AdvanceDay(s DailyStructure, pos Position, durationDays int, completed []string) (AdvanceResult, error) {
	switch s.(type) {
	case Sequential, Sectional:
	default:
		return AdvanceResult{}, fmt.Errorf("%w: day advance on %s plan", ErrInvalidAddressing, s.Type())
	}
	if durationDays > 0 && pos.CurrentDay > durationDays {
		return AdvanceResult{}, ErrPlanCompleted
	}
	if !AllComplete(s, pos, completed) {
		return AdvanceResult{}, fmt.Errorf("%w: day %d", ErrOutOfOrderAdvance, pos.CurrentDay)
	}
	out := pos.clone()
	out.CurrentDay++
	res := AdvanceResult{Position: out}
	if durationDays > 0 && out.CurrentDay > durationDays {
		res.PlanCompleted = true
	}
	return res, nil
}

// validateToken checks that a token decomposes to an addressable unit of
// the plan at the given position.
func validateToken(s DailyStructure, pos Position, token string) error {
	switch v := s.(type) {
	case CyclingLists:
		listID, idx, err := ParseToken(token)
		if err != nil {
			return err
		}
		l, ok := findList(v, listID)
		if !ok {
			return fmt.Errorf("%w: unknown list %q", ErrInvalidAddressing, listID)
		}
		if idx < 0 || idx >= l.TotalChapters {
			return fmt.Errorf("%w: chapter %d out of range for list %q", ErrInvalidAddressing, idx, listID)
		}
		return nil
	case Sequential:
		if _, ok := sequentialDay(v, pos.CurrentDay); !ok {
			return fmt.Errorf("%w: no day %d", ErrInvalidAddressing, pos.CurrentDay)
		}
		if token != SequentialToken(pos.CurrentDay) {
			return fmt.Errorf("%w: %q is not today's reading", ErrInvalidAddressing, token)
		}
		return nil
	case Sectional:
		day, ok := sectionalDay(v, pos.CurrentDay)
		if !ok {
			return fmt.Errorf("%w: no day %d", ErrInvalidAddressing, pos.CurrentDay)
		}
		for _, sec := range day.Sections {
			if sec.ID == token {
				return nil
			}
		}
		return fmt.Errorf("%w: %q is not a section of day %d", ErrInvalidAddressing, token, pos.CurrentDay)
	default:
		return ErrInvalidAddressing
	}
}
