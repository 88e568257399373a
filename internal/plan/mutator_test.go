package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleRoundTrip(t *testing.T) {
	s := testCycling()
	pos := NewPosition()

	once, added, err := Toggle(s, pos, "gospels:0", nil)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"gospels:0"}, once)

	twice, added, err := Toggle(s, pos, "gospels:0", once)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, twice)
}

func TestToggleDoesNotAliasInput(t *testing.T) {
	s := testCycling()
	original := []string{"gospels:0"}

	out, _, err := Toggle(s, NewPosition(), "psalms:0", original)
	require.NoError(t, err)
	assert.Equal(t, []string{"gospels:0"}, original)
	assert.Equal(t, []string{"gospels:0", "psalms:0"}, out)
}

func TestToggleRejectsInvalidAddressing(t *testing.T) {
	tests := []struct {
		name  string
		s     DailyStructure
		pos   Position
		token string
	}{
		{"unknown list", testCycling(), NewPosition(), "epistles:0"},
		{"chapter out of range", testCycling(), NewPosition(), "gospels:89"},
		{"negative chapter", testCycling(), NewPosition(), "gospels:-1"},
		{"malformed token", testCycling(), NewPosition(), "gospels"},
		{"wrong sequential day", testSequential(10), Position{CurrentDay: 4}, "day:5"},
		{"sequential day out of range", testSequential(10), Position{CurrentDay: 11}, "day:11"},
		{"foreign section", testSectional(5), Position{CurrentDay: 1}, "d02-law"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Toggle(tt.s, tt.pos, tt.token, nil)
			assert.ErrorIs(t, err, ErrInvalidAddressing)
		})
	}
}

func TestAdvanceListRequiresCurrentChapterComplete(t *testing.T) {
	s := testCycling()
	pos := NewPosition()

	_, err := AdvanceList(s, pos, "gospels", nil)
	assert.ErrorIs(t, err, ErrOutOfOrderAdvance)

	res, err := AdvanceList(s, pos, "gospels", []string{"gospels:0"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Position.ListPositions["gospels"])
	assert.False(t, res.Wrapped)
	// input untouched
	assert.Equal(t, 0, pos.ListPositions["gospels"])
}

func TestAdvanceListWrapsAtListEnd(t *testing.T) {
	// Gospels list, 89 chapters, position 88: advancing after marking
	// chapter 88 wraps to 0 and reports a completed cycle.
	s := testCycling()
	pos := NewPosition()
	pos.ListPositions["gospels"] = 88

	res, err := AdvanceList(s, pos, "gospels", []string{"gospels:88"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Position.ListPositions["gospels"])
	assert.True(t, res.Wrapped)
}

func TestAdvanceListNeverSkipsOrDoubleAdvances(t *testing.T) {
	// Walk the psalms list through one entire cycle. The position must hit
	// every index exactly once and wrap exactly at the chapter count.
	s := testCycling()
	pos := NewPosition()

	for i := 0; i < 150; i++ {
		require.Equal(t, i, pos.listPosition(s.Lists[1]))
		res, err := AdvanceList(s, pos, "psalms", []string{Token("psalms", i)})
		require.NoError(t, err)
		assert.Equal(t, i == 149, res.Wrapped, "index %d", i)
		pos = res.Position
	}
	assert.Equal(t, 0, pos.ListPositions["psalms"])
}

func TestAdvanceListUnknownList(t *testing.T) {
	_, err := AdvanceList(testCycling(), NewPosition(), "epistles", []string{"epistles:0"})
	assert.ErrorIs(t, err, ErrInvalidAddressing)
}

func TestAdvanceListOnNonCyclingPlan(t *testing.T) {
	_, err := AdvanceList(testSequential(10), Position{CurrentDay: 1}, "gospels", nil)
	assert.ErrorIs(t, err, ErrInvalidAddressing)
}

func TestAdvanceDaySequential(t *testing.T) {
	s := testSequential(90)
	pos := Position{CurrentDay: 46}

	_, err := AdvanceDay(s, pos, 90, nil)
	assert.ErrorIs(t, err, ErrOutOfOrderAdvance)

	res, err := AdvanceDay(s, pos, 90, []string{"day:46"})
	require.NoError(t, err)
	assert.Equal(t, 47, res.Position.CurrentDay)
	assert.False(t, res.PlanCompleted)
	assert.Equal(t, 46, pos.CurrentDay)
}

func TestAdvanceDaySectionalRejectsPartialDay(t *testing.T) {
	// 2 of 3 required sections complete: advance must fail closed and the
	// position stays put.
	s := testSectional(5)
	pos := Position{CurrentDay: 1}
	partial := []string{sectionID(1, "law"), sectionID(1, "prophets")}

	_, err := AdvanceDay(s, pos, 5, partial)
	assert.ErrorIs(t, err, ErrOutOfOrderAdvance)
	assert.Equal(t, 1, pos.CurrentDay)

	full := append(partial, sectionID(1, "writings"))
	res, err := AdvanceDay(s, pos, 5, full)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Position.CurrentDay)
}

func TestAdvanceDayCompletesPlanAtFinalDay(t *testing.T) {
	s := testSequential(90)
	pos := Position{CurrentDay: 90}

	res, err := AdvanceDay(s, pos, 90, []string{"day:90"})
	require.NoError(t, err)
	assert.True(t, res.PlanCompleted)
	// one past the end signals completion
	assert.Equal(t, 91, res.Position.CurrentDay)

	// COMPLETED is terminal
	_, err = AdvanceDay(s, res.Position, 90, []string{"day:91"})
	assert.ErrorIs(t, err, ErrPlanCompleted)
}

func TestAdvanceDayOnCyclingPlan(t *testing.T) {
	_, err := AdvanceDay(testCycling(), NewPosition(), 0, nil)
	assert.ErrorIs(t, err, ErrInvalidAddressing)
}
