// Package plan implements the reading-plan progress engine: plan structure
// variants, the resolver that decides which readings are due, the mutator
// that applies completion and advance events, and the streak calculator.
//
// Every function in this package is pure: state comes in as arguments and
// new state goes out as return values. Persistence and serialization of
// mutations belong to the caller; see internal/storage.
package plan

import (
	"encoding/json"
	"fmt"
)

// Structure type discriminators as stored in the daily_structure JSON.
const (
	TypeCyclingLists = "cycling_lists"
	TypeSequential   = "sequential"
	TypeSectional    = "sectional"
)

// DailyStructure is a closed union of the three plan-structure variants.
// Components that branch on structure type switch exhaustively on the
// concrete types; a new variant fails to compile everywhere it matters.
type DailyStructure interface {
	isDailyStructure()
	Type() string
}

// CyclingLists holds independently advancing lists that wrap on completion.
// There is no fixed day count and no terminal state.
type CyclingLists struct {
	Lists []ReadingList `json:"lists"`
}

// Sequential consumes one day entry at a time, each a block of
// ChaptersPerDay chapters, regardless of calendar date.
type Sequential struct {
	ChaptersPerDay int             `json:"chapters_per_day"`
	Days           []SequentialDay `json:"days"`
}

// Sectional subdivides each day into named sections; a day is complete
// only when every section is marked done.
type Sectional struct {
	SectionsPerDay int            `json:"sections_per_day"`
	Days           []SectionalDay `json:"days"`
}

func (CyclingLists) isDailyStructure() {}
func (Sequential) isDailyStructure()   {}
func (Sectional) isDailyStructure()    {}

func (CyclingLists) Type() string { return TypeCyclingLists }
func (Sequential) Type() string   { return TypeSequential }
func (Sectional) Type() string    { return TypeSectional }

// ReadingList is one cycling list: an ordered run of chapters drawn from
// one or more books.
type ReadingList struct {
	ID            string         `json:"id"`
	Label         string         `json:"label"`
	Books         []BookChapters `json:"books"`
	TotalChapters int            `json:"total_chapters"`
}

type BookChapters struct {
	Book     string `json:"book"`
	Chapters []int  `json:"chapters"`
}

type SequentialDay struct {
	Day      int      `json:"day"`
	Label    string   `json:"label,omitempty"`
	Passages []string `json:"passages"`
}

type SectionalDay struct {
	Day      int              `json:"day"`
	Sections []ReadingSection `json:"sections"`
}

type ReadingSection struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Passages []string `json:"passages"`
}

// ChapterRef returns the passage reference for the chapter at index within
// the list's book walk, e.g. "Matthew 5". The index must already be
// normalized into [0, TotalChapters).
func (l ReadingList) ChapterRef(index int) string {
	n := index
	for _, b := range l.Books {
		if n < len(b.Chapters) {
			return fmt.Sprintf("%s %d", b.Book, b.Chapters[n])
		}
		n -= len(b.Chapters)
	}
	return ""
}

func (c CyclingLists) MarshalJSON() ([]byte, error) {
	type alias CyclingLists
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeCyclingLists, alias(c)})
}

func (s Sequential) MarshalJSON() ([]byte, error) {
	type alias Sequential
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeSequential, alias(s)})
}

func (s Sectional) MarshalJSON() ([]byte, error) {
	type alias Sectional
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeSectional, alias(s)})
}

// UnmarshalStructure decodes a daily_structure document by its "type"
// discriminator. Unknown discriminators are an error, never skipped.
func UnmarshalStructure(data []byte) (DailyStructure, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("plan: invalid daily_structure: %w", err)
	}
	switch tag.Type {
	case TypeCyclingLists:
		var c CyclingLists
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case TypeSequential:
		var s Sequential
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return s, nil
	case TypeSectional:
		var s Sectional
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("plan: unknown daily_structure type %q", tag.Type)
	}
}
