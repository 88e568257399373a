package plan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalStructureDiscriminator(t *testing.T) {
	data, err := json.Marshal(testCycling())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"cycling_lists"`)

	s, err := UnmarshalStructure(data)
	require.NoError(t, err)
	c, ok := s.(CyclingLists)
	require.True(t, ok)
	assert.Len(t, c.Lists, 2)
	assert.Equal(t, 89, c.Lists[0].TotalChapters)
}

func TestUnmarshalStructureSequentialAndSectional(t *testing.T) {
	seq, err := UnmarshalStructure([]byte(`{"type":"sequential","chapters_per_day":3,"days":[{"day":1,"passages":["Genesis 1","Genesis 2","Genesis 3"]}]}`))
	require.NoError(t, err)
	assert.Equal(t, TypeSequential, seq.Type())
	assert.Equal(t, 3, seq.(Sequential).ChaptersPerDay)

	sec, err := UnmarshalStructure([]byte(`{"type":"sectional","sections_per_day":2,"days":[{"day":1,"sections":[{"id":"a","label":"A","passages":["John 1"]},{"id":"b","label":"B","passages":["Acts 1"]}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, TypeSectional, sec.Type())
	assert.Len(t, sec.(Sectional).Days[0].Sections, 2)
}

func TestUnmarshalStructureRejectsUnknownType(t *testing.T) {
	_, err := UnmarshalStructure([]byte(`{"type":"spiral"}`))
	assert.Error(t, err)

	_, err = UnmarshalStructure([]byte(`not json`))
	assert.Error(t, err)
}
