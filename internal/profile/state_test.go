package profile

import (
	"testing"

	"github.com/jonathan/profiler/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainProfile() *types.Profile {
	return &types.Profile{
		Config: types.ProfileConfig{
			Sections: []string{"A", "B", "C"},
			SectionDependencies: map[string][]string{
				"B": {"A"},
				"C": {"B"},
			},
		},
		Sections: map[string]*types.SectionData{},
	}
}

func complete(p *types.Profile, id string, data map[string]any) {
	p.Sections[id] = &types.SectionData{SectionID: id, Data: data, Completed: true}
}

func TestNextSection_Chain(t *testing.T) {
	c := NewStateCalculator()
	p := chainProfile()

	next, ok := c.NextSection(p)
	require.True(t, ok)
	assert.Equal(t, "A", next)

	complete(p, "A", nil)
	next, ok = c.NextSection(p)
	require.True(t, ok)
	assert.Equal(t, "B", next)

	complete(p, "B", nil)
	complete(p, "C", nil)
	_, ok = c.NextSection(p)
	assert.False(t, ok)
}

func TestNextSection_CycleNeverYields(t *testing.T) {
	c := NewStateCalculator()
	p := &types.Profile{
		Config: types.ProfileConfig{
			Sections: []string{"A", "B"},
			SectionDependencies: map[string][]string{
				"A": {"B"},
				"B": {"A"},
			},
		},
		Sections: map[string]*types.SectionData{},
	}

	for i := 0; i < 3; i++ {
		next, ok := c.NextSection(p)
		assert.False(t, ok)
		assert.Empty(t, next)
	}
	assert.Nil(t, c.CalculateState(p).NextSection)
}

func TestNextSection_SkipsBlockedSections(t *testing.T) {
	p := &types.Profile{
		Config: types.ProfileConfig{
			Sections:            []string{"essays", "personal_info"},
			SectionDependencies: map[string][]string{"essays": {"personal_info"}},
		},
		Sections: map[string]*types.SectionData{},
	}

	next, ok := NewStateCalculator().NextSection(p)
	require.True(t, ok)
	assert.Equal(t, "personal_info", next)
}

func TestCalculateState(t *testing.T) {
	p := chainProfile()
	complete(p, "A", map[string]any{"name": "Ada", "school": "Analytical"})
	p.Sections["B"] = &types.SectionData{SectionID: "B", Data: map[string]any{"school": "Difference Engine Prep"}}
	p.Sections["C"] = &types.SectionData{SectionID: "C", Data: map[string]any{"goal": "math"}, Completed: true}

	state := NewStateCalculator().CalculateState(p)

	assert.Equal(t, []string{"A", "C"}, state.SectionsCompleted)
	assert.Equal(t, []string{"B"}, state.SectionsRemaining)
	assert.Equal(t, map[string]any{
		"name":   "Ada",
		"school": "Difference Engine Prep",
		"goal":   "math",
	}, state.ProfileData)
	assert.InDelta(t, 2.0/3.0, state.CompletionRatio, 0.0001)
	require.NotNil(t, state.NextSection)
	assert.Equal(t, "B", *state.NextSection)
}

func TestCalculateState_Empty(t *testing.T) {
	state := NewStateCalculator().CalculateState(&types.Profile{})

	assert.Empty(t, state.SectionsCompleted)
	assert.Empty(t, state.SectionsRemaining)
	assert.Empty(t, state.ProfileData)
	assert.Equal(t, 0.0, state.CompletionRatio)
}

func TestStatusFor(t *testing.T) {
	p := chainProfile()
	p.Config.RequiredSections = []string{"A", "B"}
	assert.Equal(t, types.ProfileStatusDraft, statusFor(p))

	complete(p, "A", map[string]any{"x": 1})
	assert.Equal(t, types.ProfileStatusInProgress, statusFor(p))

	complete(p, "B", nil)
	assert.Equal(t, types.ProfileStatusCompleted, statusFor(p))
}
