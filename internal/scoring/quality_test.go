package scoring

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityScore_Empty(t *testing.T) {
	s := NewProfileScorer(ScorerConfig{})
	assert.Equal(t, 0.0, s.QualityScore(nil))
	assert.Equal(t, 0.0, s.QualityScore(map[string]any{}))
}

func TestQualityScore_UnconfiguredCategoriesIgnored(t *testing.T) {
	s := NewProfileScorer(ScorerConfig{Categories: map[string]CategoryConfig{"goals": {Weight: 1}}})
	assert.Equal(t, 0.0, s.QualityScore(map[string]any{"hobbies": map[string]any{"chess": true}}))
}

func TestQualityScore_Weighted(t *testing.T) {
	s := NewProfileScorer(ScorerConfig{Categories: map[string]CategoryConfig{
		"personal_info": {Weight: 0.25},
		"goals":         {Weight: 0.75},
	}})

	score := s.QualityScore(map[string]any{
		"personal_info": map[string]any{"name": "Ada", "email": ""},
		"goals":         map[string]any{"statement": "Study mathematics"},
	})

	// personal_info .5, goals 1.0
	assert.InDelta(t, 0.25*0.5+0.75*1.0, score, 0.0001)
}

func TestQualityScore_ZeroWeightsUseMean(t *testing.T) {
	s := NewProfileScorer(ScorerConfig{Categories: map[string]CategoryConfig{
		"a": {},
		"b": {},
	}})

	score := s.QualityScore(map[string]any{
		"a": map[string]any{"x": "filled"},
		"b": map[string]any{"x": "", "y": nil},
	})
	assert.InDelta(t, 0.5, score, 0.0001)
}

func TestCategoryScore(t *testing.T) {
	s := NewProfileScorer(ScorerConfig{})
	academic := CategoryConfig{Weight: 1, Subcategories: map[string]float64{
		"courses": 0.5,
		"essay":   0.25,
		"gpa":     0.25,
	}}

	tests := []struct {
		name string
		data any
		cfg  CategoryConfig
		want float64
	}{
		{
			name: "subcategories weighted by shape",
			data: map[string]any{
				"courses": []any{"a", "b", "c", "d", "e", "f"},
				"essay":   strings.Repeat("x", 250),
				"gpa":     0.9,
			},
			cfg:  academic,
			want: 0.5*1.0 + 0.25*0.5 + 0.25*0.9,
		},
		{
			name: "strings measured in characters",
			data: map[string]any{"essay": strings.Repeat("é", 250)},
			cfg:  academic,
			want: 0.25 * 0.5,
		},
		{
			name: "missing subcategory counts as zero",
			data: map[string]any{"courses": []any{"a"}},
			cfg:  academic,
			want: 0.5 * 0.2,
		},
		{
			name: "numbers clamp",
			data: map[string]any{"gpa": 3.8},
			cfg:  CategoryConfig{Subcategories: map[string]float64{"gpa": 1}},
			want: 1.0,
		},
		{
			name: "unknown shape scores half",
			data: map[string]any{"verified": true},
			cfg:  CategoryConfig{Subcategories: map[string]float64{"verified": 1}},
			want: 0.5,
		},
		{
			name: "completeness ratio without subcategories",
			data: map[string]any{"a": "x", "b": []any{}, "c": nil, "d": 2.0},
			want: 0.5,
		},
		{
			name: "empty map",
			data: map[string]any{},
			want: 0.0,
		},
		{
			name: "bare list scored by shape",
			data: []any{"one", "two"},
			want: 0.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.CategoryScore("academic", tt.data, tt.cfg), 0.0001)
		})
	}
}

func TestCategoryScores_DefaultConfig(t *testing.T) {
	s := NewProfileScorer(ScorerConfig{})
	scores := s.CategoryScores(map[string]any{
		"extracurricular": map[string]any{
			"activities": []any{"robotics", "debate", "band", "chess", "soccer"},
			"leadership": []any{"captain"},
		},
		"unlisted": map[string]any{"x": 1},
	})

	assert.Len(t, scores, 1)
	assert.InDelta(t, 0.6*1.0+0.4*0.2, scores["extracurricular"], 0.0001)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-0.1))
	assert.Equal(t, 1.0, clamp(1.5))
	assert.Equal(t, 0.0, clamp(math.NaN()))
	assert.Equal(t, 0.42, clamp(0.42))
}
