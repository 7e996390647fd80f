package scoring

import (
	"math"
	"sort"
	"unicode/utf8"
)

// Profile shape divisors
const (
	profileListSize   = 5.0
	profileStringSize = 500.0
	profileDictSize   = 5.0
	// unknownShapeScore applies to values with no recognized shape, such as booleans
	unknownShapeScore = 0.5
)

// CategoryConfig weights one profile category and, optionally, its subcategories
type CategoryConfig struct {
	Weight        float64            `json:"weight" yaml:"weight" toml:"weight"`
	Subcategories map[string]float64 `json:"subcategories,omitempty" yaml:"subcategories,omitempty" toml:"subcategories,omitempty"`
}

// ScorerConfig holds category weights keyed by category name
type ScorerConfig struct {
	Categories map[string]CategoryConfig `json:"categories" yaml:"categories" toml:"categories"`
}

// DefaultScorerConfig mirrors the sections of the default profile template
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{Categories: map[string]CategoryConfig{
		"personal_info": {Weight: 0.10},
		"academic": {Weight: 0.25, Subcategories: map[string]float64{
			"gpa":         0.4,
			"courses":     0.3,
			"test_scores": 0.3,
		}},
		"extracurricular": {Weight: 0.20, Subcategories: map[string]float64{
			"activities": 0.6,
			"leadership": 0.4,
		}},
		"achievements": {Weight: 0.20, Subcategories: map[string]float64{
			"awards":         0.5,
			"certifications": 0.3,
			"projects":       0.2,
		}},
		"essays": {Weight: 0.15},
		"goals":  {Weight: 0.10},
	}}
}

// ProfileScorer computes an overall quality score for profile data
type ProfileScorer struct {
	config ScorerConfig
}

// NewProfileScorer creates a scorer. A config with no categories gets the defaults.
func NewProfileScorer(cfg ScorerConfig) *ProfileScorer {
	if len(cfg.Categories) == 0 {
		cfg = DefaultScorerConfig()
	}
	return &ProfileScorer{config: cfg}
}

// Config returns the scorer configuration
func (s *ProfileScorer) Config() ScorerConfig {
	return s.config
}

// QualityScore returns the weighted quality of profileData, keyed by category.
// Only configured categories are scored.
func (s *ProfileScorer) QualityScore(profileData map[string]any) float64 {
	if len(profileData) == 0 {
		return 0.0
	}

	totalWeight, weighted, sum := 0.0, 0.0, 0.0
	scored := 0
	for _, category := range sortedCategories(profileData) {
		cfg, ok := s.config.Categories[category]
		if !ok {
			continue
		}
		score := s.CategoryScore(category, profileData[category], cfg)
		totalWeight += cfg.Weight
		weighted += cfg.Weight * score
		sum += score
		scored++
	}

	if scored == 0 {
		return 0.0
	}
	if totalWeight == 0 {
		return clamp(sum / float64(scored))
	}
	return clamp(weighted / totalWeight)
}

// CategoryScores scores every configured category present in profileData
func (s *ProfileScorer) CategoryScores(profileData map[string]any) map[string]float64 {
	out := make(map[string]float64, len(profileData))
	for category, data := range profileData {
		if cfg, ok := s.config.Categories[category]; ok {
			out[category] = s.CategoryScore(category, data, cfg)
		}
	}
	return out
}

// CategoryScore scores a single category. With subcategories configured it is
// the weighted mean of subcategory value shapes; otherwise it is the share of
// non-empty fields.
func (s *ProfileScorer) CategoryScore(category string, data any, cfg CategoryConfig) float64 {
	fields, ok := data.(map[string]any)
	if !ok {
		return profileShape(data)
	}
	if len(fields) == 0 {
		return 0.0
	}

	if len(cfg.Subcategories) > 0 {
		totalWeight, weighted := 0.0, 0.0
		for sub, weight := range cfg.Subcategories {
			totalWeight += weight
			weighted += weight * profileShape(fields[sub])
		}
		if totalWeight == 0 {
			return 0.0
		}
		return clamp(weighted / totalWeight)
	}

	filled := 0
	for _, v := range fields {
		if !isEmpty(v) {
			filled++
		}
	}
	return float64(filled) / float64(len(fields))
}

// profileShape scores a single value by its shape
func profileShape(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0.0
	case []any:
		return clamp(float64(len(val)) / profileListSize)
	case []string:
		return clamp(float64(len(val)) / profileListSize)
	case string:
		return clamp(float64(utf8.RuneCountInString(val)) / profileStringSize)
	case map[string]any:
		return clamp(float64(len(val)) / profileDictSize)
	case float64:
		return clamp(val)
	case float32:
		return clamp(float64(val))
	case int:
		return clamp(float64(val))
	case int64:
		return clamp(float64(val))
	default:
		return unknownShapeScore
	}
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	case float64:
		return val == 0 || math.IsNaN(val)
	default:
		return false
	}
}

func sortedCategories(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
