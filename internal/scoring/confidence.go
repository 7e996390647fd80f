// Package scoring computes profile quality and extraction confidence scores.
// All scores are in [0, 1]; both calculators are pure and safe for concurrent use.
package scoring

import (
	"github.com/jonathan/profiler/internal/extraction"
)

// Confidence component weights
const (
	completenessWeight = 0.4
	richnessWeight     = 0.3
	qualityWeight      = 0.2
	diversityWeight    = 0.1
)

// Confidence defaults
const (
	// FailureConfidence is returned for payloads that carried an extraction error
	FailureConfidence = 0.2
	// neutralCompleteness applies to types with no required-field set
	neutralCompleteness = 0.5
	// unrecognizedRichness applies when data exists but no weighted field is present
	unrecognizedRichness = 0.1

	llmPairQuality = 0.8
	llmBaseQuality = 0.6
)

// Breakdown exposes the components behind a confidence score
type Breakdown struct {
	Completeness float64 `json:"completeness"`
	Richness     float64 `json:"richness"`
	Quality      float64 `json:"quality"`
	Diversity    float64 `json:"diversity"`
	Score        float64 `json:"score"`
}

// ConfidenceCalculator scores extracted document information
type ConfidenceCalculator struct{}

// NewConfidenceCalculator creates a ConfidenceCalculator
func NewConfidenceCalculator() *ConfidenceCalculator {
	return &ConfidenceCalculator{}
}

// Confidence returns the confidence score for info
func (c *ConfidenceCalculator) Confidence(info extraction.Info) float64 {
	return c.Breakdown(info).Score
}

// Breakdown returns the confidence score with its components
func (c *ConfidenceCalculator) Breakdown(info extraction.Info) Breakdown {
	if info == nil {
		return Breakdown{Score: FailureConfidence}
	}
	if _, failed := info.(*extraction.Failure); failed {
		return Breakdown{Score: FailureConfidence}
	}

	fields := fieldsOf(info)
	b := Breakdown{
		Completeness: completeness(fields),
		Richness:     richness(fields),
		Quality:      quality(info),
		Diversity:    diversity(len(info.Provenance().Sources())),
	}
	b.Score = combine(b)
	return b
}

func combine(b Breakdown) float64 {
	return clamp(completenessWeight*b.Completeness +
		richnessWeight*b.Richness +
		qualityWeight*b.Quality +
		diversityWeight*b.Diversity)
}

// field is one scored field of an extracted payload
type field struct {
	name     string
	required bool
	weight   float64 // richness weight; 0 means not part of richness
	present  bool
	richness float64
}

// fieldsOf dispatches on the payload variant
func fieldsOf(info extraction.Info) []field {
	switch v := info.(type) {
	case *extraction.TranscriptInfo:
		return []field{
			{name: "student_name", required: true, present: v.StudentName != ""},
			{name: "institution", required: true, present: v.Institution != ""},
			{name: "gpa", required: true, weight: 0.2, present: v.GPA != 0, richness: numberRichness(v.GPA)},
			{name: "courses", required: true, weight: 0.3, present: len(v.Courses) > 0, richness: listRichness(len(v.Courses))},
			{name: "grades", weight: 0.2, present: len(v.Grades) > 0, richness: listRichness(len(v.Grades))},
			{name: "honors", weight: 0.1, present: len(v.Honors) > 0, richness: listRichness(len(v.Honors))},
			{name: "academic_standing", weight: 0.1, present: v.AcademicStanding != "", richness: stringRichness(v.AcademicStanding)},
			{name: "test_scores", weight: 0.1, present: len(v.TestScores) > 0, richness: dictRichness(len(v.TestScores))},
		}
	case *extraction.EssayInfo:
		return []field{
			{name: "content", required: true, weight: 0.4, present: v.Content != "", richness: stringRichness(v.Content)},
			{name: "topic", required: true, weight: 0.1, present: v.Topic != "", richness: stringRichness(v.Topic)},
			{name: "word_count", required: true, weight: 0.1, present: v.WordCount != 0, richness: numberRichness(float64(v.WordCount))},
			{name: "themes", weight: 0.2, present: len(v.Themes) > 0, richness: listRichness(len(v.Themes))},
			{name: "key_points", weight: 0.2, present: len(v.KeyPoints) > 0, richness: listRichness(len(v.KeyPoints))},
		}
	case *extraction.ResumeInfo:
		return []field{
			{name: "name", required: true, present: v.Name != ""},
			{name: "education", required: true, weight: 0.2, present: len(v.Education) > 0, richness: listRichness(len(v.Education))},
			{name: "experience", required: true, weight: 0.3, present: len(v.Experience) > 0, richness: listRichness(len(v.Experience))},
			{name: "skills", required: true, weight: 0.2, present: len(v.Skills) > 0, richness: listRichness(len(v.Skills))},
			{name: "achievements", weight: 0.2, present: len(v.Achievements) > 0, richness: listRichness(len(v.Achievements))},
			{name: "activities", weight: 0.1, present: len(v.Activities) > 0, richness: listRichness(len(v.Activities))},
		}
	default:
		return nil
	}
}

// MissingRequiredFields names the required fields absent from an extraction,
// in field order. Generic payloads have no required fields.
func MissingRequiredFields(info extraction.Info) []string {
	var missing []string
	for _, f := range fieldsOf(info) {
		if f.required && !f.present {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// completeness is the share of required fields present
func completeness(fields []field) float64 {
	required, present := 0, 0
	for _, f := range fields {
		if !f.required {
			continue
		}
		required++
		if f.present {
			present++
		}
	}
	if required == 0 {
		return neutralCompleteness
	}
	return clamp(float64(present) / float64(required))
}

// richness is the weighted mean richness over present weighted fields
func richness(fields []field) float64 {
	total, weighted := 0.0, 0.0
	for _, f := range fields {
		if f.weight == 0 || !f.present {
			continue
		}
		total += f.weight
		weighted += f.weight * f.richness
	}
	if total == 0 {
		return unrecognizedRichness
	}
	return clamp(weighted / total)
}

// quality is a source-specific heuristic
func quality(info extraction.Info) float64 {
	if info.Provenance().SourceType == extraction.SourceLLM {
		if hasRichnessPair(info) {
			return llmPairQuality
		}
		return llmBaseQuality
	}
	return countQuality(info)
}

func hasRichnessPair(info extraction.Info) bool {
	switch v := info.(type) {
	case *extraction.TranscriptInfo:
		return len(v.Courses) > 0 && len(v.Grades) > 0
	case *extraction.EssayInfo:
		return len(v.Themes) > 0 && len(v.KeyPoints) > 0
	case *extraction.ResumeInfo:
		return len(v.Experience) > 0 && len(v.Achievements) > 0
	default:
		return false
	}
}

// countQuality picks 0.9 / 0.7 / 0.5 from the size of the type's main list
func countQuality(info extraction.Info) float64 {
	var n, high, mid int
	switch v := info.(type) {
	case *extraction.TranscriptInfo:
		n, high, mid = max(len(v.Courses), len(v.Grades)), 10, 5
	case *extraction.EssayInfo:
		n, high, mid = len(v.KeyPoints), 5, 2
	case *extraction.ResumeInfo:
		n, high, mid = len(v.Skills), 10, 5
	case *extraction.GenericInfo:
		for _, val := range v.Fields {
			if l, ok := val.([]any); ok && len(l) > n {
				n = len(l)
			}
		}
		high, mid = 10, 5
	}
	switch {
	case n >= high:
		return 0.9
	case n >= mid:
		return 0.7
	default:
		return 0.5
	}
}

// diversity maps the number of distinct sources to a score
func diversity(sources int) float64 {
	switch {
	case sources <= 0:
		return 0.3
	case sources == 1:
		return 0.5
	case sources == 2:
		return 0.9
	default:
		return 1.0
	}
}
