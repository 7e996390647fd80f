package extraction

import (
	"testing"

	"github.com/jonathan/profiler/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTranscript = `Student: Ada Lovelace
Institution: Analytical High School
Cumulative GPA: 3.92
Academic Standing: Good

MATH 201 Calculus II A 4
PHYS 110 Mechanics A- 4
HIST 101 World History B+ 3

Dean's List, Fall 2024
SAT: 1540
`

func TestRegexExtractor_Transcript(t *testing.T) {
	out := NewRegexExtractor().ExtractText(types.DocumentTranscript, sampleTranscript)

	assert.Equal(t, SourceRegex, out[KeySourceType])
	assert.Equal(t, "Ada Lovelace", out["student_name"])
	assert.Equal(t, "Analytical High School", out["institution"])
	assert.Equal(t, "Good", out["academic_standing"])
	assert.Equal(t, "3.92", out["gpa"])

	courses, ok := out["courses"].([]any)
	require.True(t, ok)
	require.Len(t, courses, 3)
	first := courses[0].(map[string]any)
	assert.Equal(t, "MATH 201 Calculus II", first["name"])
	assert.Equal(t, "A", first["grade"])
	assert.Equal(t, "4", first["credits"])
	assert.Equal(t, []any{"A", "A-", "B+"}, out["grades"])
	assert.Equal(t, []any{"Dean's List"}, out["honors"])
	assert.Equal(t, map[string]any{"SAT": "1540"}, out["test_scores"])

	info := Decode(types.DocumentTranscript, out)
	tr := info.(*TranscriptInfo)
	assert.InDelta(t, 3.92, tr.GPA, 0.001)
	assert.Len(t, tr.Courses, 3)
}

func TestRegexExtractor_Essay(t *testing.T) {
	text := `The Captain's Chair

Prompt: Describe a challenge you overcame.

When our robotics captain quit, I had to lead a team of twelve. We had six weeks left.

I learned that listening matters more than talking. Our robot placed third.`

	out := NewRegexExtractor().ExtractText(types.DocumentEssay, text)

	assert.Equal(t, "The Captain's Chair", out["title"])
	assert.Equal(t, "Describe a challenge you overcame.", out["topic"])
	assert.NotContains(t, out["content"], "Prompt:")
	assert.Equal(t, []any{
		"When our robotics captain quit, I had to lead a team of twelve.",
		"I learned that listening matters more than talking.",
	}, out["key_points"])
	assert.Equal(t, []any{"growth", "leadership"}, out["themes"])
}

func TestRegexExtractor_Resume(t *testing.T) {
	text := `Grace Hopper
grace@example.com

Education
- BS Mathematics, Vassar College

Experience
- Research Intern at Naval Lab
- Math Tutor

Skills
Go, Python, SQL
COBOL

Awards
- National Merit Finalist
`

	out := NewRegexExtractor().ExtractText(types.DocumentResume, text)

	assert.Equal(t, "Grace Hopper", out["name"])
	assert.Equal(t, "grace@example.com", out["email"])
	assert.Equal(t, []any{"BS Mathematics, Vassar College"}, out["education"])
	assert.Equal(t, []any{"Go", "Python", "SQL", "COBOL"}, out["skills"])
	assert.Equal(t, []any{"National Merit Finalist"}, out["achievements"])
	assert.Equal(t, []any{
		map[string]any{"title": "Research Intern", "organization": "Naval Lab"},
		map[string]any{"title": "Math Tutor"},
	}, out["experience"])
}

func TestRegexExtractor_Generic(t *testing.T) {
	out := NewRegexExtractor().ExtractText(types.DocumentGeneric, "Author: Ms. Smith\nRelationship: Teacher\nAuthor: ignored")

	assert.Equal(t, "Ms. Smith", out["author"])
	assert.Equal(t, "Teacher", out["relationship"])
}

func TestRegexExtractor_EmptyText(t *testing.T) {
	out := NewRegexExtractor().ExtractText(types.DocumentEssay, "   \n ")
	assert.Contains(t, out, KeyError)

	_, isFailure := Decode(types.DocumentEssay, out).(*Failure)
	assert.True(t, isFailure)
}
