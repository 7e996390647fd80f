// Package extraction turns raw document text into typed extracted information.
//
// Extractors produce loosely shaped map[string]any payloads tagged with a
// source_type. Decode normalizes such a payload into one variant of Info, so
// downstream scoring can switch on the variant instead of probing keys.
package extraction

import (
	"sort"

	"github.com/jonathan/profiler/internal/types"
)

// Source types recorded in extracted payloads
const (
	SourceRegex = "regex"
	SourceLLM   = "llm"
)

// Payload keys with structural meaning
const (
	KeySourceType = "source_type"
	KeyError      = "error"
)

// maxProvenanceDepth is how deep Decode looks into dict-valued fields for source tags.
const maxProvenanceDepth = 2

// Info is extracted document information. The concrete type is one of
// *TranscriptInfo, *EssayInfo, *ResumeInfo, *GenericInfo or *Failure.
type Info interface {
	DocumentType() types.DocumentType
	Provenance() Provenance
	isInfo()
}

// Provenance records the source that produced a payload and the sources of
// any nested payloads merged into it.
type Provenance struct {
	SourceType string       `json:"source_type,omitempty"`
	Nested     []Provenance `json:"nested,omitempty"`
}

// Sources returns the distinct source types in the provenance tree, sorted.
func (p Provenance) Sources() []string {
	seen := make(map[string]bool)
	var walk func(p Provenance)
	walk = func(p Provenance) {
		if p.SourceType != "" {
			seen[p.SourceType] = true
		}
		for _, n := range p.Nested {
			walk(n)
		}
	}
	walk(p)

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Course is a single transcript course line
type Course struct {
	Name    string  `json:"name"`
	Grade   string  `json:"grade,omitempty"`
	Credits float64 `json:"credits,omitempty"`
}

// TranscriptInfo is extracted from an academic transcript
type TranscriptInfo struct {
	Origin           Provenance         `json:"provenance"`
	StudentName      string             `json:"student_name,omitempty"`
	Institution      string             `json:"institution,omitempty"`
	GPA              float64            `json:"gpa,omitempty"`
	Courses          []Course           `json:"courses,omitempty"`
	Grades           []string           `json:"grades,omitempty"`
	Honors           []string           `json:"honors,omitempty"`
	AcademicStanding string             `json:"academic_standing,omitempty"`
	TestScores       map[string]float64 `json:"test_scores,omitempty"`
}

// EssayInfo is extracted from a personal or supplemental essay
type EssayInfo struct {
	Origin    Provenance `json:"provenance"`
	Title     string     `json:"title,omitempty"`
	Topic     string     `json:"topic,omitempty"`
	Content   string     `json:"content,omitempty"`
	WordCount int        `json:"word_count,omitempty"`
	Themes    []string   `json:"themes,omitempty"`
	KeyPoints []string   `json:"key_points,omitempty"`
	Tone      string     `json:"tone,omitempty"`
}

// Experience is a single resume experience entry
type Experience struct {
	Title        string `json:"title"`
	Organization string `json:"organization,omitempty"`
	Description  string `json:"description,omitempty"`
}

// ResumeInfo is extracted from a resume
type ResumeInfo struct {
	Origin       Provenance   `json:"provenance"`
	Name         string       `json:"name,omitempty"`
	Email        string       `json:"email,omitempty"`
	Summary      string       `json:"summary,omitempty"`
	Education    []string     `json:"education,omitempty"`
	Experience   []Experience `json:"experience,omitempty"`
	Skills       []string     `json:"skills,omitempty"`
	Achievements []string     `json:"achievements,omitempty"`
	Activities   []string     `json:"activities,omitempty"`
}

// GenericInfo holds fields of a document type with no dedicated shape
type GenericInfo struct {
	Origin Provenance     `json:"provenance"`
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields"`
}

// Failure marks a payload that carried an error instead of data
type Failure struct {
	Origin  Provenance         `json:"provenance"`
	Type    types.DocumentType `json:"type"`
	Message string             `json:"error"`
}

func (i *TranscriptInfo) DocumentType() types.DocumentType { return types.DocumentTranscript }
func (i *EssayInfo) DocumentType() types.DocumentType      { return types.DocumentEssay }
func (i *ResumeInfo) DocumentType() types.DocumentType     { return types.DocumentResume }
func (i *GenericInfo) DocumentType() types.DocumentType    { return types.DocumentGeneric }
func (i *Failure) DocumentType() types.DocumentType        { return i.Type }

func (i *TranscriptInfo) Provenance() Provenance { return i.Origin }
func (i *EssayInfo) Provenance() Provenance      { return i.Origin }
func (i *ResumeInfo) Provenance() Provenance     { return i.Origin }
func (i *GenericInfo) Provenance() Provenance    { return i.Origin }
func (i *Failure) Provenance() Provenance        { return i.Origin }

func (*TranscriptInfo) isInfo() {}
func (*EssayInfo) isInfo()      {}
func (*ResumeInfo) isInfo()     {}
func (*GenericInfo) isInfo()    {}
func (*Failure) isInfo()        {}
