package extraction

import (
	"context"
	"regexp"
	"strings"

	"github.com/jonathan/profiler/internal/types"
)

// Extractor produces a raw extraction payload for a document
type Extractor interface {
	Extract(ctx context.Context, docType types.DocumentType, text string) (map[string]any, error)
}

var (
	reLabeled   = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z ]{1,30}?)\s*:\s*(.+?)\s*$`)
	reGPA       = regexp.MustCompile(`(?i)\b(?:cumulative\s+)?gpa\s*[:=]?\s*([0-4](?:\.\d{1,2})?)`)
	reCourse    = regexp.MustCompile(`(?m)^\s*([A-Z]{2,4}\s?\d{3}[A-Z]?)\s+(.+?)\s+([A-F][+-]?|P|NP|IP)(?:\s+(\d+(?:\.\d+)?))?\s*$`)
	reHonors    = regexp.MustCompile(`(?i)\b(dean'?s list|honor roll|cum laude|magna cum laude|summa cum laude|with honors|scholarship)\b`)
	reTestScore = regexp.MustCompile(`(?i)\b(SAT|ACT|AP [A-Za-z ]+?|IB [A-Za-z ]+?|TOEFL|IELTS|GRE)\s*[:=-]?\s*(\d{1,4}(?:\.\d)?)\b`)
	reEmail     = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	reHeading   = regexp.MustCompile(`^\s*#*\s*([A-Za-z &]+?)\s*:?\s*$`)
	reBullet    = regexp.MustCompile(`^\s*(?:[-*•·]|\d+[.)])\s+`)
	reSentence  = regexp.MustCompile(`[^.!?]+[.!?]`)
)

// essayThemes maps a theme to words that signal it
var essayThemes = map[string][]string{
	"leadership": {"lead", "leader", "captain", "president", "organized"},
	"resilience": {"overcame", "struggle", "failure", "setback", "persevere"},
	"community":  {"community", "volunteer", "neighborhood", "service"},
	"identity":   {"culture", "heritage", "identity", "family", "immigrant"},
	"curiosity":  {"curious", "wonder", "discover", "question", "research"},
	"creativity": {"creative", "design", "artist", "music", "writing", "invent"},
	"growth":     {"learned", "grew", "realized", "changed", "taught me"},
}

// resumeSections maps heading words to resume payload keys
var resumeSections = map[string]string{
	"education":        "education",
	"experience":       "experience",
	"employment":       "experience",
	"work history":     "experience",
	"skills":           "skills",
	"achievements":     "achievements",
	"awards":           "achievements",
	"honors":           "achievements",
	"activities":       "activities",
	"extracurriculars": "activities",
	"summary":          "summary",
	"objective":        "summary",
}

// RegexExtractor extracts fields with line-oriented patterns. It never calls
// out and is always available as the baseline extractor.
type RegexExtractor struct{}

// NewRegexExtractor creates a RegexExtractor
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Extract implements Extractor
func (e *RegexExtractor) Extract(_ context.Context, docType types.DocumentType, text string) (map[string]any, error) {
	return e.ExtractText(docType, text), nil
}

// ExtractText runs the patterns for docType over text
func (e *RegexExtractor) ExtractText(docType types.DocumentType, text string) map[string]any {
	if strings.TrimSpace(text) == "" {
		return map[string]any{KeySourceType: SourceRegex, KeyError: "document has no extractable text"}
	}

	var out map[string]any
	switch docType {
	case types.DocumentTranscript:
		out = extractTranscript(text)
	case types.DocumentEssay:
		out = extractEssay(text)
	case types.DocumentResume:
		out = extractResume(text)
	default:
		out = labeledFields(text)
	}
	out[KeySourceType] = SourceRegex
	return out
}

func labeledFields(text string) map[string]any {
	out := make(map[string]any)
	for _, m := range reLabeled.FindAllStringSubmatch(text, -1) {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(m[1])), " ", "_")
		if _, exists := out[key]; !exists {
			out[key] = m[2]
		}
	}
	return out
}

func extractTranscript(text string) map[string]any {
	labels := labeledFields(text)
	out := make(map[string]any)

	if v := firstString(labels, "student_name", "student", "name"); v != "" {
		out["student_name"] = v
	}
	if v := firstString(labels, "institution", "school", "university", "college"); v != "" {
		out["institution"] = v
	}
	if v := firstString(labels, "academic_standing", "standing"); v != "" {
		out["academic_standing"] = v
	}
	if m := reGPA.FindStringSubmatch(text); m != nil {
		out["gpa"] = m[1]
	}

	var courses, grades []any
	for _, m := range reCourse.FindAllStringSubmatch(text, -1) {
		course := map[string]any{
			"name":  strings.TrimSpace(m[1] + " " + m[2]),
			"grade": m[3],
		}
		if m[4] != "" {
			course["credits"] = m[4]
		}
		courses = append(courses, course)
		grades = append(grades, m[3])
	}
	if len(courses) > 0 {
		out["courses"] = courses
		out["grades"] = grades
	}

	if honors := uniqueMatches(reHonors, text, 1); len(honors) > 0 {
		out["honors"] = honors
	}

	scores := make(map[string]any)
	for _, m := range reTestScore.FindAllStringSubmatch(text, -1) {
		scores[strings.TrimSpace(m[1])] = m[2]
	}
	if len(scores) > 0 {
		out["test_scores"] = scores
	}

	return out
}

func extractEssay(text string) map[string]any {
	out := make(map[string]any)
	labels := labeledFields(text)

	paragraphs := splitParagraphs(text)
	body := paragraphs
	if len(paragraphs) > 1 {
		first := paragraphs[0]
		if len(first) < 100 && !strings.HasSuffix(first, ".") && !strings.Contains(first, ":") {
			out["title"] = first
			body = paragraphs[1:]
		}
	}
	if v := firstString(labels, "topic", "prompt"); v != "" {
		out["topic"] = v
		body = dropLabeled(body)
	}

	content := strings.Join(body, "\n\n")
	out["content"] = content
	out["word_count"] = len(strings.Fields(content))

	var keyPoints []any
	for _, p := range body {
		if s := reSentence.FindString(p); s != "" {
			keyPoints = append(keyPoints, strings.TrimSpace(s))
		}
	}
	if len(keyPoints) > 0 {
		out["key_points"] = keyPoints
	}

	lower := strings.ToLower(content)
	var themes []any
	for _, theme := range sortedThemeNames() {
		for _, signal := range essayThemes[theme] {
			if strings.Contains(lower, signal) {
				themes = append(themes, theme)
				break
			}
		}
	}
	if len(themes) > 0 {
		out["themes"] = themes
	}

	return out
}

func extractResume(text string) map[string]any {
	out := make(map[string]any)
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			out["name"] = s
			break
		}
	}
	if email := reEmail.FindString(text); email != "" {
		out["email"] = email
	}

	sections := make(map[string][]string)
	current := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := reHeading.FindStringSubmatch(trimmed); m != nil {
			if key, ok := resumeSections[strings.ToLower(strings.TrimSpace(m[1]))]; ok {
				current = key
				continue
			}
		}
		if current == "" {
			continue
		}
		sections[current] = append(sections[current], reBullet.ReplaceAllString(trimmed, ""))
	}

	if lines := sections["summary"]; len(lines) > 0 {
		out["summary"] = strings.Join(lines, " ")
	}
	if lines := sections["skills"]; len(lines) > 0 {
		var skills []any
		for _, s := range asStringList(strings.Join(lines, ",")) {
			skills = append(skills, s)
		}
		out["skills"] = skills
	}
	for _, key := range []string{"education", "achievements", "activities"} {
		if lines := sections[key]; len(lines) > 0 {
			out[key] = toAnyList(lines)
		}
	}
	if lines := sections["experience"]; len(lines) > 0 {
		var experience []any
		for _, l := range lines {
			title, org, _ := strings.Cut(l, " at ")
			entry := map[string]any{"title": strings.TrimSpace(title)}
			if org != "" {
				entry["organization"] = strings.TrimSpace(org)
			}
			experience = append(experience, entry)
		}
		out["experience"] = experience
	}

	return out
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dropLabeled(paragraphs []string) []string {
	out := paragraphs[:0:0]
	for _, p := range paragraphs {
		if reLabeled.MatchString(p) && !strings.Contains(p, "\n") && len(p) < 300 {
			continue
		}
		out = append(out, p)
	}
	return out
}

func uniqueMatches(re *regexp.Regexp, text string, group int) []any {
	seen := make(map[string]bool)
	var out []any
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		key := strings.ToLower(m[group])
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m[group])
	}
	return out
}

func toAnyList(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

func sortedThemeNames() []string {
	names := make(map[string]any, len(essayThemes))
	for k := range essayThemes {
		names[k] = nil
	}
	return sortedKeys(names)
}
