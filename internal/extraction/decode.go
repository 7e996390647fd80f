package extraction

import (
	"strings"

	"github.com/jonathan/profiler/internal/types"
)

// Decode normalizes a raw extraction payload into the Info variant for
// docType. A payload carrying an "error" key decodes to *Failure regardless
// of type. Decode never fails: unrecognized or malformed fields are dropped.
func Decode(docType types.DocumentType, raw map[string]any) Info {
	origin := decodeProvenance(raw, 0)

	if errVal, ok := raw[KeyError]; ok {
		return &Failure{Origin: origin, Type: docType, Message: describe(errVal)}
	}

	switch docType {
	case types.DocumentTranscript:
		return decodeTranscript(raw, origin)
	case types.DocumentEssay:
		return decodeEssay(raw, origin)
	case types.DocumentResume:
		return decodeResume(raw, origin)
	default:
		fields := make(map[string]any, len(raw))
		for k, v := range raw {
			if k == KeySourceType {
				continue
			}
			fields[k] = v
		}
		return &GenericInfo{Origin: origin, Type: string(docType), Fields: fields}
	}
}

// decodeProvenance reads source_type at this level and recurses into
// dict-valued fields up to maxProvenanceDepth.
func decodeProvenance(m map[string]any, depth int) Provenance {
	p := Provenance{SourceType: asString(m[KeySourceType])}
	if depth >= maxProvenanceDepth {
		return p
	}
	for _, k := range sortedKeys(m) {
		child := asMap(m[k])
		if child == nil {
			continue
		}
		np := decodeProvenance(child, depth+1)
		if np.SourceType != "" || len(np.Nested) > 0 {
			p.Nested = append(p.Nested, np)
		}
	}
	return p
}

func decodeTranscript(raw map[string]any, origin Provenance) *TranscriptInfo {
	info := &TranscriptInfo{
		Origin:           origin,
		StudentName:      firstString(raw, "student_name", "name"),
		Institution:      firstString(raw, "institution", "school", "university"),
		Grades:           asStringList(raw["grades"]),
		Honors:           asStringList(raw["honors"]),
		AcademicStanding: firstString(raw, "academic_standing", "standing"),
	}
	if gpa, ok := asFloat(raw["gpa"]); ok {
		info.GPA = gpa
	}

	for _, item := range asList(raw["courses"]) {
		switch c := item.(type) {
		case map[string]any:
			course := Course{
				Name:  firstString(c, "name", "course", "title"),
				Grade: firstString(c, "grade"),
			}
			if credits, ok := asFloat(c["credits"]); ok {
				course.Credits = credits
			}
			if course.Name != "" {
				info.Courses = append(info.Courses, course)
			}
		default:
			if name := asString(c); name != "" {
				info.Courses = append(info.Courses, Course{Name: name})
			}
		}
	}

	if scores := asMap(raw["test_scores"]); len(scores) > 0 {
		info.TestScores = make(map[string]float64, len(scores))
		for name, v := range scores {
			if f, ok := asFloat(v); ok {
				info.TestScores[name] = f
			}
		}
	}

	return info
}

func decodeEssay(raw map[string]any, origin Provenance) *EssayInfo {
	info := &EssayInfo{
		Origin:    origin,
		Title:     firstString(raw, "title"),
		Topic:     firstString(raw, "topic", "prompt"),
		Content:   firstString(raw, "content", "text", "body"),
		WordCount: asInt(raw["word_count"]),
		Themes:    asStringList(raw["themes"]),
		KeyPoints: asStringList(firstValue(raw, "key_points", "main_points")),
		Tone:      firstString(raw, "tone"),
	}
	if info.WordCount == 0 && info.Content != "" {
		info.WordCount = len(strings.Fields(info.Content))
	}
	return info
}

func decodeResume(raw map[string]any, origin Provenance) *ResumeInfo {
	info := &ResumeInfo{
		Origin:       origin,
		Name:         firstString(raw, "name", "full_name"),
		Email:        firstString(raw, "email"),
		Summary:      firstString(raw, "summary", "objective"),
		Skills:       asStringList(raw["skills"]),
		Achievements: asStringList(firstValue(raw, "achievements", "awards")),
		Activities:   asStringList(raw["activities"]),
	}

	for _, item := range asList(raw["education"]) {
		switch e := item.(type) {
		case map[string]any:
			parts := make([]string, 0, 2)
			for _, k := range []string{"degree", "institution", "school"} {
				if s := asString(e[k]); s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				info.Education = append(info.Education, strings.Join(parts, ", "))
			}
		default:
			if s := asString(e); s != "" {
				info.Education = append(info.Education, s)
			}
		}
	}
	if s, ok := raw["education"].(string); ok && strings.TrimSpace(s) != "" {
		info.Education = asStringList(s)
	}

	for _, item := range asList(raw["experience"]) {
		switch e := item.(type) {
		case map[string]any:
			exp := Experience{
				Title:        firstString(e, "title", "role", "position"),
				Organization: firstString(e, "organization", "company", "employer"),
				Description:  firstString(e, "description", "summary"),
			}
			if exp.Title != "" || exp.Organization != "" {
				info.Experience = append(info.Experience, exp)
			}
		default:
			if s := asString(e); s != "" {
				info.Experience = append(info.Experience, Experience{Title: s})
			}
		}
	}

	return info
}
