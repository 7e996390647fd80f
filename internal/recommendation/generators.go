package recommendation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/profiler/internal/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Generator thresholds
const (
	weakCategoryThreshold = 0.4
	minSkillCount         = 5
	weakAnswerThreshold   = 0.5
	lowDocumentConfidence = 0.5
	maxPeerSuggestions    = 3
	maxWeakAnswers        = 3
)

// expectedDocuments are the document types a complete application carries
var expectedDocuments = []types.DocumentType{
	types.DocumentTranscript,
	types.DocumentEssay,
	types.DocumentResume,
}

// DocumentSignal pairs a document with its analysis
type DocumentSignal struct {
	Document types.Document
	Analysis *types.DocumentAnalysis
}

// ScoredAnswer pairs an answer with its quality score
type ScoredAnswer struct {
	Answer  types.Answer
	Quality float64
}

// displayName returns the configured title for a section, or a title-cased
// form of its ID
func displayName(titles map[string]string, id string) string {
	if t := titles[id]; t != "" {
		return t
	}
	// Casers are stateful, so each call gets its own
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}

// FromProfile suggests completing required sections, strengthening weak
// categories and listing more skills.
func FromProfile(sig *types.ProfileSignal) []types.Recommendation {
	if sig == nil {
		return nil
	}
	var out []types.Recommendation

	missing := make(map[string]bool, len(sig.MissingSections))
	for _, id := range sig.MissingSections {
		missing[id] = true
		name := displayName(sig.Titles, id)
		out = append(out, types.Recommendation{
			Title:       fmt.Sprintf("Complete your %s section", name),
			Description: fmt.Sprintf("%s is required before your profile can be considered complete.", name),
			Category:    types.CategoryProfile,
			Priority:    5,
			Confidence:  0.9,
			Steps: types.StepsFromTitles(
				fmt.Sprintf("Open the %s section", name),
				"Fill in every required field",
				"Mark the section as complete",
			),
		})
	}

	categories := make([]string, 0, len(sig.Categories))
	for id := range sig.Categories {
		categories = append(categories, id)
	}
	sort.Strings(categories)
	for _, id := range categories {
		score := sig.Categories[id]
		if missing[id] || score >= weakCategoryThreshold {
			continue
		}
		name := displayName(sig.Titles, id)
		out = append(out, types.Recommendation{
			Title:       fmt.Sprintf("Strengthen your %s", name),
			Description: fmt.Sprintf("Your %s scores %.0f%%; adding detail will raise your overall profile quality.", name, score*100),
			Category:    types.CategoryProfile,
			Priority:    3,
			Confidence:  0.7,
			Steps: types.StepsFromTitles(
				fmt.Sprintf("Review the %s section", name),
				"Add specific examples and results",
			),
		})
	}

	if len(sig.Skills) < minSkillCount {
		out = append(out, types.Recommendation{
			Title:       "Add more skills to your profile",
			Description: fmt.Sprintf("You list %d skills. Profiles with at least %d stand out to reviewers.", len(sig.Skills), minSkillCount),
			Category:    types.CategorySkill,
			Priority:    3,
			Confidence:  0.8,
			Steps: types.StepsFromTitles(
				"List technical skills from your coursework and projects",
				"Add languages and tools you use regularly",
			),
		})
	}
	return out
}

// FromPeers suggests certifications and skills common among similar profiles
// that the user does not have yet.
func FromPeers(self *types.ProfileSignal, peers []types.ProfileSignal) []types.Recommendation {
	if self == nil || len(peers) == 0 {
		return nil
	}
	minCount := 2
	if len(peers) < 2 {
		minCount = 1
	}

	var out []types.Recommendation
	for _, c := range peerCounts(self.Certifications, peers, func(p types.ProfileSignal) []string { return p.Certifications }, minCount) {
		out = append(out, types.Recommendation{
			Title:       fmt.Sprintf("%s certification", c.name),
			Description: fmt.Sprintf("%d of %d similar profiles hold this certification.", c.count, len(peers)),
			Category:    types.CategoryCertification,
			Priority:    3,
			Confidence:  peerConfidence(c.count, len(peers)),
			Steps: types.StepsFromTitles(
				fmt.Sprintf("Review the %s exam requirements", c.name),
				"Schedule the exam",
				"Add the certification to your profile",
			),
		})
	}
	for _, c := range peerCounts(self.Skills, peers, func(p types.ProfileSignal) []string { return p.Skills }, minCount) {
		out = append(out, types.Recommendation{
			Title:       fmt.Sprintf("Learn %s", c.name),
			Description: fmt.Sprintf("%d of %d similar profiles list %s.", c.count, len(peers), c.name),
			Category:    types.CategorySkill,
			Priority:    2,
			Confidence:  peerConfidence(c.count, len(peers)),
			Steps: types.StepsFromTitles(
				fmt.Sprintf("Find an introductory %s course", c.name),
				fmt.Sprintf("Build a small project with %s", c.name),
			),
		})
	}
	return out
}

type peerCount struct {
	name  string
	count int
}

// peerCounts counts values held by peers and missing from have, most common first
func peerCounts(have []string, peers []types.ProfileSignal, values func(types.ProfileSignal) []string, minCount int) []peerCount {
	owned := make(map[string]bool, len(have))
	for _, h := range have {
		owned[strings.ToLower(h)] = true
	}

	counts := make(map[string]*peerCount)
	for _, p := range peers {
		seen := make(map[string]bool)
		for _, v := range values(p) {
			key := strings.ToLower(v)
			if owned[key] || seen[key] {
				continue
			}
			seen[key] = true
			if c, ok := counts[key]; ok {
				c.count++
			} else {
				counts[key] = &peerCount{name: v, count: 1}
			}
		}
	}

	var out []peerCount
	for _, c := range counts {
		if c.count >= minCount {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return strings.ToLower(out[i].name) < strings.ToLower(out[j].name)
	})
	if len(out) > maxPeerSuggestions {
		out = out[:maxPeerSuggestions]
	}
	return out
}

func peerConfidence(count, total int) float64 {
	c := float64(count) / float64(total)
	if c < 0.5 {
		return 0.5
	}
	if c > 0.95 {
		return 0.95
	}
	return c
}

// FromDocuments suggests uploading missing document types and fixing
// analysis issues.
func FromDocuments(docs []DocumentSignal) []types.Recommendation {
	var out []types.Recommendation

	present := make(map[types.DocumentType]bool)
	for _, d := range docs {
		present[d.Document.DocumentType] = true
	}
	for _, dt := range expectedDocuments {
		if present[dt] {
			continue
		}
		out = append(out, types.Recommendation{
			Title:       fmt.Sprintf("Upload your %s", dt),
			Description: fmt.Sprintf("No %s is on file. Reviewers expect one with every application.", dt),
			Category:    types.CategoryDocument,
			Priority:    2,
			Confidence:  0.6,
			Steps:       types.StepsFromTitles(fmt.Sprintf("Upload or link your latest %s", dt)),
		})
	}

	for _, d := range docs {
		if d.Analysis == nil {
			continue
		}
		if len(d.Analysis.Issues) == 0 && d.Analysis.Confidence >= lowDocumentConfidence {
			continue
		}

		priority := 3
		var steps []types.Step
		for _, issue := range d.Analysis.Issues {
			if issue.Severity == types.SeverityError {
				priority = 4
			}
			steps = append(steps, types.Step{Title: issue.Description})
		}
		if d.Analysis.Confidence < lowDocumentConfidence {
			steps = append(steps, types.Step{Title: "Upload a clearer or more complete version"})
		}

		out = append(out, types.Recommendation{
			Title:       fmt.Sprintf("Review your %s", d.Document.Title),
			Description: fmt.Sprintf("Analysis found %d issue(s) with %.0f%% confidence.", len(d.Analysis.Issues), d.Analysis.Confidence*100),
			Category:    types.CategoryDocument,
			Priority:    priority,
			Confidence:  0.7,
			Steps:       steps,
		})
	}
	return out
}

// FromAnswers suggests reworking the weakest answers
func FromAnswers(answers []ScoredAnswer) []types.Recommendation {
	var weak []ScoredAnswer
	for _, a := range answers {
		if a.Quality < weakAnswerThreshold {
			weak = append(weak, a)
		}
	}
	if len(weak) == 0 {
		return nil
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].Quality < weak[j].Quality })

	steps := make([]types.Step, 0, maxWeakAnswers)
	for i, a := range weak {
		if i == maxWeakAnswers {
			break
		}
		steps = append(steps, types.Step{
			Title:       fmt.Sprintf("Revise: %s", a.Answer.Question),
			Description: "Add a concrete example with the outcome and your role in it.",
		})
	}

	return []types.Recommendation{{
		Title:       "Strengthen your interview answers",
		Description: fmt.Sprintf("%d of your %d recent answers are brief or lack specifics.", len(weak), len(answers)),
		Category:    types.CategoryInterview,
		Priority:    3,
		Confidence:  0.75,
		Steps:       steps,
	}}
}
