// Package profile manages sectioned user profiles: state derivation, section
// updates, quality scoring, summaries and the profile template.
package profile

import (
	"github.com/jonathan/profiler/internal/types"
)

// StateCalculator derives progress from a profile and its section graph
type StateCalculator struct{}

// NewStateCalculator creates a StateCalculator
func NewStateCalculator() *StateCalculator {
	return &StateCalculator{}
}

// CalculateState returns completed and remaining sections in config order,
// the merged section data and the next eligible section.
func (c *StateCalculator) CalculateState(p *types.Profile) types.ProfileState {
	state := types.ProfileState{
		ProfileID:         p.ID,
		CurrentSection:    p.CurrentSection,
		SectionsCompleted: []string{},
		SectionsRemaining: []string{},
		ProfileData:       make(map[string]any),
		Status:            p.Status,
	}

	for _, id := range p.Config.Sections {
		section := p.Sections[id]
		if section != nil && section.Completed {
			state.SectionsCompleted = append(state.SectionsCompleted, id)
		} else {
			state.SectionsRemaining = append(state.SectionsRemaining, id)
		}
		if section != nil {
			// later sections overwrite keys from earlier ones
			for k, v := range section.Data {
				state.ProfileData[k] = v
			}
		}
	}

	if total := len(p.Config.Sections); total > 0 {
		state.CompletionRatio = float64(len(state.SectionsCompleted)) / float64(total)
	}
	if next, ok := c.NextSection(p); ok {
		state.NextSection = &next
	}
	return state
}

// NextSection returns the first configured section that is not completed and
// whose prerequisites are all completed. A cyclic graph never yields a section.
func (c *StateCalculator) NextSection(p *types.Profile) (string, bool) {
	for _, id := range p.Config.Sections {
		if isCompleted(p, id) {
			continue
		}
		if prerequisitesMet(p, id) {
			return id, true
		}
	}
	return "", false
}

// IncompletePrerequisites returns the prerequisites of id that are not completed
func IncompletePrerequisites(p *types.Profile, id string) []string {
	var out []string
	for _, dep := range p.Config.SectionDependencies[id] {
		if !isCompleted(p, dep) {
			out = append(out, dep)
		}
	}
	return out
}

// CompletedDependents lists the completed sections that list id as a
// prerequisite, in configured order
func CompletedDependents(p *types.Profile, id string) []string {
	var out []string
	for _, section := range p.Config.Sections {
		if !isCompleted(p, section) {
			continue
		}
		for _, dep := range p.Config.SectionDependencies[section] {
			if dep == id {
				out = append(out, section)
				break
			}
		}
	}
	return out
}

func prerequisitesMet(p *types.Profile, id string) bool {
	return len(IncompletePrerequisites(p, id)) == 0
}

func isCompleted(p *types.Profile, id string) bool {
	section, ok := p.Sections[id]
	return ok && section != nil && section.Completed
}

// statusFor derives a profile status from its sections
func statusFor(p *types.Profile) string {
	anyData := false
	for _, section := range p.Sections {
		if section != nil && (section.Completed || len(section.Data) > 0) {
			anyData = true
			break
		}
	}
	if !anyData {
		return types.ProfileStatusDraft
	}

	required := p.Config.RequiredSections
	if len(required) == 0 {
		required = p.Config.Sections
	}
	for _, id := range required {
		if !isCompleted(p, id) {
			return types.ProfileStatusInProgress
		}
	}
	return types.ProfileStatusCompleted
}
