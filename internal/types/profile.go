// Package types provides type definitions for structured data used throughout the profiler system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile status values
const (
	ProfileStatusDraft      = "draft"
	ProfileStatusInProgress = "in_progress"
	ProfileStatusCompleted  = "completed"
)

// Profile is a user's sectioned profile. Sections are keyed by section ID and
// must all be members of Config.Sections.
type Profile struct {
	ID             uuid.UUID               `json:"profile_id"`
	UserID         uuid.UUID               `json:"user_id"`
	CurrentSection string                  `json:"current_section"`
	Sections       map[string]*SectionData `json:"sections"`
	Metadata       map[string]any          `json:"metadata,omitempty"`
	Config         ProfileConfig           `json:"config"`
	Status         string                  `json:"status"`
	CreatedAt      time.Time               `json:"created_at"`
	LastUpdated    time.Time               `json:"last_updated"`
}

// SectionData holds the data filled in for one profile section
type SectionData struct {
	SectionID   string         `json:"section_id"`
	Title       string         `json:"title"`
	Data        map[string]any `json:"data"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Completed   bool           `json:"completed"`
	LastUpdated time.Time      `json:"last_updated"`
}

// ProfileConfig defines the legal section graph of a profile.
// ValidationRules maps section ID -> field -> validator tag (e.g. "required,min=2").
type ProfileConfig struct {
	Sections            []string                     `json:"sections" yaml:"sections"`
	Titles              map[string]string            `json:"titles,omitempty" yaml:"titles,omitempty"`
	RequiredSections    []string                     `json:"required_sections" yaml:"required_sections"`
	SectionDependencies map[string][]string          `json:"section_dependencies" yaml:"section_dependencies"`
	ValidationRules     map[string]map[string]string `json:"validation_rules,omitempty" yaml:"validation_rules,omitempty"`
}

// HasSection reports whether id is one of the configured sections
func (c *ProfileConfig) HasSection(id string) bool {
	for _, s := range c.Sections {
		if s == id {
			return true
		}
	}
	return false
}

// IsRequired reports whether id is a required section
func (c *ProfileConfig) IsRequired(id string) bool {
	for _, s := range c.RequiredSections {
		if s == id {
			return true
		}
	}
	return false
}

// Title returns the display title for a section, falling back to the ID
func (c *ProfileConfig) Title(id string) string {
	if t, ok := c.Titles[id]; ok && t != "" {
		return t
	}
	return id
}

// Validate checks that the section graph is well formed: unique sections,
// known required sections and prerequisites, and no dependency cycles.
func (c *ProfileConfig) Validate() error {
	if len(c.Sections) == 0 {
		return &ConfigError{Message: "at least one section is required"}
	}

	seen := make(map[string]bool, len(c.Sections))
	for _, s := range c.Sections {
		if s == "" {
			return &ConfigError{Message: "section id must not be empty"}
		}
		if seen[s] {
			return &ConfigError{Message: fmt.Sprintf("duplicate section %q", s)}
		}
		seen[s] = true
	}

	for _, s := range c.RequiredSections {
		if !seen[s] {
			return &ConfigError{Message: fmt.Sprintf("required section %q is not a configured section", s)}
		}
	}

	for section, prereqs := range c.SectionDependencies {
		if !seen[section] {
			return &ConfigError{Message: fmt.Sprintf("dependencies declared for unknown section %q", section)}
		}
		for _, p := range prereqs {
			if !seen[p] {
				return &ConfigError{Message: fmt.Sprintf("section %q depends on unknown section %q", section, p)}
			}
		}
	}

	for section := range c.ValidationRules {
		if !seen[section] {
			return &ConfigError{Message: fmt.Sprintf("validation rules declared for unknown section %q", section)}
		}
	}

	if cycle := c.findCycle(); cycle != nil {
		return &ConfigError{Message: fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> "))}
	}

	return nil
}

// findCycle runs a colored DFS over the dependency graph in section order and
// returns the first cycle found, closed on its starting node.
func (c *ProfileConfig) findCycle() []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(c.Sections))
	var stack []string

	var visit func(n string) []string
	visit = func(n string) []string {
		color[n] = grey
		stack = append(stack, n)
		for _, dep := range c.SectionDependencies[n] {
			switch color[dep] {
			case grey:
				for i, s := range stack {
					if s == dep {
						cycle := append([]string{}, stack[i:]...)
						return append(cycle, dep)
					}
				}
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return nil
	}

	for _, s := range c.Sections {
		if color[s] == white {
			if cycle := visit(s); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// CategoryData returns section data keyed by section ID, the shape the
// quality scorer consumes.
func (p *Profile) CategoryData() map[string]any {
	out := make(map[string]any, len(p.Sections))
	for id, section := range p.Sections {
		if section == nil || len(section.Data) == 0 {
			continue
		}
		out[id] = section.Data
	}
	return out
}

// ProfileState is the derived view of a profile's progress
type ProfileState struct {
	ProfileID         uuid.UUID      `json:"profile_id"`
	CurrentSection    string         `json:"current_section"`
	SectionsCompleted []string       `json:"sections_completed"`
	SectionsRemaining []string       `json:"sections_remaining"`
	NextSection       *string        `json:"next_section"`
	ProfileData       map[string]any `json:"profile_data"`
	CompletionRatio   float64        `json:"completion_ratio"`
	Status            string         `json:"status"`
}

// ProfileSummary is the latest derived snapshot for a user; it is overwritten on refresh
type ProfileSummary struct {
	UserID              uuid.UUID `json:"user_id"`
	Strengths           []string  `json:"strengths"`
	AreasForImprovement []string  `json:"areas_for_improvement"`
	UniqueSellingPoints []string  `json:"unique_selling_points"`
	OverallQuality      float64   `json:"overall_quality"`
	LastUpdated         time.Time `json:"last_updated"`
}

// ProfileQuality is the response of a quality scoring request
type ProfileQuality struct {
	ProfileID      uuid.UUID          `json:"profile_id"`
	OverallQuality float64            `json:"overall_quality"`
	Categories     map[string]float64 `json:"categories"`
}
