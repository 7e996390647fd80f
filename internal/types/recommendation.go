//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Recommendation status values
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusDismissed = "dismissed"
)

// Category classifies a recommendation
type Category string

// Recommendation categories
const (
	CategorySkill         Category = "SKILL"
	CategoryCertification Category = "CERTIFICATION"
	CategoryExperience    Category = "EXPERIENCE"
	CategoryEducation     Category = "EDUCATION"
	CategoryProfile       Category = "PROFILE"
	CategoryDocument      Category = "DOCUMENT"
	CategoryInterview     Category = "INTERVIEW"
	CategoryNetworking    Category = "NETWORKING"
)

// Priority bounds
const (
	MinPriority = 1
	MaxPriority = 5
)

// Recommendation is an actionable suggestion for a user
type Recommendation struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Priority    int        `json:"priority"`
	Steps       []Step     `json:"steps"`
	Confidence  float64    `json:"confidence"`
	Status      string     `json:"status"`
	Progress    float64    `json:"progress"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Step is one action item of a recommendation
type Step struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
}

// UnmarshalJSON accepts either a bare string (taken as the title) or a step object.
func (s *Step) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var title string
		if err := json.Unmarshal(data, &title); err != nil {
			return err
		}
		*s = Step{Title: title}
		return nil
	}

	type plain Step
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("step must be a string or an object: %w", err)
	}
	*s = Step(p)
	return nil
}

// StepsFromTitles builds incomplete steps from plain titles
func StepsFromTitles(titles ...string) []Step {
	steps := make([]Step, 0, len(titles))
	for _, t := range titles {
		steps = append(steps, Step{Title: t})
	}
	return steps
}

// IsValidStatus reports whether s is a known recommendation status
func IsValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusCompleted, StatusDismissed:
		return true
	}
	return false
}

// ClampProgress bounds p to [0, 1]
func ClampProgress(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// SetProgress applies a progress update. Reaching 1.0 completes the
// recommendation; CompletedAt is stamped only on the first completion.
func (r *Recommendation) SetProgress(progress float64, now time.Time) {
	r.Progress = ClampProgress(progress)
	if r.Progress >= 1.0 {
		r.markCompleted(now)
	}
	r.UpdatedAt = now
}

// SetStatus applies a status transition
func (r *Recommendation) SetStatus(status string, now time.Time) {
	if status == StatusCompleted {
		r.Progress = 1.0
		r.markCompleted(now)
	} else {
		r.Status = status
	}
	r.UpdatedAt = now
}

func (r *Recommendation) markCompleted(now time.Time) {
	r.Status = StatusCompleted
	if r.CompletedAt == nil {
		t := now
		r.CompletedAt = &t
	}
}

// CanTransition reports whether the lifecycle allows moving to status.
// Completed is terminal; dismissed recommendations may be reactivated.
func (r *Recommendation) CanTransition(status string) bool {
	switch r.Status {
	case StatusCompleted:
		return status == StatusCompleted
	case StatusDismissed:
		return status == StatusDismissed || status == StatusActive
	default:
		return IsValidStatus(status)
	}
}
