//nolint:revive // types is a standard Go package name pattern
package types

import "github.com/google/uuid"

// ProfileSignal is the slice of a profile that recommendation generators read
type ProfileSignal struct {
	UserID          uuid.UUID          `json:"user_id"`
	ProfileID       uuid.UUID          `json:"profile_id"`
	Quality         float64            `json:"quality"`
	Categories      map[string]float64 `json:"categories"`
	MissingSections []string           `json:"missing_sections"`
	Skills          []string           `json:"skills"`
	Certifications  []string           `json:"certifications"`
	// Titles maps section ID to its display title
	Titles map[string]string `json:"titles,omitempty"`
}
