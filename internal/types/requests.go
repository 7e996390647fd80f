//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// CreateProfileRequest creates a profile; a nil Config uses the default template.
type CreateProfileRequest struct {
	Config   *ProfileConfig `json:"config,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UpdateSectionRequest replaces a section's data
type UpdateSectionRequest struct {
	Title     string         `json:"title,omitempty" validate:"max=120"`
	Data      map[string]any `json:"data" validate:"required"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Completed bool           `json:"completed"`
}

// IngestDocumentRequest adds a document from inline text or a URL
type IngestDocumentRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	DocumentType string `json:"document_type" validate:"required,oneof=transcript essay resume generic"`
	Content      string `json:"content,omitempty" validate:"required_without=URL"`
	URL          string `json:"url,omitempty" validate:"omitempty,url"`
}

// ScoreConfidenceRequest scores an ad-hoc extracted info payload
type ScoreConfidenceRequest struct {
	DocumentType string         `json:"document_type" validate:"required"`
	Info         map[string]any `json:"info" validate:"required"`
}

// CreateAnswerRequest records an answer to a profile question
type CreateAnswerRequest struct {
	Question string `json:"question" validate:"required,max=1000"`
	Answer   string `json:"answer" validate:"required"`
}

// UpdateStatusRequest changes a recommendation's status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active completed dismissed"`
}

// UpdateProgressRequest changes a recommendation's progress
type UpdateProgressRequest struct {
	Progress *float64 `json:"progress" validate:"required,gte=0,lte=1"`
}

// Validate validates the UpdateSectionRequest using the validator.
func (r *UpdateSectionRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the IngestDocumentRequest using the validator.
func (r *IngestDocumentRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the ScoreConfidenceRequest using the validator.
func (r *ScoreConfidenceRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the CreateAnswerRequest using the validator.
func (r *CreateAnswerRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpdateStatusRequest using the validator.
func (r *UpdateStatusRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpdateProgressRequest using the validator.
func (r *UpdateProgressRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
