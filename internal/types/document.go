//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType selects the extraction and scoring tables for a document
type DocumentType string

// Known document types; anything else is scored as generic
const (
	DocumentTranscript DocumentType = "transcript"
	DocumentEssay      DocumentType = "essay"
	DocumentResume     DocumentType = "resume"
	DocumentGeneric    DocumentType = "generic"
)

// ParseDocumentType normalizes a document type string; unknown values map to generic
func ParseDocumentType(s string) DocumentType {
	switch DocumentType(s) {
	case DocumentTranscript, DocumentEssay, DocumentResume:
		return DocumentType(s)
	default:
		return DocumentGeneric
	}
}

// Document is an uploaded or ingested user document
type Document struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"user_id"`
	Title        string       `json:"title"`
	DocumentType DocumentType `json:"document_type"`
	Content      string       `json:"content"`
	SourceURL    string       `json:"source_url,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Issue is one problem found while analyzing a document
type Issue struct {
	Field       string `json:"field,omitempty"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Issue severities
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// DocumentAnalysis is the result of extracting and scoring a document
type DocumentAnalysis struct {
	DocumentID   uuid.UUID    `json:"document_id"`
	DocumentType DocumentType `json:"document_type"`
	Confidence   float64      `json:"confidence"`
	Sources      []string     `json:"sources"`
	Extracted    any          `json:"extracted"`
	Issues       []Issue      `json:"issues"`
}
