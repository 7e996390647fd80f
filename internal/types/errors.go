//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
)

// ConfigError represents an invalid profile configuration
type ConfigError struct {
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Entity kinds used in NotFoundError
const (
	KindProfile        = "profile"
	KindSection        = "section"
	KindRecommendation = "recommendation"
	KindDocument       = "document"
	KindNotification   = "notification"
	KindSummary        = "summary"
)

// NotFoundError indicates an unknown entity ID
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NewNotFound builds a NotFoundError for any stringer-like ID
func NewNotFound(kind string, id fmt.Stringer) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id.String()}
}

// IsNotFound reports whether err is or wraps a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ConflictError indicates a transition that the current state does not allow
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Message)
}
