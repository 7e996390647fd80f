//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	NotificationRecommendation = "recommendation"
	NotificationProfile        = "profile"
)

// Notification is a persisted message for a user
type Notification struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	Type             string     `json:"type"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	RecommendationID *uuid.UUID `json:"recommendation_id,omitempty"`
	Read             bool       `json:"read"`
	CreatedAt        time.Time  `json:"created_at"`
}
