package recommendation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/types"
)

// ProfileProvider supplies profile signals
type ProfileProvider interface {
	Signal(ctx context.Context, userID uuid.UUID) (*types.ProfileSignal, error)
	SimilarProfiles(ctx context.Context, userID uuid.UUID, limit int) ([]types.ProfileSignal, error)
}

// QAProvider supplies recent answers and scores them
type QAProvider interface {
	RecentAnswers(ctx context.Context, userID uuid.UUID, limit int) ([]types.Answer, error)
	EvaluateAnswerQuality(answer types.Answer) float64
}

// DocumentProvider supplies a user's documents and their analyses
type DocumentProvider interface {
	UserDocuments(ctx context.Context, userID uuid.UUID) ([]types.Document, error)
	AnalyzeDocument(ctx context.Context, doc *types.Document) (*types.DocumentAnalysis, error)
}

// NotificationSink is told about every new recommendation
type NotificationSink interface {
	CreateRecommendationNotification(ctx context.Context, userID, recommendationID uuid.UUID, title, description string) (*types.Notification, error)
}

// Repository persists recommendations. GetRecommendation returns nil, nil
// for an unknown ID. Zero start or end times leave that side of the range open.
type Repository interface {
	SaveRecommendation(ctx context.Context, r *types.Recommendation) error
	ListRecommendations(ctx context.Context, userID uuid.UUID, status string) ([]types.Recommendation, error)
	GetRecommendation(ctx context.Context, id uuid.UUID) (*types.Recommendation, error)
	UpdateRecommendation(ctx context.Context, r *types.Recommendation) error
	RecommendationHistory(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]types.Recommendation, error)
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}
