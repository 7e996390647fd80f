// Package notification stores user notifications and optionally forwards
// them to a webhook.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/types"
)

// Store persists notifications
type Store interface {
	SaveNotification(ctx context.Context, n *types.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]types.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service creates and lists notifications
type Service struct {
	store  Store
	pusher Pusher
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a notification service. pusher may be nil.
func NewService(store Store, pusher Pusher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, pusher: pusher, logger: logger, now: time.Now}
}

// Create stores a notification and then pushes it. A push failure is logged
// and does not fail the call.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, kind, title, message string, recommendationID *uuid.UUID) (*types.Notification, error) {
	n := &types.Notification{
		ID:               uuid.New(),
		UserID:           userID,
		Type:             kind,
		Title:            title,
		Message:          message,
		RecommendationID: recommendationID,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.store.SaveNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}

	if s.pusher != nil {
		if err := s.pusher.Push(ctx, n); err != nil {
			s.logger.Warn("notification push failed", "notification_id", n.ID, "user_id", userID, "error", err)
		}
	}
	return n, nil
}

// CreateRecommendationNotification announces a new recommendation
func (s *Service) CreateRecommendationNotification(ctx context.Context, userID, recommendationID uuid.UUID, title, description string) (*types.Notification, error) {
	return s.Create(ctx, userID, types.NotificationRecommendation,
		fmt.Sprintf("New recommendation: %s", title), description, &recommendationID)
}

// List returns a user's notifications, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]types.Notification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly)
}

// MarkRead marks a notification as read
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	ok, err := s.store.MarkNotificationRead(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return types.NewNotFound(types.KindNotification, id)
	}
	return nil
}
