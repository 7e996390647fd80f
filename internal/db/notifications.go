package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/types"
)

// -----------------------------------------------------------------------------
// Notification Methods
// -----------------------------------------------------------------------------

// SaveNotification inserts a notification
func (db *DB) SaveNotification(ctx context.Context, n *types.Notification) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, recommendation_id, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.RecommendationID, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first
func (db *DB) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]types.Notification, error) {
	query := `SELECT id, user_id, type, title, message, recommendation_id, read, created_at
		FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND NOT read`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []types.Notification
	for rows.Next() {
		var n types.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.RecommendationID, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead flags a notification as read, reporting whether it exists
func (db *DB) MarkNotificationRead(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
