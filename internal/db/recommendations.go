package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/profiler/internal/types"
)

// -----------------------------------------------------------------------------
// Recommendation Methods
// -----------------------------------------------------------------------------

const recommendationColumns = `id, user_id, title, description, category, priority, steps,
	confidence, status, progress, created_at, updated_at, completed_at`

// SaveRecommendation inserts a recommendation
func (db *DB) SaveRecommendation(ctx context.Context, r *types.Recommendation) error {
	steps, err := marshalSteps(r.Steps)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO recommendations (`+recommendationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ID, r.UserID, r.Title, r.Description, string(r.Category), r.Priority, steps,
		r.Confidence, r.Status, r.Progress, r.CreatedAt, r.UpdatedAt, r.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save recommendation: %w", err)
	}
	return nil
}

// GetRecommendation retrieves a recommendation by ID; returns nil, nil when missing
func (db *DB) GetRecommendation(ctx context.Context, id uuid.UUID) (*types.Recommendation, error) {
	r, err := scanRecommendation(db.pool.QueryRow(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}
	return r, nil
}

// ListRecommendations returns a user's recommendations, most urgent then
// newest first.
// An empty status lists every status.
func (db *DB) ListRecommendations(ctx context.Context, userID uuid.UUID, status string) ([]types.Recommendation, error) {
	query, args := listQuery(userID, status)
	return db.queryRecommendations(ctx, query, args...)
}

// UpdateRecommendation persists status, progress and completion changes
func (db *DB) UpdateRecommendation(ctx context.Context, r *types.Recommendation) error {
	steps, err := marshalSteps(r.Steps)
	if err != nil {
		return err
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE recommendations
		 SET steps = $2, status = $3, progress = $4, updated_at = $5, completed_at = $6
		 WHERE id = $1`,
		r.ID, steps, r.Status, r.Progress, r.UpdatedAt, r.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update recommendation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewNotFound(types.KindRecommendation, r.ID)
	}
	return nil
}

// RecommendationHistory returns recommendations created within [start, end],
// oldest first. Zero times leave that side of the range open.
func (db *DB) RecommendationHistory(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]types.Recommendation, error) {
	query, args := historyQuery(userID, start, end)
	return db.queryRecommendations(ctx, query, args...)
}

// ListUserIDs returns every user with a profile or a recommendation
func (db *DB) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT user_id FROM profiles
		 UNION
		 SELECT user_id FROM recommendations
		 ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (db *DB) queryRecommendations(ctx context.Context, query string, args ...any) ([]types.Recommendation, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []types.Recommendation
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, *r)
	}
	return recs, rows.Err()
}

// historyQuery builds the history SELECT with optional bounds
func listQuery(userID uuid.UUID, status string) (string, []any) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	return query + ` ORDER BY priority DESC, created_at DESC`, args
}

func historyQuery(userID uuid.UUID, start, end time.Time) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + recommendationColumns + ` FROM recommendations WHERE user_id = $1`)
	args := []any{userID}

	if !start.IsZero() {
		args = append(args, start)
		fmt.Fprintf(&sb, ` AND created_at >= $%d`, len(args))
	}
	if !end.IsZero() {
		args = append(args, end)
		fmt.Fprintf(&sb, ` AND created_at <= $%d`, len(args))
	}
	sb.WriteString(` ORDER BY created_at ASC`)
	return sb.String(), args
}

func marshalSteps(steps []types.Step) ([]byte, error) {
	if steps == nil {
		steps = []types.Step{}
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal steps: %w", err)
	}
	return data, nil
}

func scanRecommendation(row pgx.Row) (*types.Recommendation, error) {
	var (
		r        types.Recommendation
		category string
		steps    []byte
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &category, &r.Priority, &steps,
		&r.Confidence, &r.Status, &r.Progress, &r.CreatedAt, &r.UpdatedAt, &r.CompletedAt); err != nil {
		return nil, err
	}
	r.Category = types.Category(category)
	if err := json.Unmarshal(steps, &r.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}
	return &r, nil
}
