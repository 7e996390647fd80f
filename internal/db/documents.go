package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/profiler/internal/types"
)

// -----------------------------------------------------------------------------
// Document Methods
// -----------------------------------------------------------------------------

// SaveDocument inserts a document
func (db *DB) SaveDocument(ctx context.Context, d *types.Document) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO documents (id, user_id, title, document_type, content, source_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.UserID, d.Title, string(d.DocumentType), d.Content, d.SourceURL, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID; returns nil, nil when missing
func (db *DB) GetDocument(ctx context.Context, id uuid.UUID) (*types.Document, error) {
	d, err := scanDocument(db.pool.QueryRow(ctx,
		`SELECT id, user_id, title, document_type, content, source_url, created_at
		 FROM documents WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// ListDocuments returns a user's documents, newest first
func (db *DB) ListDocuments(ctx context.Context, userID uuid.UUID) ([]types.Document, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, title, document_type, content, source_url, created_at
		 FROM documents WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func scanDocument(row pgx.Row) (*types.Document, error) {
	var (
		d       types.Document
		docType string
	)
	if err := row.Scan(&d.ID, &d.UserID, &d.Title, &docType, &d.Content, &d.SourceURL, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.DocumentType = types.ParseDocumentType(docType)
	return &d, nil
}

// -----------------------------------------------------------------------------
// Answer Methods
// -----------------------------------------------------------------------------

// SaveAnswer inserts a question answer
func (db *DB) SaveAnswer(ctx context.Context, a *types.Answer) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO answers (id, user_id, question, answer, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.UserID, a.Question, a.Answer, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

// RecentAnswers returns up to limit answers, newest first
func (db *DB) RecentAnswers(ctx context.Context, userID uuid.UUID, limit int) ([]types.Answer, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, question, answer, created_at
		 FROM answers WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []types.Answer
	for rows.Next() {
		var a types.Answer
		if err := rows.Scan(&a.ID, &a.UserID, &a.Question, &a.Answer, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
