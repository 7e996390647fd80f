package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/profiler/internal/types"
)

// -----------------------------------------------------------------------------
// Profile Methods
// -----------------------------------------------------------------------------

const profileColumns = `id, user_id, current_section, sections, metadata, config, status, created_at, last_updated`

// CreateProfile inserts a new profile
func (db *DB) CreateProfile(ctx context.Context, p *types.Profile) error {
	sections, metadata, config, err := encodeProfile(p)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO profiles (id, user_id, current_section, sections, metadata, config, status, created_at, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.CurrentSection, sections, metadata, config, p.Status, p.CreatedAt, p.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by ID; returns nil, nil when missing
func (db *DB) GetProfile(ctx context.Context, id uuid.UUID) (*types.Profile, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// GetProfileByUser retrieves the profile owned by a user; returns nil, nil when missing
func (db *DB) GetProfileByUser(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	p, err := scanProfile(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile by user: %w", err)
	}
	return p, nil
}

// UpdateProfile replaces a profile's mutable fields
func (db *DB) UpdateProfile(ctx context.Context, p *types.Profile) error {
	sections, metadata, config, err := encodeProfile(p)
	if err != nil {
		return err
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE profiles
		 SET current_section = $2, sections = $3, metadata = $4, config = $5, status = $6, last_updated = $7
		 WHERE id = $1`,
		p.ID, p.CurrentSection, sections, metadata, config, p.Status, p.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewNotFound(types.KindProfile, p.ID)
	}
	return nil
}

// DeleteProfile removes a profile and its summary, reporting whether it existed
func (db *DB) DeleteProfile(ctx context.Context, id uuid.UUID) (bool, error) {
	var userID uuid.UUID
	err := db.pool.QueryRow(ctx,
		`DELETE FROM profiles WHERE id = $1 RETURNING user_id`, id,
	).Scan(&userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete profile: %w", err)
	}

	if _, err := db.pool.Exec(ctx, `DELETE FROM profile_summaries WHERE user_id = $1`, userID); err != nil {
		return true, fmt.Errorf("failed to delete profile summary: %w", err)
	}
	return true, nil
}

// ListPeerProfiles returns the most recently updated profiles of other users
func (db *DB) ListPeerProfiles(ctx context.Context, excludeUserID uuid.UUID, limit int) ([]*types.Profile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles
		 WHERE user_id <> $1
		 ORDER BY last_updated DESC
		 LIMIT $2`,
		excludeUserID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list peer profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*types.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// -----------------------------------------------------------------------------
// Summary Methods
// -----------------------------------------------------------------------------

// SaveSummary upserts a user's profile summary
func (db *DB) SaveSummary(ctx context.Context, s *types.ProfileSummary) error {
	strengths, err := json.Marshal(nonNil(s.Strengths))
	if err != nil {
		return fmt.Errorf("failed to marshal strengths: %w", err)
	}
	improvements, err := json.Marshal(nonNil(s.AreasForImprovement))
	if err != nil {
		return fmt.Errorf("failed to marshal areas for improvement: %w", err)
	}
	usps, err := json.Marshal(nonNil(s.UniqueSellingPoints))
	if err != nil {
		return fmt.Errorf("failed to marshal selling points: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO profile_summaries (user_id, strengths, areas_for_improvement, unique_selling_points, overall_quality, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
		   strengths = EXCLUDED.strengths,
		   areas_for_improvement = EXCLUDED.areas_for_improvement,
		   unique_selling_points = EXCLUDED.unique_selling_points,
		   overall_quality = EXCLUDED.overall_quality,
		   last_updated = EXCLUDED.last_updated`,
		s.UserID, strengths, improvements, usps, s.OverallQuality, s.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// GetSummary retrieves a user's profile summary; returns nil, nil when missing
func (db *DB) GetSummary(ctx context.Context, userID uuid.UUID) (*types.ProfileSummary, error) {
	var (
		s                              types.ProfileSummary
		strengths, improvements, usps []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT user_id, strengths, areas_for_improvement, unique_selling_points, overall_quality, last_updated
		 FROM profile_summaries WHERE user_id = $1`,
		userID,
	).Scan(&s.UserID, &strengths, &improvements, &usps, &s.OverallQuality, &s.LastUpdated)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	if err := json.Unmarshal(strengths, &s.Strengths); err != nil {
		return nil, fmt.Errorf("failed to unmarshal strengths: %w", err)
	}
	if err := json.Unmarshal(improvements, &s.AreasForImprovement); err != nil {
		return nil, fmt.Errorf("failed to unmarshal areas for improvement: %w", err)
	}
	if err := json.Unmarshal(usps, &s.UniqueSellingPoints); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selling points: %w", err)
	}
	return &s, nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func encodeProfile(p *types.Profile) (sections, metadata, config []byte, err error) {
	secs := p.Sections
	if secs == nil {
		secs = map[string]*types.SectionData{}
	}
	if sections, err = json.Marshal(secs); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal sections: %w", err)
	}

	meta := p.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	if metadata, err = json.Marshal(meta); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if config, err = json.Marshal(p.Config); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return sections, metadata, config, nil
}

func scanProfile(row pgx.Row) (*types.Profile, error) {
	var (
		p                          types.Profile
		sections, metadata, config []byte
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.CurrentSection, &sections, &metadata, &config,
		&p.Status, &p.CreatedAt, &p.LastUpdated); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(sections, &p.Sections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sections: %w", err)
	}
	if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if err := json.Unmarshal(config, &p.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if p.Sections == nil {
		p.Sections = map[string]*types.SectionData{}
	}
	return &p, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
