package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/types"
)

// Summary thresholds on category scores
const (
	strengthThreshold    = 0.7
	improvementThreshold = 0.4
	maxSellingPoints     = 5
)

var sellingPointKeys = []string{"awards", "achievements", "honors", "certifications"}

// BuildSummary derives strengths, improvement areas and selling points from a profile
func (s *Service) BuildSummary(p *types.Profile) *types.ProfileSummary {
	data := p.CategoryData()
	scores := s.scorer.CategoryScores(data)

	summary := &types.ProfileSummary{
		UserID:              p.UserID,
		Strengths:           []string{},
		AreasForImprovement: []string{},
		UniqueSellingPoints: []string{},
		OverallQuality:      s.scorer.QualityScore(data),
		LastUpdated:         s.now().UTC(),
	}

	for _, id := range p.Config.Sections {
		score, scored := scores[id]
		title := p.Config.Title(id)
		switch {
		case scored && score >= strengthThreshold:
			summary.Strengths = append(summary.Strengths, fmt.Sprintf("Strong %s", title))
		case scored && score < improvementThreshold:
			summary.AreasForImprovement = append(summary.AreasForImprovement, fmt.Sprintf("Add more detail to %s", title))
		}
		if p.Config.IsRequired(id) && !isCompleted(p, id) {
			summary.AreasForImprovement = append(summary.AreasForImprovement, fmt.Sprintf("Complete the %s section", title))
		}
	}

	points := collectStrings(p, p.Config.Sections, sellingPointKeys)
	if len(points) > maxSellingPoints {
		points = points[:maxSellingPoints]
	}
	summary.UniqueSellingPoints = append(summary.UniqueSellingPoints, points...)

	return summary
}

// RefreshSummary rebuilds and stores the summary for userID's profile
func (s *Service) RefreshSummary(ctx context.Context, userID uuid.UUID) (*types.ProfileSummary, error) {
	p, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := s.BuildSummary(p)
	if err := s.store.SaveSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to save summary: %w", err)
	}
	return summary, nil
}

// Summary returns the stored summary for userID, building one if none exists
func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (*types.ProfileSummary, error) {
	summary, err := s.store.GetSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	if summary != nil {
		return summary, nil
	}
	return s.RefreshSummary(ctx, userID)
}
