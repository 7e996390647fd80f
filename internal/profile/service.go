package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/scoring"
	"github.com/jonathan/profiler/internal/types"
	"github.com/jonathan/profiler/internal/validation"
)

// Store persists profiles and summaries. Getters return nil, nil when the
// entity does not exist.
type Store interface {
	CreateProfile(ctx context.Context, p *types.Profile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*types.Profile, error)
	GetProfileByUser(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
	UpdateProfile(ctx context.Context, p *types.Profile) error
	DeleteProfile(ctx context.Context, id uuid.UUID) (bool, error)
	ListPeerProfiles(ctx context.Context, excludeUserID uuid.UUID, limit int) ([]*types.Profile, error)
	SaveSummary(ctx context.Context, s *types.ProfileSummary) error
	GetSummary(ctx context.Context, userID uuid.UUID) (*types.ProfileSummary, error)
}

// peerScanLimit bounds how many profiles SimilarProfiles compares against
const peerScanLimit = 200

// Service implements profile operations on top of a Store
type Service struct {
	store     Store
	templates TemplateSource
	validator *validation.Validator
	scorer    *scoring.ProfileScorer
	state     *StateCalculator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a profile service. A nil templates source uses the
// built-in template; a nil scorer uses the default weights.
func NewService(store Store, templates TemplateSource, scorer *scoring.ProfileScorer, logger *slog.Logger) *Service {
	if templates == nil {
		templates = StaticTemplate(DefaultTemplate())
	}
	if scorer == nil {
		scorer = scoring.NewProfileScorer(scoring.DefaultScorerConfig())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		templates: templates,
		validator: validation.New(),
		scorer:    scorer,
		state:     NewStateCalculator(),
		logger:    logger,
		now:       time.Now,
	}
}

// Create starts a new profile for userID. A nil cfg uses the current template.
// A user has at most one profile.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, cfg *types.ProfileConfig, metadata map[string]any) (*types.Profile, error) {
	config := s.templates.Current()
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		config = *cfg
	}

	existing, err := s.store.GetProfileByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	if existing != nil {
		return nil, &types.ConflictError{Message: fmt.Sprintf("user %s already has profile %s", userID, existing.ID)}
	}

	now := s.now().UTC()
	p := &types.Profile{
		ID:          uuid.New(),
		UserID:      userID,
		Sections:    make(map[string]*types.SectionData),
		Metadata:    metadata,
		Config:      config,
		Status:      types.ProfileStatusDraft,
		CreatedAt:   now,
		LastUpdated: now,
	}
	p.CurrentSection, _ = s.state.NextSection(p)

	if err := s.store.CreateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	s.logger.Info("profile created", "profile_id", p.ID, "user_id", userID, "sections", len(config.Sections))
	return p, nil
}

// Get returns a profile by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*types.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, types.NewNotFound(types.KindProfile, id)
	}
	return p, nil
}

// GetByUser returns the profile owned by userID
func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	p, err := s.store.GetProfileByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &types.NotFoundError{Kind: types.KindProfile, ID: "user " + userID.String()}
	}
	return p, nil
}

// Delete removes a profile
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.store.DeleteProfile(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return types.NewNotFound(types.KindProfile, id)
	}
	return nil
}

// UpdateSection replaces a section's data. The section must be configured,
// its data must satisfy the section's rules, and it may only be marked
// completed once its prerequisites are completed. A completed section cannot
// be reopened while completed sections still depend on it.
func (s *Service) UpdateSection(ctx context.Context, profileID uuid.UUID, sectionID string, req types.UpdateSectionRequest) (*types.Profile, error) {
	p, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.Section(p.Config, sectionID, req.Data); len(errs) > 0 {
		return nil, errs
	}

	if req.Completed {
		if missing := IncompletePrerequisites(p, sectionID); len(missing) > 0 {
			return nil, &types.ConflictError{Message: fmt.Sprintf(
				"section %q requires completed sections: %s", sectionID, strings.Join(missing, ", "))}
		}
	} else if dependents := CompletedDependents(p, sectionID); len(dependents) > 0 {
		return nil, &types.ConflictError{Message: fmt.Sprintf(
			"section %q is required by completed sections: %s", sectionID, strings.Join(dependents, ", "))}
	}

	now := s.now().UTC()
	title := req.Title
	if title == "" {
		title = p.Config.Title(sectionID)
	}
	if p.Sections == nil {
		p.Sections = make(map[string]*types.SectionData)
	}
	p.Sections[sectionID] = &types.SectionData{
		SectionID:   sectionID,
		Title:       title,
		Data:        req.Data,
		Metadata:    req.Metadata,
		Completed:   req.Completed,
		LastUpdated: now,
	}

	if next, ok := s.state.NextSection(p); ok {
		p.CurrentSection = next
	} else {
		p.CurrentSection = ""
	}
	p.Status = statusFor(p)
	p.LastUpdated = now

	if err := s.store.UpdateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	s.logger.Info("section updated",
		"profile_id", p.ID,
		"section", sectionID,
		"completed", req.Completed,
		"status", p.Status,
	)
	return p, nil
}

// State returns the derived state of a profile
func (s *Service) State(ctx context.Context, id uuid.UUID) (*types.ProfileState, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	state := s.state.CalculateState(p)
	return &state, nil
}

// Quality scores a profile overall and per category
func (s *Service) Quality(ctx context.Context, id uuid.UUID) (*types.ProfileQuality, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data := p.CategoryData()
	return &types.ProfileQuality{
		ProfileID:      p.ID,
		OverallQuality: s.scorer.QualityScore(data),
		Categories:     s.scorer.CategoryScores(data),
	}, nil
}

// Validate reports every required section that is missing or incomplete
func (s *Service) Validate(ctx context.Context, id uuid.UUID) (validation.Errors, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.validator.RequiredSections(p), nil
}
