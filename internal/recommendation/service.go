package recommendation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/types"
	"github.com/jonathan/profiler/internal/validation"
	"golang.org/x/sync/errgroup"
)

// Options tunes signal gathering
type Options struct {
	PeerLimit   int
	AnswerLimit int
	Policy      SimilarityPolicy
}

// DefaultOptions returns the defaults used when fields are left zero
func DefaultOptions() Options {
	return Options{
		PeerLimit:   10,
		AnswerLimit: 20,
		Policy:      ContainmentPolicy{},
	}
}

// Service orchestrates signal collection, generation, deduplication,
// persistence and notification.
type Service struct {
	repo      Repository
	profiles  ProfileProvider
	qa        QAProvider
	documents DocumentProvider
	notify    NotificationSink
	opts      Options
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a recommendation service. Any provider or the sink may
// be nil, in which case that source contributes nothing.
func NewService(repo Repository, profiles ProfileProvider, qa QAProvider, documents DocumentProvider, notify NotificationSink, opts Options, logger *slog.Logger) *Service {
	defaults := DefaultOptions()
	if opts.PeerLimit <= 0 {
		opts.PeerLimit = defaults.PeerLimit
	}
	if opts.AnswerLimit <= 0 {
		opts.AnswerLimit = defaults.AnswerLimit
	}
	if opts.Policy == nil {
		opts.Policy = defaults.Policy
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		profiles:  profiles,
		qa:        qa,
		documents: documents,
		notify:    notify,
		opts:      opts,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// signals holds everything the generators read for one user
type signals struct {
	profile   *types.ProfileSignal
	peers     []types.ProfileSignal
	answers   []ScoredAnswer
	documents []DocumentSignal
	// missing is set when the user has no profile
	missing error
	// documentsOK is false when the document source failed, so absent
	// documents are not mistaken for missing uploads
	documentsOK bool
}

// GenerateForUser gathers signals, generates candidates, drops duplicates of
// the user's active recommendations, then saves and notifies each survivor in
// order. An unknown user is a NotFoundError; any other failing signal source
// is logged and skipped.
func (s *Service) GenerateForUser(ctx context.Context, userID uuid.UUID) ([]types.Recommendation, error) {
	sig := s.collect(ctx, userID)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sig.missing != nil {
		return nil, sig.missing
	}

	var candidates []types.Recommendation
	candidates = append(candidates, FromProfile(sig.profile)...)
	candidates = append(candidates, FromPeers(sig.profile, sig.peers)...)
	if sig.documentsOK {
		candidates = append(candidates, FromDocuments(sig.documents)...)
	}
	candidates = append(candidates, FromAnswers(sig.answers)...)

	existing, err := s.repo.ListRecommendations(ctx, userID, types.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active recommendations: %w", err)
	}
	fresh := FilterDuplicates(candidates, existing, s.opts.Policy)

	now := s.now().UTC()
	saved := make([]types.Recommendation, 0, len(fresh))
	for _, r := range fresh {
		r.ID = uuid.New()
		r.UserID = userID
		r.Status = types.StatusActive
		r.CreatedAt = now
		r.UpdatedAt = now
		if errs := s.validator.Recommendation(&r); len(errs) > 0 {
			s.logger.Warn("dropping invalid recommendation", "user_id", userID, "title", r.Title, "errors", errs.Error())
			continue
		}

		if err := s.repo.SaveRecommendation(ctx, &r); err != nil {
			return saved, fmt.Errorf("failed to save recommendation %q: %w", r.Title, err)
		}
		saved = append(saved, r)

		if s.notify != nil {
			if _, err := s.notify.CreateRecommendationNotification(ctx, userID, r.ID, r.Title, r.Description); err != nil {
				s.logger.Warn("failed to notify about recommendation", "user_id", userID, "recommendation_id", r.ID, "error", err)
			}
		}
	}

	s.logger.Info("recommendations generated",
		"user_id", userID,
		"candidates", len(candidates),
		"saved", len(saved),
	)
	return saved, nil
}

// collect fetches every signal source in parallel. A missing profile is
// recorded; other errors are logged and leave that source empty.
func (s *Service) collect(ctx context.Context, userID uuid.UUID) signals {
	var (
		out signals
		mu  sync.Mutex
	)
	g, gCtx := errgroup.WithContext(ctx)

	if s.profiles != nil {
		g.Go(func() error {
			sig, err := s.profiles.Signal(gCtx, userID)
			if types.IsNotFound(err) {
				mu.Lock()
				out.missing = err
				mu.Unlock()
				return nil
			}
			if err != nil {
				s.logger.Warn("profile signal unavailable", "user_id", userID, "error", err)
				return nil
			}
			mu.Lock()
			out.profile = sig
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			peers, err := s.profiles.SimilarProfiles(gCtx, userID, s.opts.PeerLimit)
			if err != nil {
				s.logger.Warn("similar profiles unavailable", "user_id", userID, "error", err)
				return nil
			}
			mu.Lock()
			out.peers = peers
			mu.Unlock()
			return nil
		})
	}

	if s.qa != nil {
		g.Go(func() error {
			answers, err := s.qa.RecentAnswers(gCtx, userID, s.opts.AnswerLimit)
			if err != nil {
				s.logger.Warn("recent answers unavailable", "user_id", userID, "error", err)
				return nil
			}
			scored := make([]ScoredAnswer, len(answers))
			for i, a := range answers {
				scored[i] = ScoredAnswer{Answer: a, Quality: s.qa.EvaluateAnswerQuality(a)}
			}
			mu.Lock()
			out.answers = scored
			mu.Unlock()
			return nil
		})
	}

	if s.documents != nil {
		g.Go(func() error {
			docs, err := s.documents.UserDocuments(gCtx, userID)
			if err != nil {
				s.logger.Warn("documents unavailable", "user_id", userID, "error", err)
				return nil
			}
			analyzed := make([]DocumentSignal, 0, len(docs))
			for i := range docs {
				analysis, err := s.documents.AnalyzeDocument(gCtx, &docs[i])
				if err != nil {
					s.logger.Warn("document analysis failed", "document_id", docs[i].ID, "error", err)
				}
				analyzed = append(analyzed, DocumentSignal{Document: docs[i], Analysis: analysis})
			}
			mu.Lock()
			out.documents = analyzed
			out.documentsOK = true
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return out
}

// Get returns a recommendation by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*types.Recommendation, error) {
	r, err := s.repo.GetRecommendation(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, types.NewNotFound(types.KindRecommendation, id)
	}
	return r, nil
}

// UpdateStatus moves a recommendation through its lifecycle. Completing it
// sets progress to 1 and stamps completed_at once.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*types.Recommendation, error) {
	if errs := s.validator.Status(status); len(errs) > 0 {
		return nil, errs
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.CanTransition(status) {
		return nil, &types.ConflictError{Message: fmt.Sprintf("cannot move recommendation from %s to %s", r.Status, status)}
	}

	r.SetStatus(status, s.now().UTC())
	if err := s.repo.UpdateRecommendation(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update recommendation: %w", err)
	}
	return r, nil
}

// UpdateProgress records progress, clamped to [0, 1]. Reaching 1 completes
// the recommendation; repeating it keeps the original completed_at.
func (s *Service) UpdateProgress(ctx context.Context, id uuid.UUID, progress float64) (*types.Recommendation, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	progress = types.ClampProgress(progress)
	if r.Status == types.StatusCompleted && progress < 1 {
		return nil, &types.ConflictError{Message: "recommendation is already completed"}
	}

	r.SetProgress(progress, s.now().UTC())
	if err := s.repo.UpdateRecommendation(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update recommendation: %w", err)
	}
	return r, nil
}

// ListForUser returns a user's recommendations; an empty status lists all
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, status string) ([]types.Recommendation, error) {
	if status != "" {
		if errs := s.validator.Status(status); len(errs) > 0 {
			return nil, errs
		}
	}
	return s.repo.ListRecommendations(ctx, userID, status)
}

// History returns recommendations created within [start, end]; zero times
// leave that side open
func (s *Service) History(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]types.Recommendation, error) {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, validation.Errors{"end must not be before start"}
	}
	return s.repo.RecommendationHistory(ctx, userID, start, end)
}
