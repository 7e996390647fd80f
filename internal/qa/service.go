// Package qa records users' answers to profile questions and scores their quality.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/types"
	"github.com/jonathan/profiler/internal/validation"
)

// Answer quality weights
const (
	lengthWeight      = 0.4
	specificityWeight = 0.35
	structureWeight   = 0.25

	fullLengthWords    = 150.0
	fullSpecificity    = 5.0
	fullStructureCount = 5.0
)

// DefaultRecentLimit applies when RecentAnswers is called without a limit
const DefaultRecentLimit = 20

var (
	reNumber    = regexp.MustCompile(`\d`)
	reSentence  = regexp.MustCompile(`[^.!?]+[.!?]+`)
	concreteCue = []string{"for example", "for instance", "such as", "as a result", "which led", "i led", "i built", "i organized"}
)

// Store persists answers
type Store interface {
	SaveAnswer(ctx context.Context, a *types.Answer) error
	RecentAnswers(ctx context.Context, userID uuid.UUID, limit int) ([]types.Answer, error)
}

// Service records and evaluates answers
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a QA service
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Record stores a new answer
func (s *Service) Record(ctx context.Context, userID uuid.UUID, req types.CreateAnswerRequest) (*types.Answer, error) {
	if err := req.Validate(); err != nil {
		return nil, validation.FromError(err).Err()
	}
	a := &types.Answer{
		ID:        uuid.New(),
		UserID:    userID,
		Question:  strings.TrimSpace(req.Question),
		Answer:    strings.TrimSpace(req.Answer),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.SaveAnswer(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}
	s.logger.Debug("answer recorded", "user_id", userID, "answer_id", a.ID, "quality", s.EvaluateAnswerQuality(*a))
	return a, nil
}

// RecentAnswers returns a user's latest answers, newest first
func (s *Service) RecentAnswers(ctx context.Context, userID uuid.UUID, limit int) ([]types.Answer, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.store.RecentAnswers(ctx, userID, limit)
}

// EvaluateAnswerQuality scores an answer in [0, 1] from its length,
// specificity and structure.
func (s *Service) EvaluateAnswerQuality(a types.Answer) float64 {
	return EvaluateAnswer(a.Answer)
}

// EvaluateAnswer scores answer text in [0, 1]
func EvaluateAnswer(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	words := strings.Fields(text)
	length := ratio(float64(len(words)), fullLengthWords)
	specificity := ratio(specificitySignals(text, words), fullSpecificity)
	structure := ratio(structureSignals(text), fullStructureCount)

	return ratio(lengthWeight*length+specificityWeight*specificity+structureWeight*structure, 1)
}

// specificitySignals counts numbers, mid-sentence proper nouns and concrete cues
func specificitySignals(text string, words []string) float64 {
	signals := float64(len(reNumber.FindAllString(text, -1)))
	if signals > 2 {
		signals = 2
	}

	lower := strings.ToLower(text)
	for _, cue := range concreteCue {
		if strings.Contains(lower, cue) {
			signals++
		}
	}

	proper := 0
	for i := 1; i < len(words); i++ {
		prev := words[i-1]
		if strings.HasSuffix(prev, ".") || strings.HasSuffix(prev, "!") || strings.HasSuffix(prev, "?") {
			continue
		}
		r := []rune(words[i])
		if len(r) > 1 && unicode.IsUpper(r[0]) && words[i] != "I" {
			proper++
		}
	}
	return signals + float64(proper)/2
}

// structureSignals counts complete sentences plus paragraph breaks
func structureSignals(text string) float64 {
	sentences := len(reSentence.FindAllString(text, -1))
	paragraphs := len(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")) - 1
	return float64(sentences + paragraphs)
}

func ratio(v, full float64) float64 {
	if v <= 0 {
		return 0
	}
	if v >= full {
		return 1
	}
	return v / full
}
