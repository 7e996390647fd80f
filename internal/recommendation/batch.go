package recommendation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds GenerateForAllUsers when no limit is given
const DefaultConcurrency = 4

// BatchResult counts the outcome of a batch run
type BatchResult struct {
	Users     int           `json:"users"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Generated int           `json:"generated"`
	Duration  time.Duration `json:"duration"`
}

// GenerateForAllUsers runs GenerateForUser for every user with a profile,
// at most concurrency at a time. Per-user failures are counted and logged;
// only listing users or cancellation fails the run.
func (s *Service) GenerateForAllUsers(ctx context.Context, concurrency int) (*BatchResult, error) {
	start := s.now()
	userIDs, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	result := &BatchResult{Users: len(userIDs)}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, userID := range userIDs {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			recs, err := s.GenerateForUser(gCtx, userID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				s.logger.Error("recommendation generation failed", "user_id", userID, "error", err)
				return nil
			}
			result.Succeeded++
			result.Generated += len(recs)
			return nil
		})
	}
	_ = g.Wait()

	result.Duration = s.now().Sub(start)
	s.logger.Info("batch recommendation generation finished",
		"users", result.Users,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"generated", result.Generated,
		"duration", result.Duration,
	)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}
