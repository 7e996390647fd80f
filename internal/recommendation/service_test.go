package recommendation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/types"
	"github.com/jonathan/profiler/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu      sync.Mutex
	recs    map[uuid.UUID]*types.Recommendation
	order   []uuid.UUID
	users   []uuid.UUID
	saveErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{recs: make(map[uuid.UUID]*types.Recommendation)}
}

func (m *memoryRepo) SaveRecommendation(_ context.Context, r *types.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *r
	m.recs[r.ID] = &cp
	m.order = append(m.order, r.ID)
	return nil
}

func (m *memoryRepo) ListRecommendations(_ context.Context, userID uuid.UUID, status string) ([]types.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Recommendation
	for _, id := range m.order {
		r := m.recs[id]
		if r.UserID == userID && (status == "" || r.Status == status) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memoryRepo) GetRecommendation(_ context.Context, id uuid.UUID) (*types.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memoryRepo) UpdateRecommendation(_ context.Context, r *types.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.recs[r.ID] = &cp
	return nil
}

func (m *memoryRepo) RecommendationHistory(ctx context.Context, userID uuid.UUID, _, _ time.Time) ([]types.Recommendation, error) {
	return m.ListRecommendations(ctx, userID, "")
}

func (m *memoryRepo) ListUserIDs(context.Context) ([]uuid.UUID, error) {
	return m.users, nil
}

type fakeProfiles struct {
	signal   *types.ProfileSignal
	peers    []types.ProfileSignal
	err      error
	peersErr error
}

func (f *fakeProfiles) Signal(context.Context, uuid.UUID) (*types.ProfileSignal, error) {
	return f.signal, f.err
}

func (f *fakeProfiles) SimilarProfiles(context.Context, uuid.UUID, int) ([]types.ProfileSignal, error) {
	return f.peers, f.peersErr
}

type fakeQA struct {
	answers []types.Answer
	err     error
}

func (f *fakeQA) RecentAnswers(context.Context, uuid.UUID, int) ([]types.Answer, error) {
	return f.answers, f.err
}

func (f *fakeQA) EvaluateAnswerQuality(a types.Answer) float64 {
	if len(a.Answer) < 20 {
		return 0.2
	}
	return 0.9
}

type fakeDocuments struct {
	docs []types.Document
	err  error
}

func (f *fakeDocuments) UserDocuments(context.Context, uuid.UUID) ([]types.Document, error) {
	return f.docs, f.err
}

func (f *fakeDocuments) AnalyzeDocument(_ context.Context, doc *types.Document) (*types.DocumentAnalysis, error) {
	return &types.DocumentAnalysis{DocumentID: doc.ID, Confidence: 0.9}, nil
}

type fakeSink struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (f *fakeSink) CreateRecommendationNotification(_ context.Context, userID, recID uuid.UUID, title, _ string) (*types.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	if f.err != nil {
		return nil, f.err
	}
	return &types.Notification{ID: uuid.New(), UserID: userID, RecommendationID: &recID, Title: title}, nil
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *memoryRepo, profiles ProfileProvider, qa QAProvider, docs DocumentProvider, sink NotificationSink) *Service {
	svc := NewService(repo, profiles, qa, docs, sink, Options{}, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func allDocuments() *fakeDocuments {
	return &fakeDocuments{docs: []types.Document{
		{ID: uuid.New(), DocumentType: types.DocumentTranscript},
		{ID: uuid.New(), DocumentType: types.DocumentEssay},
		{ID: uuid.New(), DocumentType: types.DocumentResume},
	}}
}

func TestGenerateForUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	repo := newMemoryRepo()
	sink := &fakeSink{}
	profiles := &fakeProfiles{signal: &types.ProfileSignal{
		UserID:          userID,
		MissingSections: []string{"essays"},
		Skills:          []string{"Go"},
	}}
	qa := &fakeQA{answers: []types.Answer{{Question: "Why us?", Answer: "Because."}}}

	svc := newTestService(repo, profiles, qa, allDocuments(), sink)
	recs, err := svc.GenerateForUser(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Complete your Essays section",
		"Add more skills to your profile",
		"Strengthen your interview answers",
	}, titles(recs))
	for _, r := range recs {
		assert.Equal(t, userID, r.UserID)
		assert.Equal(t, types.StatusActive, r.Status)
		assert.NotEqual(t, uuid.Nil, r.ID)
	}
	assert.Equal(t, titles(recs), sink.titles, "notifications follow save order")

	// Running again produces nothing new
	again, err := svc.GenerateForUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestGenerateForUser_FailingSourcesAreIsolated(t *testing.T) {
	userID := uuid.New()
	repo := newMemoryRepo()
	profiles := &fakeProfiles{err: errors.New("profile db down"), peersErr: errors.New("peer db down")}
	docs := &fakeDocuments{err: errors.New("document store down")}
	qa := &fakeQA{answers: []types.Answer{{Question: "Q", Answer: "short"}}}
	sink := &fakeSink{err: errors.New("webhook down")}

	recs, err := newTestService(repo, profiles, qa, docs, sink).GenerateForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Strengthen your interview answers"}, titles(recs))

	saved, _ := repo.ListRecommendations(context.Background(), userID, "")
	assert.Len(t, saved, 1, "notification failure does not undo the save")
}

func TestGenerateForUser_UnknownUser(t *testing.T) {
	userID := uuid.New()
	repo := newMemoryRepo()
	sink := &fakeSink{}
	profiles := &fakeProfiles{err: &types.NotFoundError{Kind: types.KindProfile, ID: "user " + userID.String()}}

	recs, err := newTestService(repo, profiles, nil, &fakeDocuments{}, sink).GenerateForUser(context.Background(), userID)
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
	assert.Empty(t, recs)

	saved, _ := repo.ListRecommendations(context.Background(), userID, "")
	assert.Empty(t, saved)
	assert.Empty(t, sink.titles)
}

func TestGenerateForUser_SaveFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.saveErr = errors.New("disk full")
	profiles := &fakeProfiles{signal: &types.ProfileSignal{Skills: []string{}}}

	_, err := newTestService(repo, profiles, nil, nil, nil).GenerateForUser(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "disk full")
}

func seed(t *testing.T, repo *memoryRepo) *types.Recommendation {
	t.Helper()
	r := &types.Recommendation{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Title:    "Azure certification",
		Category: types.CategoryCertification,
		Priority: 3,
		Status:   types.StatusActive,
	}
	require.NoError(t, repo.SaveRecommendation(context.Background(), r))
	return r
}

func TestUpdateProgress_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	r := seed(t, repo)
	svc := newTestService(repo, nil, nil, nil, nil)

	first, err := svc.UpdateProgress(ctx, r.ID, 1.0)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, first.Status)
	require.NotNil(t, first.CompletedAt)

	svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	second, err := svc.UpdateProgress(ctx, r.ID, 1.0)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, second.Status)
	assert.Equal(t, *first.CompletedAt, *second.CompletedAt)
}

func TestUpdateProgress(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, nil, nil, nil, nil)

	tests := []struct {
		name       string
		progress   float64
		wantStatus string
		wantValue  float64
	}{
		{name: "partial", progress: 0.4, wantStatus: types.StatusActive, wantValue: 0.4},
		{name: "clamped above one", progress: 1.7, wantStatus: types.StatusCompleted, wantValue: 1},
		{name: "clamped below zero", progress: -2, wantStatus: types.StatusActive, wantValue: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := seed(t, repo)
			got, err := svc.UpdateProgress(ctx, r.ID, tt.progress)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantValue, got.Progress)
		})
	}

	_, err := svc.UpdateProgress(ctx, uuid.New(), 0.5)
	assert.True(t, types.IsNotFound(err))
}

func TestUpdateProgress_CompletedIsTerminal(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	r := seed(t, repo)
	svc := newTestService(repo, nil, nil, nil, nil)

	_, err := svc.UpdateProgress(ctx, r.ID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateProgress(ctx, r.ID, 0.5)
	var conflict *types.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, nil, nil, nil, nil)

	t.Run("completing stamps completion", func(t *testing.T) {
		r := seed(t, repo)
		got, err := svc.UpdateStatus(ctx, r.ID, types.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got.Progress)
		require.NotNil(t, got.CompletedAt)
		assert.Equal(t, fixedNow, *got.CompletedAt)
	})

	t.Run("dismissed can be reactivated", func(t *testing.T) {
		r := seed(t, repo)
		_, err := svc.UpdateStatus(ctx, r.ID, types.StatusDismissed)
		require.NoError(t, err)
		got, err := svc.UpdateStatus(ctx, r.ID, types.StatusActive)
		require.NoError(t, err)
		assert.Equal(t, types.StatusActive, got.Status)
	})

	t.Run("completed cannot be reopened", func(t *testing.T) {
		r := seed(t, repo)
		_, err := svc.UpdateStatus(ctx, r.ID, types.StatusCompleted)
		require.NoError(t, err)
		_, err = svc.UpdateStatus(ctx, r.ID, types.StatusActive)
		var conflict *types.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, uuid.New(), "archived")
		assert.True(t, validation.IsValidationError(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, uuid.New(), types.StatusDismissed)
		assert.True(t, types.IsNotFound(err))
	})
}

func TestHistory_RejectsInvertedRange(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil, nil, nil, nil)
	_, err := svc.History(context.Background(), uuid.New(), fixedNow, fixedNow.Add(-time.Hour))
	assert.True(t, validation.IsValidationError(err))
}

func TestGenerateForAllUsers(t *testing.T) {
	repo := newMemoryRepo()
	repo.users = []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	profiles := &fakeProfiles{signal: &types.ProfileSignal{Skills: []string{"Go"}}}

	result, err := newTestService(repo, profiles, nil, nil, nil).GenerateForAllUsers(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Users)
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, result.Generated)
}

func TestGenerateForAllUsers_CountsFailures(t *testing.T) {
	repo := newMemoryRepo()
	repo.users = []uuid.UUID{uuid.New(), uuid.New()}
	repo.saveErr = errors.New("read only")
	profiles := &fakeProfiles{signal: &types.ProfileSignal{}}

	result, err := newTestService(repo, profiles, nil, nil, nil).GenerateForAllUsers(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 0, result.Succeeded)
}
