package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/documents"
	"github.com/jonathan/profiler/internal/notification"
	"github.com/jonathan/profiler/internal/profile"
	"github.com/jonathan/profiler/internal/qa"
	"github.com/jonathan/profiler/internal/recommendation"
	"github.com/jonathan/profiler/internal/scoring"
	"github.com/jonathan/profiler/internal/server/ratelimit"
	"github.com/jonathan/profiler/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore implements every store interface in memory
type memStore struct {
	mu              sync.Mutex
	profiles        map[uuid.UUID]*types.Profile
	summaries       map[uuid.UUID]*types.ProfileSummary
	documents       map[uuid.UUID]*types.Document
	answers         []types.Answer
	recommendations map[uuid.UUID]*types.Recommendation
	notifications   map[uuid.UUID]*types.Notification
	pingErr         error
}

func newMemStore() *memStore {
	return &memStore{
		profiles:        map[uuid.UUID]*types.Profile{},
		summaries:       map[uuid.UUID]*types.ProfileSummary{},
		documents:       map[uuid.UUID]*types.Document{},
		recommendations: map[uuid.UUID]*types.Recommendation{},
		notifications:   map[uuid.UUID]*types.Notification{},
	}
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) CreateProfile(_ context.Context, p *types.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	return nil
}

func (m *memStore) GetProfile(_ context.Context, id uuid.UUID) (*types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[id], nil
}

func (m *memStore) GetProfileByUser(_ context.Context, userID uuid.UUID) (*types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateProfile(_ context.Context, p *types.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	return nil
}

func (m *memStore) DeleteProfile(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.profiles[id]
	delete(m.profiles, id)
	return ok, nil
}

func (m *memStore) ListPeerProfiles(_ context.Context, exclude uuid.UUID, limit int) ([]*types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Profile
	for _, p := range m.profiles {
		if p.UserID != exclude && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) SaveSummary(_ context.Context, s *types.ProfileSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[s.UserID] = s
	return nil
}

func (m *memStore) GetSummary(_ context.Context, userID uuid.UUID) (*types.ProfileSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaries[userID], nil
}

func (m *memStore) SaveDocument(_ context.Context, d *types.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[d.ID] = d
	return nil
}

func (m *memStore) GetDocument(_ context.Context, id uuid.UUID) (*types.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.documents[id], nil
}

func (m *memStore) ListDocuments(_ context.Context, userID uuid.UUID) ([]types.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Document
	for _, d := range m.documents {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memStore) SaveAnswer(_ context.Context, a *types.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append([]types.Answer{*a}, m.answers...)
	return nil
}

func (m *memStore) RecentAnswers(_ context.Context, userID uuid.UUID, limit int) ([]types.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Answer
	for _, a := range m.answers {
		if a.UserID == userID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) SaveRecommendation(_ context.Context, r *types.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.recommendations[r.ID] = &cp
	return nil
}

func (m *memStore) ListRecommendations(_ context.Context, userID uuid.UUID, status string) ([]types.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Recommendation
	for _, r := range m.recommendations {
		if r.UserID == userID && (status == "" || r.Status == status) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (m *memStore) GetRecommendation(_ context.Context, id uuid.UUID) (*types.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recommendations[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) UpdateRecommendation(_ context.Context, r *types.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recommendations[r.ID]; !ok {
		return types.NewNotFound(types.KindRecommendation, r.ID)
	}
	cp := *r
	m.recommendations[r.ID] = &cp
	return nil
}

func (m *memStore) RecommendationHistory(_ context.Context, userID uuid.UUID, start, end time.Time) ([]types.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Recommendation
	for _, r := range m.recommendations {
		if r.UserID != userID {
			continue
		}
		if (!start.IsZero() && r.CreatedAt.Before(start)) || (!end.IsZero() && r.CreatedAt.After(end)) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) ListUserIDs(_ context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uuid.UUID
	for _, p := range m.profiles {
		out = append(out, p.UserID)
	}
	return out, nil
}

func (m *memStore) SaveNotification(_ context.Context, n *types.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[n.ID] = n
	return nil
}

func (m *memStore) ListNotifications(_ context.Context, userID uuid.UUID, unreadOnly bool) ([]types.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Notification
	for _, n := range m.notifications {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if ok {
		n.Read = true
	}
	return ok, nil
}

func newTestServer(t *testing.T, rl *ratelimit.Config) (*Server, *memStore) {
	t.Helper()
	store := newMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	profiles := profile.NewService(store, profile.StaticTemplate(profile.DefaultTemplate()), scoring.NewProfileScorer(scoring.DefaultScorerConfig()), logger)
	docs := documents.NewService(store, nil, nil, logger)
	answers := qa.NewService(store, logger)
	notifications := notification.NewService(store, nil, logger)
	recs := recommendation.NewService(store, profiles, answers, docs, notifications, recommendation.DefaultOptions(), logger)

	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}
	srv := New(Config{Addr: ":0", BatchConcurrency: 2, RateLimit: rl}, Services{
		Profiles:        profiles,
		Documents:       docs,
		QA:              answers,
		Recommendations: recs,
		Notifications:   notifications,
		Store:           store,
	}, logger)
	t.Cleanup(srv.Close)
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	store.pingErr = errors.New("connection refused")
	rec = doRequest(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doRequest(t, srv, http.MethodOptions, "/profiles/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestProfileFlow(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	userID := uuid.New()

	rec := doRequest(t, srv, http.MethodPost, "/users/"+userID.String()+"/profile", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[types.Profile](t, rec)
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, "personal_info", created.CurrentSection)
	base := "/profiles/" + created.ID.String()

	rec = doRequest(t, srv, http.MethodPost, "/users/"+userID.String()+"/profile", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Prerequisite not yet completed
	rec = doRequest(t, srv, http.MethodPut, base+"/sections/academic", map[string]any{
		"data":      map[string]any{"gpa": 3.9},
		"completed": true,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Rule violation
	rec = doRequest(t, srv, http.MethodPut, base+"/sections/personal_info", map[string]any{
		"data": map[string]any{"name": "Ada Lovelace", "email": "not-an-email"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "details")

	// Unknown section
	rec = doRequest(t, srv, http.MethodPut, base+"/sections/hobbies", map[string]any{
		"data": map[string]any{"x": 1},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPut, base+"/sections/personal_info", map[string]any{
		"data":      map[string]any{"name": "Ada Lovelace", "email": "ada@example.com"},
		"completed": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[types.Profile](t, rec)
	assert.Equal(t, types.ProfileStatusInProgress, updated.Status)

	rec = doRequest(t, srv, http.MethodGet, base+"/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeBody[types.ProfileState](t, rec)
	assert.Contains(t, state.SectionsCompleted, "personal_info")
	assert.NotContains(t, state.SectionsRemaining, "personal_info")

	rec = doRequest(t, srv, http.MethodGet, base+"/quality", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quality := decodeBody[types.ProfileQuality](t, rec)
	assert.GreaterOrEqual(t, quality.OverallQuality, 0.0)
	assert.LessOrEqual(t, quality.OverallQuality, 1.0)

	rec = doRequest(t, srv, http.MethodGet, base+"/validation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeBody[ValidationResponse](t, rec)
	assert.False(t, v.Valid)
	assert.NotEmpty(t, v.Errors)

	rec = doRequest(t, srv, http.MethodGet, "/users/"+userID.String()+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "bad uuid", method: http.MethodGet, path: "/profiles/not-a-uuid", want: http.StatusBadRequest},
		{name: "unknown profile", method: http.MethodGet, path: "/profiles/" + uuid.NewString(), want: http.StatusNotFound},
		{name: "unknown user profile", method: http.MethodGet, path: "/users/" + uuid.NewString() + "/profile", want: http.StatusNotFound},
		{name: "cyclic config", method: http.MethodPost, path: "/users/" + uuid.NewString() + "/profile", body: map[string]any{
			"config": map[string]any{
				"sections":             []string{"a", "b"},
				"required_sections":    []string{"a"},
				"section_dependencies": map[string][]string{"a": {"b"}, "b": {"a"}},
			},
		}, want: http.StatusBadRequest},
		{name: "missing data", method: http.MethodPut, path: "/profiles/" + uuid.NewString() + "/sections/academic", body: map[string]any{}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestScoreConfidence(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/confidence", map[string]any{
		"document_type": "transcript",
		"info": map[string]any{
			"student_name": "Ada Lovelace",
			"institution":  "Analytical University",
			"gpa":          3.9,
			"source_type":  "llm",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[ConfidenceResponse](t, rec)
	assert.Equal(t, types.DocumentTranscript, got.DocumentType)
	assert.Greater(t, got.Score, 0.0)
	assert.LessOrEqual(t, got.Score, 1.0)

	rec = doRequest(t, srv, http.MethodPost, "/confidence", map[string]any{"document_type": "transcript"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentsAndAnswers(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	userID := uuid.New()
	users := "/users/" + userID.String()

	rec := doRequest(t, srv, http.MethodPost, users+"/documents", map[string]any{
		"title":         "Transcript",
		"document_type": "transcript",
		"content":       "Student Name: Ada Lovelace\nInstitution: Analytical University\nGPA: 3.9",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decodeBody[types.Document](t, rec)

	rec = doRequest(t, srv, http.MethodGet, users+"/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]types.Document](t, rec), 1)

	rec = doRequest(t, srv, http.MethodPost, "/documents/"+doc.ID.String()+"/analyze", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	analysis := decodeBody[types.DocumentAnalysis](t, rec)
	assert.Equal(t, doc.ID, analysis.DocumentID)

	rec = doRequest(t, srv, http.MethodPost, users+"/documents", map[string]any{"title": "Empty", "document_type": "essay"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, users+"/answers", map[string]any{
		"question": "Proudest moment?",
		"answer":   "I led a team of 4 students to build a solar car that placed 2nd at the state fair.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	answer := decodeBody[AnswerResponse](t, rec)
	assert.Greater(t, answer.Quality, 0.0)

	rec = doRequest(t, srv, http.MethodGet, users+"/answers?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]AnswerResponse](t, rec), 1)

	rec = doRequest(t, srv, http.MethodGet, users+"/answers?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendationLifecycle(t *testing.T) {
	srv, store := newTestServer(t, nil)
	userID := uuid.New()
	now := time.Now().UTC()
	rec1 := &types.Recommendation{
		ID:         uuid.New(),
		UserID:     userID,
		Title:      "Learn SQL",
		Category:   types.CategorySkill,
		Priority:   2,
		Steps:      types.StepsFromTitles("Take a course"),
		Confidence: 0.7,
		Status:     types.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, store.SaveRecommendation(context.Background(), rec1))
	path := "/recommendations/" + rec1.ID.String()

	rec := doRequest(t, srv, http.MethodGet, "/users/"+userID.String()+"/recommendations?status=active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]types.Recommendation](t, rec), 1)

	rec = doRequest(t, srv, http.MethodPut, path+"/progress", map[string]any{"progress": 1.5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPut, path+"/progress", map[string]any{"progress": 0.5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.5, decodeBody[types.Recommendation](t, rec).Progress, 1e-9)

	rec = doRequest(t, srv, http.MethodPut, path+"/status", map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	done := decodeBody[types.Recommendation](t, rec)
	assert.Equal(t, types.StatusCompleted, done.Status)
	assert.InDelta(t, 1.0, done.Progress, 1e-9)
	require.NotNil(t, done.CompletedAt)

	rec = doRequest(t, srv, http.MethodPut, path+"/status", map[string]any{"status": "active"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, srv, http.MethodPut, path+"/status", map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/recommendations/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/users/"+userID.String()+"/recommendations/history?start="+now.Add(-time.Hour).Format(time.RFC3339), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]types.Recommendation](t, rec), 1)

	rec = doRequest(t, srv, http.MethodGet, "/users/"+userID.String()+"/recommendations/history?start=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRecommendations(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	userID := uuid.New()

	rec := doRequest(t, srv, http.MethodPost, "/users/"+userID.String()+"/recommendations/generate", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no profile yet")

	rec = doRequest(t, srv, http.MethodPost, "/users/"+userID.String()+"/profile", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/users/"+userID.String()+"/recommendations/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	generated := decodeBody[GenerateResponse](t, rec)
	assert.Equal(t, len(generated.Recommendations), generated.Generated)

	rec = doRequest(t, srv, http.MethodGet, "/users/"+userID.String()+"/recommendations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]types.Recommendation](t, rec), generated.Generated)

	rec = doRequest(t, srv, http.MethodGet, "/users/"+userID.String()+"/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]types.Notification](t, rec), generated.Generated)

	rec = doRequest(t, srv, http.MethodPost, "/recommendations/generate-all?concurrency=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	batch := decodeBody[recommendation.BatchResult](t, rec)
	assert.Equal(t, 1, batch.Users)
}

func TestNotifications(t *testing.T) {
	srv, store := newTestServer(t, nil)
	userID := uuid.New()
	n := &types.Notification{ID: uuid.New(), UserID: userID, Type: types.NotificationProfile, Title: "Welcome", CreatedAt: time.Now()}
	require.NoError(t, store.SaveNotification(context.Background(), n))

	rec := doRequest(t, srv, http.MethodPost, "/notifications/"+n.ID.String()+"/read", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/users/"+userID.String()+"/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]types.Notification](t, rec))

	rec = doRequest(t, srv, http.MethodPost, "/notifications/"+uuid.NewString()+"/read", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
	})

	rec := doRequest(t, srv, http.MethodGet, "/profiles/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = doRequest(t, srv, http.MethodGet, "/profiles/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeBody[map[string]any](t, rec)["error"])

	// Health is never limited
	rec = doRequest(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
