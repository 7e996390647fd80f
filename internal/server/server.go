package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/documents"
	"github.com/jonathan/profiler/internal/notification"
	"github.com/jonathan/profiler/internal/profile"
	"github.com/jonathan/profiler/internal/qa"
	"github.com/jonathan/profiler/internal/recommendation"
	"github.com/jonathan/profiler/internal/scoring"
	"github.com/jonathan/profiler/internal/server/ratelimit"
	"github.com/jonathan/profiler/internal/validation"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the domain services the API exposes
type Services struct {
	Profiles        *profile.Service
	Documents       *documents.Service
	QA              *qa.Service
	Recommendations *recommendation.Service
	Notifications   *notification.Service
	Confidence      *scoring.ConfidenceCalculator
	Store           Pinger // optional; checked by /health
}

// Config holds server configuration
type Config struct {
	Addr             string
	BatchConcurrency int
	RateLimit        *ratelimit.Config // nil loads RATE_LIMIT_* from the environment
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	svc         Services
	cfg         Config
	logger      *slog.Logger
	rateLimiter *ratelimit.Limiter
}

// New creates a new server instance
func New(cfg Config, svc Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if svc.Confidence == nil {
		svc.Confidence = scoring.NewConfidenceCalculator()
	}
	rlCfg := cfg.RateLimit
	if rlCfg == nil {
		rlCfg = ratelimit.LoadConfig()
	}

	s := &Server{
		svc:         svc,
		cfg:         cfg,
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(rlCfg),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Profiles
	mux.HandleFunc("POST /users/{user_id}/profile", s.handleCreateProfile)
	mux.HandleFunc("GET /users/{user_id}/profile", s.handleGetUserProfile)
	mux.HandleFunc("GET /profiles/{id}", s.handleGetProfile)
	mux.HandleFunc("DELETE /profiles/{id}", s.handleDeleteProfile)
	mux.HandleFunc("PUT /profiles/{id}/sections/{section_id}", s.handleUpdateSection)
	mux.HandleFunc("GET /profiles/{id}/state", s.handleProfileState)
	mux.HandleFunc("GET /profiles/{id}/quality", s.handleProfileQuality)
	mux.HandleFunc("GET /profiles/{id}/validation", s.handleValidateProfile)

	// Summaries
	mux.HandleFunc("GET /users/{user_id}/summary", s.handleGetSummary)
	mux.HandleFunc("POST /users/{user_id}/summary/refresh", s.handleRefreshSummary)

	// Documents
	mux.HandleFunc("POST /users/{user_id}/documents", s.handleIngestDocument)
	mux.HandleFunc("GET /users/{user_id}/documents", s.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("POST /documents/{id}/analyze", s.handleAnalyzeDocument)
	mux.HandleFunc("POST /confidence", s.handleScoreConfidence)

	// Answers
	mux.HandleFunc("POST /users/{user_id}/answers", s.handleCreateAnswer)
	mux.HandleFunc("GET /users/{user_id}/answers", s.handleListAnswers)

	// Recommendations
	mux.HandleFunc("POST /users/{user_id}/recommendations/generate", s.handleGenerateRecommendations)
	mux.HandleFunc("GET /users/{user_id}/recommendations", s.handleListRecommendations)
	mux.HandleFunc("GET /users/{user_id}/recommendations/history", s.handleRecommendationHistory)
	mux.HandleFunc("GET /recommendations/{id}", s.handleGetRecommendation)
	mux.HandleFunc("PUT /recommendations/{id}/status", s.handleUpdateStatus)
	mux.HandleFunc("PUT /recommendations/{id}/progress", s.handleUpdateProgress)
	mux.HandleFunc("POST /recommendations/generate-all", s.handleGenerateAll)

	// Notifications
	mux.HandleFunc("GET /users/{user_id}/notifications", s.handleListNotifications)
	mux.HandleFunc("POST /notifications/{id}/read", s.handleMarkNotificationRead)

	var handler http.Handler = mux
	handler = s.withCORS(handler)
	handler = s.withLogging(handler)
	handler = s.withRateLimit(handler)
	handler = middleware.Recoverer(handler)
	handler = middleware.RealIP(handler)
	handler = middleware.RequestID(handler)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for batch generation
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop rate limiter cleanup goroutine
	defer s.rateLimiter.Stop()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Close releases background resources without serving
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID extracts the client identifier from the request.
// RealIP has already replaced RemoteAddr with the forwarded address when present.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded", "limit", info.Limit, "remaining", info.Remaining)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.svc.Store != nil {
		if err := s.svc.Store.Ping(r.Context()); err != nil {
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status and writes it. Validation problems are
// listed under "details"; internal errors are logged and not echoed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		s.errorResponse(w, status, "Internal server error")
		return
	}

	if validation.IsValidationError(err) {
		s.jsonResponse(w, status, map[string]any{
			"error":   "validation failed",
			"details": validation.FromError(err),
		})
		return
	}
	s.errorResponse(w, status, err.Error())
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrBadRequest{Message: "invalid request body", Cause: err}
	}
	return nil
}

// pathUUID parses a UUID path parameter
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, &ErrBadRequest{Message: fmt.Sprintf("invalid %s", name), Cause: err}
	}
	return id, nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ErrBadRequest{Message: fmt.Sprintf("invalid %s", name), Cause: err}
	}
	return v, nil
}

// queryTime parses an optional RFC 3339 query parameter; absent is zero
func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &ErrBadRequest{Message: fmt.Sprintf("invalid %s", name), Cause: err}
	}
	return t, nil
}
