package server

import (
	"net/http"

	"github.com/jonathan/profiler/internal/types"
	"github.com/jonathan/profiler/internal/validation"
)

// GenerateResponse lists the recommendations created by one generation run
type GenerateResponse struct {
	Generated       int                    `json:"generated"`
	Recommendations []types.Recommendation `json:"recommendations"`
}

// handleGenerateRecommendations runs the generators for one user
func (s *Server) handleGenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	recs, err := s.svc.Recommendations.GenerateForUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []types.Recommendation{}
	}
	s.jsonResponse(w, http.StatusOK, GenerateResponse{Generated: len(recs), Recommendations: recs})
}

// handleListRecommendations lists a user's recommendations, optionally by status
func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	recs, err := s.svc.Recommendations.ListForUser(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []types.Recommendation{}
	}
	s.jsonResponse(w, http.StatusOK, recs)
}

// handleRecommendationHistory lists recommendations created between start and end (RFC 3339)
func (s *Server) handleRecommendationHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	start, err := queryTime(r, "start")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := queryTime(r, "end")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	recs, err := s.svc.Recommendations.History(r.Context(), userID, start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []types.Recommendation{}
	}
	s.jsonResponse(w, http.StatusOK, recs)
}

func (s *Server) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.svc.Recommendations.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req types.UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, validation.FromError(err))
		return
	}

	rec, err := s.svc.Recommendations.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req types.UpdateProgressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, validation.FromError(err))
		return
	}

	rec, err := s.svc.Recommendations.UpdateProgress(r.Context(), id, *req.Progress)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

// handleGenerateAll runs generation for every user with bounded concurrency
func (s *Server) handleGenerateAll(w http.ResponseWriter, r *http.Request) {
	concurrency, err := queryInt(r, "concurrency", s.cfg.BatchConcurrency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.svc.Recommendations.GenerateForAllUsers(r.Context(), concurrency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleListNotifications lists a user's notifications; ?unread=true filters to unread
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	list, err := s.svc.Notifications.List(r.Context(), userID, unreadOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []types.Notification{}
	}
	s.jsonResponse(w, http.StatusOK, list)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Notifications.MarkRead(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
