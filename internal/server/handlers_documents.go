package server

import (
	"net/http"

	"github.com/jonathan/profiler/internal/extraction"
	"github.com/jonathan/profiler/internal/qa"
	"github.com/jonathan/profiler/internal/scoring"
	"github.com/jonathan/profiler/internal/types"
	"github.com/jonathan/profiler/internal/validation"
)

// ConfidenceResponse is the result of scoring an ad-hoc extraction payload
type ConfidenceResponse struct {
	DocumentType types.DocumentType `json:"document_type"`
	Sources      []string           `json:"sources"`
	scoring.Breakdown
}

// AnswerResponse is a stored answer with its quality score
type AnswerResponse struct {
	types.Answer
	Quality float64 `json:"quality"`
}

// handleIngestDocument stores a document from inline content or a URL
func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req types.IngestDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, err := s.svc.Documents.Ingest(r.Context(), userID, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	docs, err := s.svc.Documents.UserDocuments(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []types.Document{}
	}
	s.jsonResponse(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.svc.Documents.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

// handleAnalyzeDocument runs extraction and confidence scoring on a stored document
func (s *Server) handleAnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	analysis, err := s.svc.Documents.Analyze(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis)
}

// handleScoreConfidence scores an extraction payload supplied by the caller
func (s *Server) handleScoreConfidence(w http.ResponseWriter, r *http.Request) {
	var req types.ScoreConfidenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, validation.FromError(err))
		return
	}

	docType := types.ParseDocumentType(req.DocumentType)
	info := extraction.Decode(docType, req.Info)
	sources := info.Provenance().Sources()
	if sources == nil {
		sources = []string{}
	}
	s.jsonResponse(w, http.StatusOK, ConfidenceResponse{
		DocumentType: docType,
		Sources:      sources,
		Breakdown:    s.svc.Confidence.Breakdown(info),
	})
}

func (s *Server) handleCreateAnswer(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req types.CreateAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	answer, err := s.svc.QA.Record(r.Context(), userID, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, AnswerResponse{
		Answer:  *answer,
		Quality: s.svc.QA.EvaluateAnswerQuality(*answer),
	})
}

func (s *Server) handleListAnswers(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", qa.DefaultRecentLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	answers, err := s.svc.QA.RecentAnswers(r.Context(), userID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]AnswerResponse, 0, len(answers))
	for _, a := range answers {
		out = append(out, AnswerResponse{Answer: a, Quality: s.svc.QA.EvaluateAnswerQuality(a)})
	}
	s.jsonResponse(w, http.StatusOK, out)
}
