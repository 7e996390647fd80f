// Package documents ingests user documents and analyzes them with the
// extraction pipeline and confidence calculator.
package documents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/extraction"
	"github.com/jonathan/profiler/internal/ingestion"
	"github.com/jonathan/profiler/internal/scoring"
	"github.com/jonathan/profiler/internal/types"
	"github.com/jonathan/profiler/internal/validation"
)

// Analysis thresholds
const (
	LowConfidence = 0.5
	MinWordCount  = 50
)

// Store persists documents. GetDocument returns nil, nil for an unknown ID.
type Store interface {
	SaveDocument(ctx context.Context, d *types.Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*types.Document, error)
	ListDocuments(ctx context.Context, userID uuid.UUID) ([]types.Document, error)
}

// Service ingests and analyzes documents
type Service struct {
	store      Store
	ingester   *ingestion.Ingester
	pipeline   *extraction.Pipeline
	confidence *scoring.ConfidenceCalculator
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a document service. A nil ingester or pipeline uses the
// defaults: plain HTTP fetching and regex-only extraction.
func NewService(store Store, ingester *ingestion.Ingester, pipeline *extraction.Pipeline, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ingester == nil {
		ingester = ingestion.NewIngester(logger)
	}
	if pipeline == nil {
		pipeline = extraction.NewPipeline(nil, logger)
	}
	return &Service{
		store:      store,
		ingester:   ingester,
		pipeline:   pipeline,
		confidence: scoring.NewConfidenceCalculator(),
		logger:     logger,
		now:        time.Now,
	}
}

// Ingest stores a document from inline content or a URL
func (s *Service) Ingest(ctx context.Context, userID uuid.UUID, req types.IngestDocumentRequest) (*types.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, validation.FromError(err).Err()
	}

	var (
		text string
		meta *ingestion.Metadata
		err  error
	)
	if strings.TrimSpace(req.Content) != "" {
		text, meta, err = s.ingester.FromText(req.Content)
	} else {
		text, meta, err = s.ingester.FromURL(ctx, req.URL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ingest document: %w", err)
	}

	doc := &types.Document{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        strings.TrimSpace(req.Title),
		DocumentType: types.ParseDocumentType(req.DocumentType),
		Content:      text,
		SourceURL:    req.URL,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	s.logger.Info("document ingested",
		"user_id", userID,
		"document_id", doc.ID,
		"document_type", doc.DocumentType,
		"words", meta.WordCount,
		"rendered", meta.Rendered)
	return doc, nil
}

// Get returns a document by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*types.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, types.NewNotFound(types.KindDocument, id)
	}
	return doc, nil
}

// UserDocuments lists a user's documents
func (s *Service) UserDocuments(ctx context.Context, userID uuid.UUID) ([]types.Document, error) {
	return s.store.ListDocuments(ctx, userID)
}

// Analyze loads and analyzes a stored document
func (s *Service) Analyze(ctx context.Context, id uuid.UUID) (*types.DocumentAnalysis, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeDocument(ctx, doc)
}

// AnalyzeDocument extracts information from a document, scores the
// extraction confidence and lists the problems found.
func (s *Service) AnalyzeDocument(ctx context.Context, doc *types.Document) (*types.DocumentAnalysis, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	info := s.pipeline.Run(ctx, doc.DocumentType, doc.Content)
	confidence := s.confidence.Confidence(info)

	analysis := &types.DocumentAnalysis{
		DocumentID:   doc.ID,
		DocumentType: doc.DocumentType,
		Confidence:   confidence,
		Sources:      info.Provenance().Sources(),
		Extracted:    info,
		Issues:       Issues(info, confidence, doc.Content),
	}
	s.logger.Debug("document analyzed",
		"document_id", doc.ID,
		"confidence", confidence,
		"issues", len(analysis.Issues))
	return analysis, nil
}

// Issues lists the problems with an extraction: a failed extraction is an
// error, and missing required fields, low confidence and very short content
// are warnings.
func Issues(info extraction.Info, confidence float64, content string) []types.Issue {
	issues := []types.Issue{}

	if f, ok := info.(*extraction.Failure); ok {
		issues = append(issues, types.Issue{
			Description: fmt.Sprintf("Extraction failed: %s", f.Message),
			Severity:    types.SeverityError,
		})
		return issues
	}

	for _, field := range scoring.MissingRequiredFields(info) {
		issues = append(issues, types.Issue{
			Field:       field,
			Description: fmt.Sprintf("Could not find %s", strings.ReplaceAll(field, "_", " ")),
			Severity:    types.SeverityWarning,
		})
	}
	if confidence < LowConfidence {
		issues = append(issues, types.Issue{
			Description: fmt.Sprintf("Low extraction confidence (%.2f)", confidence),
			Severity:    types.SeverityWarning,
		})
	}
	if words := ingestion.WordCount(content); words < MinWordCount {
		issues = append(issues, types.Issue{
			Field:       "content",
			Description: fmt.Sprintf("Document is very short (%d words)", words),
			Severity:    types.SeverityWarning,
		})
	}
	return issues
}
