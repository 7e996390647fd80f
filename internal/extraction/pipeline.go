package extraction

import (
	"context"
	"log/slog"

	"github.com/jonathan/profiler/internal/types"
)

// Pipeline runs the regex extractor and, when configured, a model-backed
// extractor whose output takes precedence over the regex fields.
type Pipeline struct {
	regex  *RegexExtractor
	model  Extractor
	logger *slog.Logger
}

// NewPipeline creates a pipeline. model may be nil.
func NewPipeline(model Extractor, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{regex: NewRegexExtractor(), model: model, logger: logger}
}

// Run extracts and decodes text. It always returns an Info; a model failure
// degrades to the regex payload.
func (p *Pipeline) Run(ctx context.Context, docType types.DocumentType, text string) Info {
	return Decode(docType, p.RunRaw(ctx, docType, text))
}

// RunRaw is Run without decoding
func (p *Pipeline) RunRaw(ctx context.Context, docType types.DocumentType, text string) map[string]any {
	base := p.regex.ExtractText(docType, text)
	if p.model == nil {
		return base
	}
	if _, failed := base[KeyError]; failed {
		return base
	}

	modelOut, err := p.model.Extract(ctx, docType, text)
	if err != nil {
		p.logger.Warn("model extraction failed, using regex payload",
			"document_type", docType, "error", err)
		return base
	}
	return Merge(modelOut, base)
}
