package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonathan/profiler/internal/fetch"
)

var (
	// ErrEmptyContent is returned when a source yields no text
	ErrEmptyContent = errors.New("document has no text content")
	// ErrHTTPRequestFailed is returned when the URL could not be fetched
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when HTML could not be parsed
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// Ingester loads document text from its sources
type Ingester struct {
	fetchOpts  *fetch.Options
	renderer   fetch.Renderer
	useBrowser bool
	logger     *slog.Logger
}

// Option configures an Ingester
type Option func(*Ingester)

// WithFetchOptions overrides the HTTP fetch options
func WithFetchOptions(opts *fetch.Options) Option {
	return func(i *Ingester) { i.fetchOpts = opts }
}

// WithBrowser enables the headless browser fallback for thin pages
func WithBrowser(r fetch.Renderer) Option {
	return func(i *Ingester) {
		i.renderer = r
		i.useBrowser = r != nil
	}
}

// NewIngester creates an Ingester
func NewIngester(logger *slog.Logger, opts ...Option) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Ingester{fetchOpts: fetch.DefaultOptions(), logger: logger}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// FromText cleans inline text
func (i *Ingester) FromText(content string) (string, *Metadata, error) {
	cleaned := CleanText(content)
	if cleaned == "" {
		return "", nil, ErrEmptyContent
	}
	return cleaned, NewMetadata(cleaned, ""), nil
}

// FromFile reads and cleans a local text file
func (i *Ingester) FromFile(path string) (string, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}
	return i.FromText(string(content))
}

// FromURL fetches a page and extracts its main text. Plain text responses are
// used as-is. When the browser fallback is enabled and the extracted text is
// too short, the page is rendered headlessly and extracted again; a render
// failure keeps the HTTP text.
func (i *Ingester) FromURL(ctx context.Context, url string) (string, *Metadata, error) {
	result, err := fetch.URL(ctx, url, i.fetchOpts)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}
	i.logger.Debug("fetched document", "url", url, "bytes", len(result.HTML), "content_type", result.ContentType)

	if !result.IsHTML() {
		cleaned, meta, err := i.FromText(result.HTML)
		if err != nil {
			return "", nil, err
		}
		meta.URL = url
		return cleaned, meta, nil
	}

	text, err := fetch.ExtractMainText(result.HTML, fetch.DocumentSelectors())
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}
	title := fetch.Title(result.HTML)

	rendered := false
	if i.useBrowser && fetch.ShouldUseBrowser(text) {
		i.logger.Info("content too short, rendering with browser", "url", url, "chars", len(text))
		html, renderErr := i.renderer.Render(ctx, url)
		switch {
		case renderErr != nil:
			i.logger.Warn("browser rendering failed, using HTTP content", "url", url, "error", renderErr)
		default:
			if browserText, extractErr := fetch.ExtractMainText(html, fetch.DocumentSelectors()); extractErr == nil && len(browserText) > len(text) {
				text, rendered = browserText, true
				if t := fetch.Title(html); t != "" {
					title = t
				}
			}
		}
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", nil, ErrEmptyContent
	}
	meta := NewMetadata(cleaned, url)
	meta.Title = title
	meta.Rendered = rendered
	return cleaned, meta, nil
}
