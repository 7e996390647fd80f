package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the minimum extracted text length to consider an HTTP
// fetch successful. Shorter pages are likely JavaScript-rendered.
const MinContentLength = 500

// DefaultBrowserTimeout bounds a single headless render
const DefaultBrowserTimeout = 30 * time.Second

// ShouldUseBrowser returns true if the extracted text is too short,
// indicating the page is likely a JavaScript-rendered SPA.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// Renderer renders a page and returns its HTML
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Browser renders pages with headless Chrome. Chrome or Chromium must be installed.
type Browser struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewBrowser creates a headless browser renderer
func NewBrowser(timeout time.Duration, logger *slog.Logger) *Browser {
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{Timeout: timeout, Logger: logger}
}

// Render implements Renderer
func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	b.Logger.Debug("starting headless browser", "url", url)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	b.Logger.Debug("rendered page", "url", url, "bytes", len(html))
	return html, nil
}
