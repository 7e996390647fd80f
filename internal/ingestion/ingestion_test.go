package ingestion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: "   \n  \n  ", want: ""},
		{name: "headings lose indent", input: "   ## Goals\nText", want: "## Goals\nText"},
		{name: "inner spaces collapse", input: "GPA:    3.8\t\tweighted", want: "GPA: 3.8 weighted"},
		{name: "bullets keep marker", input: "-   Debate\n•  Chess   club", want: "- Debate\n• Chess club"},
		{name: "nested bullet keeps indent", input: "- Awards\n  - State   finalist", want: "- Awards\n  - State finalist"},
		{name: "line endings", input: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "blank runs capped", input: "one\n\n\n\n\ntwo", want: "one\n\ntwo"},
		{name: "non-breaking space", input: "AP\u00a0Biology", want: "AP Biology"},
		{name: "unicode preserved", input: "Résumé 🚀  spéciàl", want: "Résumé 🚀 spéciàl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func TestNewMetadata(t *testing.T) {
	a := NewMetadata("three word text", "https://example.com")
	b := NewMetadata("three word text", "")
	c := NewMetadata("other text", "")

	assert.Len(t, a.Hash, 64)
	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.Hash, c.Hash)
	assert.Equal(t, 3, a.WordCount)
	assert.False(t, a.FetchedAt.IsZero())
}

func TestIngester_FromText(t *testing.T) {
	ing := NewIngester(nil)

	text, meta, err := ing.FromText("  My   essay  ")
	require.NoError(t, err)
	assert.Equal(t, "My essay", text)
	assert.Equal(t, 2, meta.WordCount)

	_, _, err = ing.FromText(" \n ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestIngester_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "essay.txt")
	require.NoError(t, os.WriteFile(path, []byte("# Essay\n\nBody   text"), 0o644))

	text, _, err := NewIngester(nil).FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Essay\n\nBody text", text)

	_, _, err = NewIngester(nil).FromFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

type fakeRenderer struct {
	html  string
	err   error
	calls int
}

func (f *fakeRenderer) Render(context.Context, string) (string, error) {
	f.calls++
	return f.html, f.err
}

func newPageServer(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestIngester_FromURL_HTML(t *testing.T) {
	server := newPageServer(t, "text/html; charset=utf-8",
		`<html><head><title>Why I Code</title></head><body><nav>Home</nav><article><p>I started coding at twelve.</p></article></body></html>`)

	text, meta, err := NewIngester(nil).FromURL(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "I started coding at twelve.", text)
	assert.Equal(t, "Why I Code", meta.Title)
	assert.Equal(t, server.URL, meta.URL)
	assert.False(t, meta.Rendered)
}

func TestIngester_FromURL_PlainText(t *testing.T) {
	server := newPageServer(t, "text/plain", "Name: Ada\n\n\n\nGPA: 3.9")

	text, meta, err := NewIngester(nil).FromURL(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Name: Ada\n\nGPA: 3.9", text)
	assert.Equal(t, server.URL, meta.URL)
}

func TestIngester_FromURL_BrowserFallback(t *testing.T) {
	server := newPageServer(t, "text/html", `<html><body><div id="app"></div><p>Loading</p></body></html>`)
	long := strings.Repeat("Rendered portfolio content. ", 30)

	tests := []struct {
		name         string
		renderer     *fakeRenderer
		wantRendered bool
		wantText     string
	}{
		{
			name:         "rendered text replaces thin page",
			renderer:     &fakeRenderer{html: "<html><body><main><p>" + long + "</p></main></body></html>"},
			wantRendered: true,
			wantText:     strings.TrimSpace(long),
		},
		{
			name:     "render failure keeps HTTP text",
			renderer: &fakeRenderer{err: errors.New("chrome not installed")},
			wantText: "Loading",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, meta, err := NewIngester(nil, WithBrowser(tt.renderer)).FromURL(context.Background(), server.URL)
			require.NoError(t, err)
			assert.Equal(t, 1, tt.renderer.calls)
			assert.Equal(t, tt.wantRendered, meta.Rendered)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestIngester_FromURL_Errors(t *testing.T) {
	_, _, err := NewIngester(nil).FromURL(context.Background(), "not a url")
	assert.ErrorIs(t, err, ErrHTTPRequestFailed)

	empty := newPageServer(t, "text/html", "<html><body><script>var x</script></body></html>")
	_, _, err = NewIngester(nil).FromURL(context.Background(), empty.URL)
	assert.ErrorIs(t, err, ErrEmptyContent)
}
