package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Metadata describes where ingested text came from
type Metadata struct {
	URL       string    `json:"url,omitempty"`
	Title     string    `json:"title,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	Hash      string    `json:"hash"` // SHA256 hex digest of the cleaned text
	WordCount int       `json:"word_count"`
	Rendered  bool      `json:"rendered,omitempty"` // text came from a headless browser
}

// NewMetadata creates metadata for cleaned content
func NewMetadata(content string, url string) *Metadata {
	return &Metadata{
		URL:       url,
		FetchedAt: time.Now().UTC(),
		Hash:      computeHash(content),
		WordCount: WordCount(content),
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
