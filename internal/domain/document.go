package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// KeyPrefix namespaces every Redis key written by this service.
const KeyPrefix = "parchment:"

// Document is one uploaded contract file after text extraction.
// Text is immutable once extracted; indexing never mutates it.
type Document struct {
	ID         string // sanitized filename, unique per upload set
	Filename   string // original filename as uploaded
	Format     string // lowercase extension without the dot: pdf, docx, txt, md, html
	Text       string
	UploadedAt time.Time
}

// Chunk is a contiguous, overlap-linked slice of a document's text.
// Seq is the zero-based position of the chunk within its document.
// Page is the 1-based source page, or 0 when the extractor supplied
// no page boundaries for this format.
type Chunk struct {
	DocID   string
	Seq     int
	Text    string
	Source  string // source filename for citations
	Page    int
	Overlap int // leading characters shared with the previous chunk
}

// ID returns the stable chunk identifier <docID>_chunk_<seq>.
// Re-chunking the same document yields the same ids, which is what
// makes re-indexing overwrite instead of duplicate.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s_chunk_%d", c.DocID, c.Seq)
}

// Citation renders the chunk's citation: [<filename> p.<page|unknown> chunk_<seq>].
// Pure function of chunk metadata; identical output for the same chunk at any time.
func (c Chunk) Citation() string {
	page := "unknown"
	if c.Page > 0 {
		page = strconv.Itoa(c.Page)
	}
	return fmt.Sprintf("[%s p.%s chunk_%d]", c.Source, page, c.Seq)
}

// ScoredChunk is a chunk paired with its similarity score from a search.
// Higher is more relevant. Not persisted; recomputed per query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename maps an uploaded filename to a safe document id:
// everything outside [a-zA-Z0-9._-] becomes an underscore.
func SanitizeFilename(name string) string {
	return filenameSanitizer.ReplaceAllString(name, "_")
}
