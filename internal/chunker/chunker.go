package chunker

import (
	"github.com/parchment-labs/parchment/internal/domain"
)

// Config holds chunking parameters in characters.
type Config struct {
	MinSize int // smallest chunk for which a boundary break is accepted
	MaxSize int // hard upper bound per chunk, overlap included
	Overlap int // leading characters repeated from the previous chunk
}

// DefaultConfig returns the tuned chunking parameters.
func DefaultConfig() Config {
	return Config{MinSize: 800, MaxSize: 1200, Overlap: 200}
}

// Chunker splits extracted document text into overlapping chunks with
// stable citation metadata. Splitting is deterministic: the same input
// always yields the same boundaries and ids.
type Chunker struct {
	cfg Config
}

// New creates a chunker, falling back to defaults for non-positive values.
func New(cfg Config) *Chunker {
	def := DefaultConfig()
	if cfg.MinSize <= 0 {
		cfg.MinSize = def.MinSize
	}
	if cfg.MaxSize < cfg.MinSize {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.MinSize {
		cfg.Overlap = def.Overlap
		if cfg.Overlap >= cfg.MinSize {
			cfg.Overlap = cfg.MinSize / 4
		}
	}
	return &Chunker{cfg: cfg}
}

// Split chunks the pages of a document. Chunk sequence numbers start at 0
// and increase monotonically across pages, so ids are <docID>_chunk_<seq>.
// Overlap never crosses a page boundary. Empty or whitespace-only input
// yields zero chunks, which the indexer reports as nothing to index.
func (c *Chunker) Split(docID, source string, pages []domain.Page) []domain.Chunk {
	var chunks []domain.Chunk
	seq := 0
	for _, page := range pages {
		if !hasContent(page.Text) {
			continue
		}
		for _, piece := range c.splitText(page.Text) {
			chunks = append(chunks, domain.Chunk{
				DocID:   docID,
				Seq:     seq,
				Text:    piece.text,
				Source:  source,
				Page:    page.Number,
				Overlap: piece.overlap,
			})
			seq++
		}
	}
	return chunks
}

type piece struct {
	text    string
	overlap int
}

// splitText walks the text greedily. Each chunk body starts where the
// previous body ended, so concatenating the non-overlap regions in order
// reconstructs the input exactly.
func (c *Chunker) splitText(text string) []piece {
	n := len(text)
	var pieces []piece
	start := 0
	for start < n {
		overlap := 0
		if len(pieces) > 0 && c.cfg.Overlap > 0 {
			overlap = c.cfg.Overlap
			if overlap > start {
				overlap = start
			}
		}

		limit := start + c.cfg.MaxSize - overlap
		if limit > n {
			limit = n
		}

		end := limit
		if limit < n {
			if b := lastBoundary(text, start, limit); b > start && b-start+overlap >= c.cfg.MinSize {
				end = b
			}
		}

		pieces = append(pieces, piece{text: text[start-overlap : end], overlap: overlap})
		start = end
	}
	return pieces
}

// lastBoundary returns the cut position after the latest sentence or
// paragraph break in text[from:to], or -1 if none exists. A sentence break
// is terminal punctuation followed by whitespace; the cut lands after the
// whitespace run so the next chunk opens on fresh content.
func lastBoundary(text string, from, to int) int {
	for i := to - 1; i > from; i-- {
		ch := text[i-1]
		if (ch == '.' || ch == '!' || ch == '?' || ch == '\n') && isSpace(text[i]) {
			end := i
			for end < to && isSpace(text[end]) {
				end++
			}
			return end
		}
	}
	return -1
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func hasContent(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSpace(s[i]) {
			return true
		}
	}
	return false
}
