package extract

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/parchment-labs/parchment/internal/domain"
)

// Extractor converts raw document bytes into extracted pages. Page numbers
// are supplied only when the format carries real page boundaries (PDF);
// everything else yields a single page numbered 0 ("unknown" in citations).
type Extractor interface {
	Extract(r io.Reader, filename string) ([]domain.Page, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

// ForFile returns the extractor for a filename's extension.
func ForFile(filename string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("%s: %w", filename, domain.ErrUnsupportedFormat)
	}
}

// IsSupported checks whether a filename's extension has an extractor.
func IsSupported(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Format returns the lowercase extension without the dot, for Document.Format.
func Format(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
