package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/parchment-labs/parchment/internal/domain"
)

// DOCXExtractor handles .docx files. Word stores no fixed pagination, so
// the output is a single page numbered 0.
type DOCXExtractor struct{}

// Extract concatenates paragraph text. go-docx needs a ReadSeeker plus
// size, so the upload is spooled to a temp file first.
func (e *DOCXExtractor) Extract(r io.Reader, _ string) ([]domain.Page, error) {
	tmp, err := os.CreateTemp("", "parchment-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w: %w", err, domain.ErrExtraction)
	}

	var buf strings.Builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(text)
	}

	if buf.Len() == 0 {
		return nil, fmt.Errorf("no extractable text in docx: %w", domain.ErrExtraction)
	}
	return []domain.Page{{Number: 0, Text: buf.String()}}, nil
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
