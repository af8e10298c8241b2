package extract

import (
	"fmt"
	"io"
	"os"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/parchment-labs/parchment/internal/domain"
)

// PDFExtractor handles PDF files. The only format whose extractor supplies
// real page numbers.
type PDFExtractor struct{}

// Extract pulls plain text per page. ledongthuc/pdf needs a ReadSeeker with
// a known size, so the upload is spooled to a temp file first.
func (e *PDFExtractor) Extract(r io.Reader, _ string) ([]domain.Page, error) {
	tmp, err := os.CreateTemp("", "parchment-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, reader, err := pdflib.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w: %w", err, domain.ErrExtraction)
	}
	defer f.Close()

	var pages []domain.Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Image-only or corrupt page; the rest of the document still counts.
			continue
		}
		pages = append(pages, domain.Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in pdf: %w", domain.ErrExtraction)
	}
	return pages, nil
}
