package extract

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/parchment-labs/parchment/internal/domain"
)

// TextExtractor handles plain text files. Paragraphs are kept separated by
// blank lines so the chunker can break on them.
type TextExtractor struct{}

// Extract reads the whole file as a single unpaged unit.
func (e *TextExtractor) Extract(r io.Reader, _ string) ([]domain.Page, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var buf strings.Builder
	for scanner.Scan() {
		buf.WriteString(scanner.Text())
		buf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w: %w", err, domain.ErrExtraction)
	}

	return []domain.Page{{Number: 0, Text: buf.String()}}, nil
}
