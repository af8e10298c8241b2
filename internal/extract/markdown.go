package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/parchment-labs/parchment/internal/domain"
)

// MarkdownExtractor handles Markdown files using goldmark. Markup is
// dropped; heading text and block text survive as plain paragraphs.
type MarkdownExtractor struct{}

// Extract renders the Markdown AST to plain text as a single unpaged unit.
func (e *MarkdownExtractor) Extract(r io.Reader, _ string) ([]domain.Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w: %w", err, domain.ErrExtraction)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var buf strings.Builder
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		t := blockText(n, src)
		if t == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(t)
	}

	return []domain.Page{{Number: 0, Text: buf.String()}}, nil
}

// blockText gets the plain text content of a goldmark AST node.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(blockText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
