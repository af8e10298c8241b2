package extract

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/parchment-labs/parchment/internal/domain"
)

// HTMLExtractor handles HTML files, keeping visible text only.
type HTMLExtractor struct{}

// Extract walks the DOM and emits block text separated by blank lines,
// as a single unpaged unit.
func (e *HTMLExtractor) Extract(r io.Reader, _ string) ([]domain.Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w: %w", err, domain.ErrExtraction)
	}

	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head":
				return
			case "p", "li", "td", "blockquote", "h1", "h2", "h3", "h4", "h5", "h6", "pre":
				if t := textContent(n); t != "" {
					blocks = append(blocks, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return []domain.Page{{Number: 0, Text: strings.Join(blocks, "\n\n")}}, nil
}

// textContent collects the text under a node, collapsing whitespace.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
