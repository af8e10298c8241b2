package domain

import (
	"regexp"
	"strings"
)

// citationPattern matches rendered citations: [<file> p.<page|unknown> chunk_<seq>].
var citationPattern = regexp.MustCompile(`\[([^\[\]\s]+) p\.([0-9]+|unknown) chunk_([0-9]+)\]`)

// ValidateCitations cross-references every citation the model emitted
// against the context chunks it was actually given. Citations matching a
// supplied chunk are collected in order of first appearance, deduplicated.
// Citations naming anything else are dropped from the list and stripped
// from the text: model output is never trusted to cite faithfully.
// Pure function; no external state.
func ValidateCitations(text string, supplied []Chunk) (string, []string, int) {
	valid := make(map[string]bool, len(supplied))
	for _, c := range supplied {
		valid[c.Citation()] = true
	}

	citations := []string{}
	seen := make(map[string]bool)
	dropped := 0

	cleaned := citationPattern.ReplaceAllStringFunc(text, func(match string) string {
		if !valid[match] {
			dropped++
			return ""
		}
		if !seen[match] {
			seen[match] = true
			citations = append(citations, match)
		}
		return match
	})

	if dropped > 0 {
		cleaned = collapseSpaces(cleaned)
	}
	return cleaned, citations, dropped
}

// collapseSpaces tidies the gaps left by stripped citations.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			space = true
			continue
		}
		if space {
			if b.Len() > 0 && r != '\n' && !isPunct(r) {
				b.WriteByte(' ')
			}
			space = false
		}
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " \t")
}

func isPunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', ')', ']', '!', '?':
		return true
	}
	return false
}
