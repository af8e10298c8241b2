package retrieve

import "github.com/parchment-labs/parchment/internal/domain"

// Reorder rearranges ranked chunks so the most relevant ones sit at the
// ends of the slice and the least relevant in the middle. Long prompts
// are attended to most strongly at their start and end, so the middle is
// where weak context costs the least.
//
// The input is walked from worst to best; even positions go to the front
// of the result and odd positions to the back. Ranked [A, B, C, D]
// becomes [B, D, C, A].
func Reorder(chunks []domain.ScoredChunk) []domain.ScoredChunk {
	if len(chunks) <= 1 {
		return chunks
	}

	reordered := make([]domain.ScoredChunk, 0, len(chunks))
	for i := len(chunks) - 1; i >= 0; i-- {
		c := chunks[i]
		if (len(chunks)-1-i)%2 == 0 {
			reordered = append([]domain.ScoredChunk{c}, reordered...)
		} else {
			reordered = append(reordered, c)
		}
	}
	return reordered
}
