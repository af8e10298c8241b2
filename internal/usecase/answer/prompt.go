package answer

import (
	"fmt"
	"strings"

	"github.com/parchment-labs/parchment/internal/domain"
)

const systemPrompt = `You are a careful assistant answering questions about contract documents.
Answer ONLY using the retrieved context below. Do not use outside knowledge.
When you state a fact from the context, cite it by copying the bracketed
reference that precedes the excerpt, exactly as written.
If the context does not contain the answer, reply exactly:
"` + domain.RefusalSentinel + `"`

// BuildPrompt assembles the grounded prompt. Each chunk is preceded by
// the bracketed citation the model is expected to copy verbatim.
func BuildPrompt(question string, chunks []domain.ScoredChunk) domain.Prompt {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	for _, sc := range chunks {
		fmt.Fprintf(&b, "%s\n%s\n\n", sc.Chunk.Citation(), sc.Chunk.Text)
	}
	fmt.Fprintf(&b, "Question: %s", question)

	return domain.Prompt{System: systemPrompt, User: b.String()}
}
