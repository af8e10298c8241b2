package domain

// RefusalSentinel is the fixed text returned when no adequate context exists.
const RefusalSentinel = "I don't know. The indexed documents do not contain enough information to answer this."

// EmptyIndexNotice is the fixed summary response when nothing has been indexed.
const EmptyIndexNotice = "No documents indexed yet. Upload and index documents first."

// Answer is a synthesized response plus the citations that survived validation.
// A refusal carries zero citations.
type Answer struct {
	Text      string
	Citations []string
	Refusal   bool
}

// Refusal returns the guardrail answer for a query with no usable context.
func RefusalAnswer() Answer {
	return Answer{Text: RefusalSentinel, Citations: []string{}, Refusal: true}
}

// EmptyIndexAnswer returns the fixed summary response for an empty store.
func EmptyIndexAnswer() Answer {
	return Answer{Text: EmptyIndexNotice, Citations: []string{}, Refusal: true}
}
