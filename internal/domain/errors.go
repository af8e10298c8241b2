package domain

import "errors"

var (
	// ErrMissingCredential signals an absent provider API key. Detected at
	// startup or request entry, never mid-request.
	ErrMissingCredential = errors.New("provider credential missing")
	// ErrExtraction signals an unparseable or empty document. Per-document;
	// never aborts a batch upload.
	ErrExtraction = errors.New("text extraction failed")
	// ErrEmbeddingProvider signals an embedding API failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrChatProvider signals a chat API failure. Distinct from a guardrail
	// refusal, which is a normal answer, not an error.
	ErrChatProvider = errors.New("chat provider error")
	// ErrUnsupportedFormat signals a file extension no extractor handles.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrChunkNotFound signals a missing chunk in the store.
	ErrChunkNotFound = errors.New("chunk not found")
)
