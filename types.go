package parchment

import (
	"github.com/parchment-labs/parchment/internal/domain"
	indexuc "github.com/parchment-labs/parchment/internal/usecase/index"
)

// Domain types re-exported for SDK consumers.
type (
	// Answer is a grounded response with its validated citations.
	Answer = domain.Answer
	// ScoredChunk is a retrieved chunk with its similarity score.
	ScoredChunk = domain.ScoredChunk
	// Chunk is one indexed slice of a document.
	Chunk = domain.Chunk
	// TokenSink receives streamed answer tokens.
	TokenSink = domain.TokenSink
	// Report summarizes one indexing run.
	Report = indexuc.Report
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrMissingCredential = domain.ErrMissingCredential
	ErrUnsupportedFormat = domain.ErrUnsupportedFormat
	ErrExtraction        = domain.ErrExtraction
	ErrEmbeddingProvider = domain.ErrEmbeddingProvider
	ErrChatProvider      = domain.ErrChatProvider
)
