package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/parchment-labs/parchment/internal/domain"
	healthuc "github.com/parchment-labs/parchment/internal/usecase/health"
	indexuc "github.com/parchment-labs/parchment/internal/usecase/index"
)

// maxUploadBytes caps the multipart memory buffer for document uploads.
const maxUploadBytes = 64 << 20

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned to clients.
const (
	CodeBadRequest        = "bad_request"
	CodeUnauthorized      = "unauthorized"
	CodeUnsupportedFormat = "unsupported_format"
	CodeEmbeddingProvider = "embedding_provider_error"
	CodeChatProvider      = "chat_provider_error"
	CodeInternalError     = "internal_error"
)

// Answerer produces a grounded answer for a question, streaming tokens
// through the sink.
type Answerer interface {
	Ask(ctx context.Context, question string, sink domain.TokenSink) (domain.Answer, error)
}

// Summarizer produces a structured summary of the whole index.
type Summarizer interface {
	Summarize(ctx context.Context, sink domain.TokenSink) (domain.Answer, error)
}

// Ingester indexes an uploaded document.
type Ingester interface {
	IngestDocument(ctx context.Context, filename string, data []byte) (indexuc.Report, error)
}

// ChunkCounter reports the number of indexed chunks.
type ChunkCounter interface {
	Count(ctx context.Context) (int, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the document QA pipeline over HTTP.
type Server struct {
	ingester      Ingester
	answerer      Answerer
	summarizer    Summarizer
	counter       ChunkCounter
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingester Ingester,
	answerer Answerer,
	summarizer Summarizer,
	counter ChunkCounter,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingester:   ingester,
		answerer:   answerer,
		summarizer: summarizer,
		counter:    counter,
		health:     health,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, CodeUnsupportedFormat),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(domain.ErrChatProvider, http.StatusBadGateway, CodeChatProvider),
	}
	return s
}

// Routes mounts all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/documents", s.handleUpload)
	r.Post("/ask", s.handleAsk)
	r.Post("/summary", s.handleSummary)
	r.Get("/stats", s.handleStats)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// uploadResponse is the body of POST /documents. BatchID correlates the
// upload with the ingestion log lines it produced.
type uploadResponse struct {
	BatchID string           `json:"batch_id"`
	Reports []indexuc.Report `json:"reports"`
}

// handleUpload handles POST /documents (multipart, field "files").
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid multipart body: "+err.Error())
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "no files uploaded; use multipart field \"files\"")
		return
	}

	batchID := uuid.NewString()
	log := s.logger.With(zap.String("batch_id", batchID))

	reports := make([]indexuc.Report, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "reading upload "+fh.Filename+": "+err.Error())
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "reading upload "+fh.Filename+": "+err.Error())
			return
		}

		report, err := s.ingester.IngestDocument(r.Context(), fh.Filename, data)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		log.Info("Document ingested",
			zap.String("doc_id", report.DocID),
			zap.Int("indexed", report.Indexed),
			zap.Int("failed", report.Failed))
		reports = append(reports, report)
	}

	writeJSON(w, http.StatusOK, uploadResponse{BatchID: batchID, Reports: reports})
}

// askRequest is the body of POST /ask.
type askRequest struct {
	Question string `json:"question"`
}

// handleAsk handles POST /ask. Tokens are streamed as SSE "token" events
// and the validated answer is sent as a final "answer" event.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "question is required")
		return
	}

	s.streamAnswer(w, r, func(sink domain.TokenSink) (domain.Answer, error) {
		return s.answerer.Ask(r.Context(), req.Question, sink)
	})
}

// handleSummary handles POST /summary with the same SSE protocol as /ask.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.streamAnswer(w, r, func(sink domain.TokenSink) (domain.Answer, error) {
		return s.summarizer.Summarize(r.Context(), sink)
	})
}

// answerEvent is the final SSE event payload for /ask and /summary.
type answerEvent struct {
	Text      string   `json:"text"`
	Citations []string `json:"citations"`
	Refusal   bool     `json:"refusal"`
}

// tokenEvent is the per-token SSE event payload.
type tokenEvent struct {
	Token string `json:"token"`
}

func (s *Server) streamAnswer(
	w http.ResponseWriter,
	r *http.Request,
	run func(sink domain.TokenSink) (domain.Answer, error),
) {
	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternalError, "streaming unsupported")
		return
	}

	answer, err := run(func(token string) {
		sse.WriteEvent("token", tokenEvent{Token: token})
	})
	if err != nil {
		// Headers are already sent; the error travels in-band.
		s.logger.Warn("stream failed", zap.Error(err))
		sse.WriteEvent("error", ErrorResponse{Code: errorCode(err), Message: safeDomainMessage(err)})
		return
	}

	sse.WriteEvent("answer", answerEvent{
		Text:      answer.Text,
		Citations: answer.Citations,
		Refusal:   answer.Refusal,
	})
}

// statsResponse is the body of GET /stats.
type statsResponse struct {
	Chunks int `json:"chunks"`
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.counter.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Chunks: count})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnsupportedFormat,
		domain.ErrExtraction,
		domain.ErrEmbeddingProvider,
		domain.ErrChatProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// errorCode maps a domain error to its client-facing code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmbeddingProvider):
		return CodeEmbeddingProvider
	case errors.Is(err, domain.ErrChatProvider):
		return CodeChatProvider
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return CodeUnsupportedFormat
	default:
		return CodeInternalError
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
