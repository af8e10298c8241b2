package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/parchment-labs/parchment/internal/chunker"
	"github.com/parchment-labs/parchment/internal/config"
	dbRedis "github.com/parchment-labs/parchment/internal/db/redis"
	"github.com/parchment-labs/parchment/internal/domain"
	"github.com/parchment-labs/parchment/internal/extract"
	logpkg "github.com/parchment-labs/parchment/internal/logger"
	"github.com/parchment-labs/parchment/internal/metrics"
	chunkrepo "github.com/parchment-labs/parchment/internal/repository/chunk"
	"github.com/parchment-labs/parchment/internal/repository/embcache"
	chiTransport "github.com/parchment-labs/parchment/internal/transport/chi"
	openaiTransport "github.com/parchment-labs/parchment/internal/transport/openai"
	answeruc "github.com/parchment-labs/parchment/internal/usecase/answer"
	healthuc "github.com/parchment-labs/parchment/internal/usecase/health"
	indexuc "github.com/parchment-labs/parchment/internal/usecase/index"
	retrieveuc "github.com/parchment-labs/parchment/internal/usecase/retrieve"
	summaryuc "github.com/parchment-labs/parchment/internal/usecase/summary"
	"github.com/parchment-labs/parchment/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting parchment API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterChatMetrics()

	embedder, baseEmbedder := buildEmbedder(cfg.Provider, store, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Provider.EmbeddingModel),
		zap.Int("dimensions", cfg.Provider.Dimensions),
	)

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:   cfg.Provider.APIKey,
		BaseURL:  cfg.Provider.BaseURL,
		Model:    cfg.Provider.ChatModel,
		Provider: "openai",
		Logger:   logger,
	})

	// Repository
	chunkRepo := chunkrepo.New(store, cfg.Provider.Dimensions).WithHNSW(chunkrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})

	// Use case services
	splitter := chunker.New(chunker.Config{
		MinSize: cfg.Chunking.MinSize,
		MaxSize: cfg.Chunking.MaxSize,
		Overlap: cfg.Chunking.Overlap,
	})
	indexSvc := indexuc.New(embedder, chunkRepo, extract.NewService(), splitter)
	retrieveSvc := retrieveuc.New(embedder, chunkRepo).WithK(cfg.Retrieval.K)
	answerSvc := answeruc.New(retrieveSvc, generator).WithMinScore(cfg.Retrieval.MinScore)
	summarySvc := summaryuc.New(retrieveSvc, generator, chunkRepo)
	healthSvc := healthuc.New(store, baseEmbedder)

	server := chiTransport.NewServer(indexSvc, answerSvc, summarySvc, chunkRepo, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Truncating.
// Truncation sits outermost so the cache key matches what the provider sees.
// The base provider is returned separately for health checks.
func buildEmbedder(
	provCfg config.ProviderConfig,
	store *dbRedis.Store,
	logger *zap.Logger,
) (domain.Embedder, *openaiTransport.Embedder) {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      provCfg.EmbeddingModel,
		Dimensions: provCfg.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	cached := embcache.New(base, store, metrics.EmbeddingCacheTotal, logger).
		WithTTL(time.Duration(provCfg.CacheTTLSec) * time.Second)

	return domain.NewTruncatingEmbedder(cached, provCfg.MaxInputChars), base
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
