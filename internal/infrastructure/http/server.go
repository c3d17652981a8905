// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/conversation"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/domain/usecases"
)

// Options configures the server.
type Options struct {
	Addr            string
	MaxUploadBytes  int64
	HistoryLimit    int
	AllowedOrigin   string
	ShutdownTimeout time.Duration
}

// Server is the HTTP server for the document QA API.
type Server struct {
	ingest   *usecases.IngestUseCase
	query    *usecases.QueryUseCase
	sessions ports.SessionStore
	embedder ports.EmbeddingProvider
	store    ports.VectorStore
	opts     Options
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewServer creates a new HTTP server.
func NewServer(
	ingest *usecases.IngestUseCase,
	query *usecases.QueryUseCase,
	sessions ports.SessionStore,
	embedder ports.EmbeddingProvider,
	store ports.VectorStore,
	opts Options,
	logger arbor.ILogger,
) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = conversation.DefaultLimit
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	return &Server{
		ingest:   ingest,
		query:    query,
		sessions: sessions,
		embedder: embedder,
		store:    store,
		opts:     opts,
		validate: validator.New(),
		logger:   logger,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/documents/upload", s.handleUpload)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)

	mux.HandleFunc("POST /api/queries", s.handleQuery)
	mux.HandleFunc("POST /api/queries/conversation", s.handleConversation)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("GET /ws/chat", s.handleChatSocket)

	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		// Completions and large uploads can take minutes.
		WriteTimeout: 300 * time.Second,
	}

	s.logger.Info().Str("addr", s.opts.Addr).Msg("DocQA server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("DocQA server shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.opts.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
