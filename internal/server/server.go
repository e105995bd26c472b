// Package server provides the HTTP JSON API over career-path sessions.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/career-path/internal/server/ratelimit"
	"github.com/jonathan/career-path/internal/session"
	"github.com/jonathan/career-path/internal/types"
)

// DefaultMaxUploadBytes caps résumé uploads.
const DefaultMaxUploadBytes = 10 << 20

// Retriever runs the retrieval half of the RAG pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (types.QueryResult, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	sessions    *session.Manager
	retriever   Retriever
	rateLimiter *ratelimit.Limiter
	validator   *validator.Validate
	maxUpload   int64
	sweepEvery  time.Duration
}

// Config holds server configuration
type Config struct {
	Port           int
	Sessions       *session.Manager
	Retriever      Retriever
	RateLimitRPS   float64
	RateLimitBurst int
	MaxUploadBytes int64
	SweepInterval  time.Duration
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}

	s := &Server{
		sessions:    cfg.Sessions,
		retriever:   cfg.Retriever,
		rateLimiter: ratelimit.NewLimiter(ratelimit.NewConfig(cfg.RateLimitRPS, cfg.RateLimitBurst)),
		validator:   validator.New(),
		maxUpload:   cfg.MaxUploadBytes,
		sweepEvery:  cfg.SweepInterval,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	if s.sweepEvery <= 0 {
		s.sweepEvery = time.Minute
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Session lifecycle
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)

	// Session operations
	mux.HandleFunc("POST /sessions/{id}/resume", s.handleUploadResume)
	mux.HandleFunc("GET /sessions/{id}/profile", s.handleGetProfile)
	mux.HandleFunc("POST /sessions/{id}/ask", s.handleAsk)
	mux.HandleFunc("POST /sessions/{id}/roadmap", s.handleRoadmap)
	mux.HandleFunc("POST /sessions/{id}/roadmap/stream", s.handleRoadmapStream)
	mux.HandleFunc("GET /sessions/{id}/roadmap", s.handleExportRoadmap)
	mux.HandleFunc("GET /sessions/{id}/messages", s.handleListMessages)
	mux.HandleFunc("DELETE /sessions/{id}/messages", s.handleClearMessages)

	// Knowledge base
	mux.HandleFunc("POST /retrieve", s.handleRetrieve)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // roadmap generation is slow
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until SIGINT, SIGTERM or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.sessions.Run(ctx, s.sweepEvery)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[SERVER] Starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.rateLimiter.Stop()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	log.Println("[SERVER] Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.rateLimiter.Stop()
	log.Println("[SERVER] Stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[SERVER] %s %s %d in %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[SERVER] Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, ErrorResponse{Error: message})
}

// extractClientID extracts the client identifier from the request.
// X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds() + 0.999)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Printf("[SERVER] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
