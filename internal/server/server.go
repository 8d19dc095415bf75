package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/marketing-agent/internal/db"
	"github.com/jonathan/marketing-agent/internal/feedback"
	"github.com/jonathan/marketing-agent/internal/optimizer"
	"github.com/jonathan/marketing-agent/internal/schemas"
	"github.com/jonathan/marketing-agent/internal/server/middleware"
	"github.com/jonathan/marketing-agent/internal/server/ratelimit"
	"github.com/jonathan/marketing-agent/internal/types"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

// Service names reported by the health endpoints.
const (
	ContentServiceName = "marketing-content-agent"
	LoopServiceName    = "marketing-feedback-loop"
)

// Generator runs the content workflow. *agent.Agent implements it.
type Generator interface {
	Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResult, error)
	Evaluate(ctx context.Context, req types.EvaluateRequest) (types.Evaluation, error)
	Model() string
}

// LoopRunner runs the feedback loop. *feedback.Loop implements it.
type LoopRunner interface {
	Run(ctx context.Context, req types.LoopRequest) (*types.LoopResult, error)
}

// TaskStore persists generation history. *db.DB implements it.
type TaskStore interface {
	SaveTask(ctx context.Context, topic string, result *types.GenerationResult) error
	GetTask(ctx context.Context, id uuid.UUID) (*db.Task, error)
	ListTasks(ctx context.Context, limit, offset int) ([]db.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) (bool, error)
}

var (
	_ LoopRunner = (*feedback.Loop)(nil)
	_ TaskStore  = (*db.DB)(nil)
)

// Config holds server configuration and dependencies. Agent, Loop and
// Tasks may be nil; the affected endpoints then report unavailability.
type Config struct {
	Addr       string
	Provider   string
	Agent      Generator
	Loop       LoopRunner
	Thresholds *optimizer.ThresholdStore
	Tasks      TaskStore
	Logger     *slog.Logger
	RateLimit  *ratelimit.Config
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	service     string
	provider    string
	agent       Generator
	loop        LoopRunner
	thresholds  *optimizer.ThresholdStore
	tasks       TaskStore
	logger      *slog.Logger
	rateLimiter *ratelimit.Limiter
}

func newServer(cfg Config, service string) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	thresholds := cfg.Thresholds
	if thresholds == nil {
		thresholds, _ = optimizer.NewThresholdStore(types.DefaultThresholds())
	}
	rl := cfg.RateLimit
	if rl == nil {
		rl = ratelimit.LoadConfig()
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "gemini"
	}

	return &Server{
		service:     service,
		provider:    provider,
		agent:       cfg.Agent,
		loop:        cfg.Loop,
		thresholds:  thresholds,
		tasks:       cfg.Tasks,
		logger:      logger.With("service", service),
		rateLimiter: ratelimit.NewLimiter(rl),
	}
}

// New creates the content service.
func New(cfg Config) *Server {
	s := newServer(cfg, ContentServiceName)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("GET /stream/{task_id}", s.handleStream)
	mux.HandleFunc("GET /generate/stream/{task_id}", s.handleStream)
	mux.HandleFunc("POST /evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /config", s.handleGetConfig)
	mux.HandleFunc("POST /config", s.handleUpdateConfig)
	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)
	mux.HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("/", s.handleNotFound)

	s.httpServer = s.newHTTPServer(cfg.Addr, mux)
	return s
}

// NewLoop creates the feedback-loop service.
func NewLoop(cfg Config) *Server {
	s := newServer(cfg, LoopServiceName)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleLoopHealth)
	mux.HandleFunc("POST /generate/loop", s.handleLoop)
	mux.HandleFunc("/", s.handleNotFound)

	s.httpServer = s.newHTTPServer(cfg.Addr, mux)
	return s
}

func (s *Server) newHTTPServer(addr string, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.withRateLimit(middleware.RequestID(s.withLogging(s.withRecover(s.withCORS(mux))))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // model calls can be slow
		IdleTimeout:  60 * time.Second,
	}
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRecover turns handler panics into a JSON 500.
func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler",
					"path", r.URL.Path,
					"panic", rec,
					"request_id", middleware.GetRequestID(r),
					"stack", string(debug.Stack()))
				s.jsonResponse(w, http.StatusInternalServerError, errorBody{
					Status:  "error",
					Error:   "internal_error",
					Message: "An unexpected error occurred",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the logging middleware.
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
		s.logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", middleware.GetRequestID(r))
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

// errorBody is the JSON error envelope.
type errorBody struct {
	Status        string   `json:"status"`
	Error         string   `json:"error"`
	Message       string   `json:"message"`
	MissingFields []string `json:"missingFields,omitempty"`
}

// jsonResponse writes a JSON response. The body is encoded before the
// status is sent so an unencodable value becomes a 500, not an empty 200.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("error encoding JSON response", "error", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorBody{
			Status:  "error",
			Error:   "internal_error",
			Message: "failed to encode response",
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Warn("error writing JSON response", "error", err)
	}
}

// errorResponse writes the error envelope with the status derived from err.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	body := errorBody{
		Status:  "error",
		Error:   errorCode(err),
		Message: err.Error(),
	}

	var (
		missing   *types.ErrMissingFields
		schemaErr *schemas.ValidationError
	)
	switch {
	case errors.As(err, &missing):
		body.Message = "Missing required fields"
		body.MissingFields = missing.Fields
	case errors.As(err, &schemaErr):
		body.Message = schemaErr.Summary()
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.jsonResponse(w, status, body)
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr.
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
		"status":    "error",
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"resetAt":   info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retryAfter"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Warn("rate limit exceeded", "limit", info.Limit, "reset", info.ResetTime.Format(time.RFC3339))
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
