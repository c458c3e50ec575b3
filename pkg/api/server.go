package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"delivery_router/pkg/metrics"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
	CORSOrigin     string
	RateLimit      float64 // requests per second across all clients, 0 disables
	RateBurst      int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:           addr,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   30 * time.Second,
		RequestTimeout: 20 * time.Second,
		MaxConcurrent:  runtime.NumCPU() * 2,
		RateLimit:      50,
		RateBurst:      100,
	}
}

// middleware is the shared state of the request wrappers.
type middleware struct {
	cfg     ServerConfig
	sem     chan struct{}
	limiter *rate.Limiter // nil when rate limiting is off
	logger  *zap.Logger
}

// NewServer creates an HTTP server with all routes and middleware.
func NewServer(cfg ServerConfig, handlers *Handlers, logger *zap.Logger) *http.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mw := &middleware{
		cfg:    cfg,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
		logger: logger,
	}
	if cfg.RateLimit > 0 {
		mw.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/route", mw.wrap(handlers.HandleRoute))
	mux.HandleFunc("POST /api/v1/optimize", mw.wrap(handlers.HandleOptimize))
	mux.HandleFunc("POST /api/v1/plan", mw.wrap(handlers.HandlePlan))
	mux.HandleFunc("GET /api/v1/health", mw.wrap(handlers.HandleHealth))
	mux.HandleFunc("GET /api/v1/stats", mw.wrap(handlers.HandleStats))
	mux.Handle("GET /metrics", metrics.Handler())

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts the server and blocks until shutdown signal.
func ListenAndServe(srv *http.Server, logger *zap.Logger) error {
	// Graceful shutdown on SIGTERM/SIGINT.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// wrap adds request IDs, security headers, rate and concurrency limiting,
// recovery, a request deadline, access logging and metrics.
func (mw *middleware) wrap(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		rec.Header().Set("X-Request-ID", id)

		// Security headers.
		rec.Header().Set("X-Content-Type-Options", "nosniff")
		rec.Header().Set("X-Frame-Options", "DENY")
		rec.Header().Set("Cache-Control", "no-store")

		// CORS.
		if mw.cfg.CORSOrigin != "" {
			rec.Header().Set("Access-Control-Allow-Origin", mw.cfg.CORSOrigin)
		}

		defer func() {
			elapsed := time.Since(start)
			status := strconv.Itoa(rec.status)
			metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(elapsed.Seconds())
			mw.logger.Info("request",
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", elapsed))
		}()

		if mw.limiter != nil && !mw.limiter.Allow() {
			rec.Header().Set("Retry-After", "1")
			writeError(rec, http.StatusTooManyRequests, "rate_limited", "")
			return
		}

		// Concurrency limiter.
		select {
		case mw.sem <- struct{}{}:
			defer func() { <-mw.sem }()
		default:
			rec.Header().Set("Retry-After", "1")
			writeError(rec, http.StatusServiceUnavailable, "service_unavailable", "")
			return
		}

		// Recovery.
		defer func() {
			if p := recover(); p != nil {
				mw.logger.Error("panic",
					zap.String("request_id", id),
					zap.Any("panic", p),
					zap.Stack("stack"))
				writeError(rec, http.StatusInternalServerError, "internal_error", "")
			}
		}()

		ctx, cancel := context.WithTimeout(r.Context(), mw.cfg.RequestTimeout)
		defer cancel()
		ctx = context.WithValue(ctx, requestIDKey, id)

		handler(rec, r.WithContext(ctx))
	}
}

// statusRecorder captures the status code for logs and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status, s.wroteHeader = code, true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// timeOp logs the duration of a named operation under the request's ID.
// Call the returned func with a pointer to the operation's error, or nil.
func timeOp(ctx context.Context, logger *zap.Logger, name string) func(errp *error) {
	start := time.Now()
	reqID := requestID(ctx)

	return func(errp *error) {
		fields := []zap.Field{
			zap.String("request_id", reqID),
			zap.String("op", name),
			zap.Duration("duration", time.Since(start)),
		}
		if errp != nil && *errp != nil {
			logger.Warn("operation failed", append(fields, zap.Error(*errp))...)
			return
		}
		logger.Debug("operation done", fields...)
	}
}
