package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"barbapro/internal/archive"
	"barbapro/internal/broadcast"
	"barbapro/internal/cache"
	"barbapro/internal/ledger"
	"barbapro/internal/log"
)

// Server exposes the ledger over a JSON API plus a server-sent event
// stream that pushes full snapshots after every mutation.
type Server struct {
	httpServer   *http.Server
	ledger       *ledger.Service
	hub          *broadcast.Hub
	archive      *archive.Archive
	logger       *log.Logger
	structured   *log.StructuredLogger
	limiter      *rateLimiter
	metrics      *securityMetrics
	now          func() time.Time
	shutdownOnce sync.Once

	dashCache   *cache.LRU[dashboardPayload]
	unsubscribe func()
}

// Options carries the server dependencies. Archive is optional; when
// nil the snapshot endpoints respond 404.
type Options struct {
	Addr    string
	Ledger  *ledger.Service
	Hub     *broadcast.Hub
	Archive *archive.Archive
	Logger  *log.Logger
	Now     func() time.Time
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		ledger:     opts.Ledger,
		hub:        opts.Hub,
		archive:    opts.Archive,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		limiter:    newRateLimiter(),
		metrics:    &securityMetrics{},
		now:        now,
		dashCache:  cache.NewLRU[dashboardPayload](8, 30*time.Second),
	}

	// Dashboard aggregates are cached until the next mutation; any hub
	// event means the snapshot changed.
	if s.hub != nil {
		events, cancel := s.hub.Subscribe()
		s.unsubscribe = cancel
		go func() {
			for range events {
				s.dashCache.Purge()
			}
		}()
	}

	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleHealthJSON)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/data", s.handleData)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("POST /api/auth/pin", s.handlePIN)

	mux.HandleFunc("POST /api/barbers/{barber}/services", s.handleAddService)
	mux.HandleFunc("DELETE /api/barbers/{barber}/services/{id}", s.handleDeleteService)
	mux.HandleFunc("POST /api/expenses", s.handleAddExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("POST /api/clients", s.handleAddClient)
	mux.HandleFunc("POST /api/clients/{id}/toggle", s.handleToggleClient)
	mux.HandleFunc("DELETE /api/clients/{id}", s.handleDeleteClient)
	mux.HandleFunc("PUT /api/config", s.handleUpdateConfig)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/reports/payments", s.handlePaymentsReport)
	mux.HandleFunc("GET /api/reports/services", s.handleServicesReport)
	mux.HandleFunc("GET /api/reports/recurring", s.handleRecurringReport)
	mux.HandleFunc("GET /api/whatsapp/summary", s.handleWhatsAppSummary)
	mux.HandleFunc("GET /api/whatsapp/payments", s.handleWhatsAppPayments)
	mux.HandleFunc("GET /api/export/{kind}", s.handleExport)

	mux.HandleFunc("GET /api/snapshots", s.handleListSnapshots)
	mux.HandleFunc("POST /api/snapshots/{id}/restore", s.handleRestoreSnapshot)
	mux.HandleFunc("POST /api/snapshots/latest/restore", s.handleRestoreLatestSnapshot)

	return s.withSecurity(mux)
}

// responseWriter captures the status code for the access log.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := generateRequestID()
		clientIP := extractClientIP(r)
		ctx := context.WithValue(r.Context(), log.RequestIDContextKey, requestID)
		r = r.WithContext(ctx)

		setSecurityHeaders(w)
		w.Header().Set("X-Request-ID", requestID)

		if looksSuspicious(r) {
			s.metrics.recordRejected()
			s.logger.Warn("rejected suspicious request",
				log.NewFields().
					WithComponent(log.ComponentSecurity).
					WithRequestID(requestID).
					WithClientIP(clientIP).
					WithHTTPRequest(r.Method, r.URL.Path).
					ToSlice()...)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if isMutation(r.Method) && !s.limiter.allow(clientIP, s.metrics) {
			s.logger.Warn("rate limit exceeded",
				log.NewFields().
					WithComponent(log.ComponentRateLimit).
					WithRequestID(requestID).
					WithClientIP(clientIP).
					WithHTTPRequest(r.Method, r.URL.Path).
					ToSlice()...)
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		start := s.now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		s.structured.LogHTTPStart(ctx, r, clientIP)
		next.ServeHTTP(rw, r)
		s.structured.LogHTTPEnd(ctx, r, rw.status, time.Since(start).Milliseconds(), clientIP)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleHealthJSON(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.ledger == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) Start() error {
	s.logger.Info("http server listening",
		log.NewFields().WithOperation(log.OpStartup).ToSlice()...)
	s.logger.Info("listen address", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.close()
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.logger.Info("http server shutting down",
			log.NewFields().WithOperation(log.OpShutdown).ToSlice()...)
		s.logger.Info("security counters",
			"rate_limited", s.metrics.rateLimited.Load(),
			"rejected", s.metrics.rejected.Load())
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}

// Handler exposes the full middleware-wrapped handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
