// Package http is the JSON REST boundary. It translates requests into
// ledger operations, carries the caller's user id explicitly into every
// call, and maps domain errors onto HTTP statuses.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"moneyman/internal/cache"
	"moneyman/internal/core"
	applog "moneyman/internal/log"
	"moneyman/internal/services"
	"moneyman/internal/storage"
)

// LedgerService is the surface the HTTP boundary needs from the ledger.
type LedgerService interface {
	CreateTransaction(ctx context.Context, userID string, input services.TransactionInput) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, patch services.TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error)

	Accounts(ctx context.Context, userID string) ([]core.Account, error)
	CreateAccount(ctx context.Context, userID string, input services.AccountInput) (core.Account, error)
	DeleteAccount(ctx context.Context, userID, id string) error
	Transfer(ctx context.Context, userID, fromName, toName string, amount core.Money) (services.TransferResult, error)
	Categories(ctx context.Context, userID string) ([]core.Category, error)

	Dashboard(ctx context.Context, userID string, period core.Period) (services.Dashboard, error)
	CategorySummaries(ctx context.Context, userID string) ([]services.CategorySummaryRow, error)
	TotalBalance(ctx context.Context, userID string) (core.Money, error)
}

// Options tunes the boundary.
type Options struct {
	// RateLimitPerMinute caps mutating requests per client IP. Zero
	// means 60.
	RateLimitPerMinute int

	// CacheTTL bounds how stale a cached dashboard or summary may be.
	// Zero means 5 minutes.
	CacheTTL time.Duration
}

type Server struct {
	http.Server
	ledger      LedgerService
	logger      *applog.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// Read-side caches, keyed by user id so a mutation can drop every
	// entry of the user who made it.
	dashCache    *cache.LRUCache[services.Dashboard]
	summaryCache *cache.LRUCache[summaryResponse]
	caches       *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledger LedgerService, opts Options) *Server {
	limit := opts.RateLimitPerMinute
	if limit <= 0 {
		limit = 60
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:       ledger,
		logger:       applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP),
		rateLimiter:  newRateLimiter(limit),
		metrics:      &securityMetrics{},
		dashCache:    cache.NewLRUCache[services.Dashboard](200, ttl),
		summaryCache: cache.NewLRUCache[summaryResponse](100, ttl),
		caches:       cache.NewManager(),
	}

	s.caches.Register(s.dashCache)
	s.caches.Register(s.summaryCache)
	s.caches.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /transactions", s.protect(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions", s.protect(s.handleListTransactions))
	mux.HandleFunc("GET /transactions/{id}", s.protect(s.handleGetTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.protect(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.protect(s.handleDeleteTransaction))

	mux.HandleFunc("GET /accounts", s.protect(s.handleListAccounts))
	mux.HandleFunc("POST /accounts", s.protect(s.handleCreateAccount))
	mux.HandleFunc("DELETE /accounts/{id}", s.protect(s.handleDeleteAccount))
	mux.HandleFunc("POST /accounts/transfer", s.protect(s.handleTransfer))

	mux.HandleFunc("GET /categories", s.protect(s.handleListCategories))
	mux.HandleFunc("GET /dashboard", s.protect(s.handleDashboard))
	mux.HandleFunc("GET /summary", s.protect(s.handleSummary))

	return s
}

// userHandler is an authenticated handler; userID is never empty.
type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// protect wraps a handler with request logging, security headers, rate
// limiting on mutating methods, and caller identification. Identity is
// the X-User-ID header; there is no ambient session.
func (s *Server) protect(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.WarnContext(ctx, "Suspicious request blocked",
				applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			writeErrorMessage(w, http.StatusBadRequest, "invalid request")
			return
		}

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		userID := sanitizeInput(r.Header.Get("X-User-ID"))
		if userID == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r, userID)

		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldUserID, userID)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// invalidateUser drops every cached read of the user. Called after any
// mutation commits so dashboards and summaries are never served stale
// across the user's own writes.
func (s *Server) invalidateUser(userID string) {
	s.dashCache.DeletePrefix(userID + ":")
	s.summaryCache.Delete(userID)
}

// Shutdown gracefully shuts down the server and its background
// routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
