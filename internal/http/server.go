// Package http serves the finchat web UI: the chat box, manual entry,
// records table and insights pages, plus health and metrics endpoints.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"finchat/internal/advice"
	"finchat/internal/cache"
	"finchat/internal/chat"
	"finchat/internal/core"
	"finchat/internal/ledger"
	"finchat/internal/log"
	"finchat/internal/middleware/ratelimit"
	"finchat/internal/middleware/security"
	"finchat/internal/middleware/trace"
	appweb "finchat/web"
)

// ChatRouter answers one chat message.
type ChatRouter interface {
	Handle(ctx context.Context, message string) chat.Reply
}

// InsightsAdvisor produces the advice shown on the insights page.
type InsightsAdvisor interface {
	All(ctx context.Context) ([]advice.Advice, error)
}

// Deps are the collaborators the handlers need. Caches is optional and only
// feeds /metrics.
type Deps struct {
	Ledger  ledger.Store
	Router  ChatRouter
	Advisor InsightsAdvisor
	Caches  *cache.Manager
}

type Options struct {
	Currency           string
	RateLimitPerMinute int
	// Templates overrides the embedded templates; used by tests.
	Templates fs.FS
}

type Server struct {
	http.Server
	templates *template.Template
	deps      Deps
	currency  string
	logger    *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware. Template parse failures are logged;
// pages then answer 500 and /readyz reports not ready.
func NewServer(addr string, deps Deps, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector(logger)
	s := &Server{
		deps:             deps,
		currency:         opts.Currency,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       newAppMetrics(),
	}

	templatesFS := opts.Templates
	if templatesFS == nil {
		templatesFS = appweb.TemplatesFS
	}
	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /records", s.handleRecords)
	mux.HandleFunc("/transactions/update", s.handleUpdateTransaction)
	mux.HandleFunc("/transactions/delete", s.handleDeleteTransaction)
	mux.HandleFunc("GET /insights", s.handleInsights)
	mux.HandleFunc("/insights/advice", s.handleAdvice)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limitPosts := s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimited)

	var handler http.Handler = mux
	handler = onlyMutations(limitPosts, handler)
	handler = headers.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// onlyMutations applies mw to POST and DELETE requests.
func onlyMutations(mw func(http.Handler) http.Handler, next http.Handler) http.Handler {
	limited := mw(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please wait a moment and try again.").
		Header("Retry-After", "60").
		Write(w)
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(v float64) string { return core.FormatAmount(s.currency, v) },
		"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	}
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
