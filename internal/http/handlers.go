package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"finchat/internal/core"
	"finchat/internal/ledger"
	"finchat/internal/log"
)

type appMetrics struct {
	uptime         time.Time
	chatMessages   int64
	transactions   int64
	edits          int64
	deletes        int64
	adviceRequests int64
	templateErrors int64
	ledgerFailures int64
}

func newAppMetrics() *appMetrics {
	return &appMetrics{uptime: time.Now()}
}

// page carries what the shared head template needs.
type page struct {
	Title string
	Page  string
}

// render executes a template into a buffer first so a failing template
// never leaves a half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldOperation, log.OpRender)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		atomic.AddInt64(&s.appMetrics.templateErrors, 1)
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldOperation, log.OpRender)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderFragment is render for HTMX partials built by a response builder.
func (s *Server) renderFragment(r *http.Request, name string, data any) (string, error) {
	if s.templates == nil {
		return "", fmt.Errorf("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		atomic.AddInt64(&s.appMetrics.templateErrors, 1)
		s.logger.ErrorContext(r.Context(), "Fragment execution failed", log.FieldError, err, "template", name)
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady reports whether templates are loaded and the ledger answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)
	fail := func(name, reason string) {
		checks[name] = reason
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		fail("templates", "failed: templates not loaded")
	} else {
		checks["templates"] = "ok"
	}

	if s.deps.Ledger == nil {
		fail("ledger", "not_configured")
	} else if err := pingLedger(ctx, s.deps.Ledger); err != nil {
		fail("ledger", fmt.Sprintf("failed: %v", err))
	} else {
		checks["ledger"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func pingLedger(ctx context.Context, store ledger.Store) error {
	if p, ok := store.(ledger.Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := store.Summary(ctx)
	return err
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	trace := s.traceMiddleware.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	sec := s.securityDetector.GetMetrics()
	m := s.appMetrics

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}

	w.WriteHeader(http.StatusOK)
	metric("http_requests_total", "counter", "Total number of HTTP requests", trace.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", trace.ServerErrors)
	metric("http_response_time_avg_microseconds", "gauge", "Average response time", trace.AverageResponseTime)
	metric("chat_messages_total", "counter", "Chat messages handled", atomic.LoadInt64(&m.chatMessages))
	metric("transactions_created_total", "counter", "Transactions added from the web", atomic.LoadInt64(&m.transactions))
	metric("transactions_updated_total", "counter", "Transaction edits submitted", atomic.LoadInt64(&m.edits))
	metric("transactions_deleted_total", "counter", "Transaction deletions submitted", atomic.LoadInt64(&m.deletes))
	metric("advice_requests_total", "counter", "Advice generations requested", atomic.LoadInt64(&m.adviceRequests))
	metric("ledger_failures_total", "counter", "Ledger operations that failed", atomic.LoadInt64(&m.ledgerFailures))
	metric("template_errors_total", "counter", "Template rendering failures", atomic.LoadInt64(&m.templateErrors))
	metric("rate_limit_rejections_total", "counter", "Requests rejected by the rate limiter", rl.Rejected)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rl.ClientCount)
	metric("suspicious_requests_total", "counter", "Suspicious requests detected", sec.SuspiciousRequests)
	metric("blocked_requests_total", "counter", "Requests rejected by the detector", sec.BlockedRequests)

	if s.deps.Caches != nil {
		stats := s.deps.Caches.Stats()
		fmt.Fprintf(w, "# HELP cache_hits_total Cache hits\n# TYPE cache_hits_total counter\n")
		for _, name := range s.deps.Caches.Names() {
			fmt.Fprintf(w, "cache_hits_total{cache=%q} %d\n", name, stats[name].Hits)
		}
		fmt.Fprintf(w, "\n# HELP cache_misses_total Cache misses\n# TYPE cache_misses_total counter\n")
		for _, name := range s.deps.Caches.Names() {
			fmt.Fprintf(w, "cache_misses_total{cache=%q} %d\n", name, stats[name].Misses)
		}
		fmt.Fprintf(w, "\n# HELP cache_entries Current cache entries\n# TYPE cache_entries gauge\n")
		for _, name := range s.deps.Caches.Names() {
			fmt.Fprintf(w, "cache_entries{cache=%q} %d\n", name, stats[name].Size)
		}
		fmt.Fprintln(w)
	}

	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(m.uptime).Seconds()))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		page
		Currency string
		Kinds    []core.Kind
	}{
		page:     page{Title: "Chat", Page: "chat"},
		Currency: s.currency,
		Kinds:    []core.Kind{core.Income, core.Expense},
	}
	s.render(w, r, http.StatusOK, "index.html", data)
}
