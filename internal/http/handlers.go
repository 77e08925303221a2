package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.FetchTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	sources := make([]string, 0, len(s.sources.Checkers))
	for i, c := range s.sources.Checkers {
		if err := c.Check(ctx); err != nil {
			sources = append(sources, fmt.Sprintf("source %d failed: %v", i, err))
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		sources = append(sources, "ok")
	}
	checks["sources"] = sources

	checks["cache"] = map[string]any{
		"cloud_sessions": s.clouds.Size(),
		"status":         "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()

	w.WriteHeader(http.StatusOK)

	// Write metrics in Prometheus-like format
	counter(w, "http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter(w, "http_client_errors_total", "Responses with a 4xx status", traceMetrics.ClientErrors)
	counter(w, "http_server_errors_total", "Responses with a 5xx status", traceMetrics.ServerErrors)
	gauge(w, "http_response_time_avg_us", "Average response time in microseconds", float64(traceMetrics.AverageResponseTime))

	counter(w, "histograms_built_total", "Histograms drawn", s.metrics.chartsBuilt.Load())
	counter(w, "histograms_skipped_total", "Pages with too few months to draw", s.metrics.chartsSkipped.Load())
	counter(w, "tag_clouds_rendered_total", "Tag clouds rendered", s.metrics.cloudsRendered.Load())
	counter(w, "tag_clouds_hidden_total", "Tag clouds hidden for lack of tags or a failed fetch", s.metrics.cloudsHidden.Load())
	counter(w, "searches_total", "Expenditure searches", s.metrics.searches.Load())

	gauge(w, "tag_cloud_sessions", "Cached per-year tag cloud states", float64(s.clouds.Size()))
	counter(w, "rate_limit_hits_total", "Total rate limit hits", rateLimitMetrics.TotalHits)
	gauge(w, "active_rate_limit_clients", "Currently tracked rate limit clients", float64(rateLimitMetrics.ClientCount))
	counter(w, "suspicious_requests_total", "Total suspicious requests detected", s.detector.Suspicious())

	gauge(w, "uptime_seconds", "Application uptime in seconds", time.Since(s.metrics.uptime).Seconds())
}

func counter(w http.ResponseWriter, name, help string, v int64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
}

func gauge(w http.ResponseWriter, name, help string, v float64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %.0f\n\n", name, help, name, name, v)
}

// handleIndex sends the visitor to the summary of the current year.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	target := fmt.Sprintf("/tracker/expenditures/summary/%d/", time.Now().Year())
	http.Redirect(w, r, target, http.StatusFound)
}
