package http

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"purse/internal/cache"
	"purse/internal/chart"
	"purse/internal/cloud"
	"purse/internal/config"
	"purse/internal/ledger"
	"purse/internal/log"
	"purse/internal/middleware/ratelimit"
	"purse/internal/middleware/security"
	"purse/internal/middleware/trace"
	appweb "purse/web"
)

const (
	// maxCloudSessions bounds the page-view tag cloud states kept in memory.
	maxCloudSessions = 256
	cleanupInterval  = time.Minute
	staticMaxAge     = 3600
)

// Server serves the summary, search and visualisation pages.
type Server struct {
	http.Server

	cfg       *config.Config
	chartCfg  chart.Config
	cloudCfg  cloud.Config
	sources   ledger.Sources
	templates *template.Template

	logger *log.Logger

	clouds       *cache.LRUCache[*cloud.State]
	cacheManager *cache.Manager
	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware

	// newRand seeds the layout randomness of every new cloud state.
	newRand func() cloud.Rand

	metrics      appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime         time.Time
	chartsBuilt    atomic.Int64
	chartsSkipped  atomic.Int64
	cloudsRendered atomic.Int64
	cloudsHidden   atomic.Int64
	searches       atomic.Int64
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, cfg *config.Config, sources ledger.Sources, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		cfg:          cfg,
		chartCfg:     cfg.Chart(),
		cloudCfg:     cfg.Cloud(),
		sources:      sources,
		templates:    t,
		logger:       logger,
		clouds:       cache.NewLRUCache[*cloud.State](maxCloudSessions, cfg.SessionTTL),
		cacheManager: cache.NewManager(logger),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}, logger),
		detector:     security.NewDetector(logger),
		newRand: func() cloud.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	s.metrics.uptime = time.Now()
	s.tracer = trace.NewMiddleware(s.detector.ClientIP, logger)

	s.cacheManager.Register(s.clouds)
	s.cacheManager.StartCleanup(cleanupInterval)

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /tracker/expenditures/summary/{year}/", s.handleSummary)
	mux.HandleFunc("GET /tracker/expenditures/search/", s.handleSearch)
	mux.HandleFunc("GET /tracker/tags/", s.handleTags)

	// UI partials
	mux.HandleFunc("GET /ui/tag-cloud", s.handleTagCloud)
	mux.Handle("POST /graph", s.rateLimiter.Middleware(s.detector.ClientIP)(http.HandlerFunc(s.handleGraph)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = log.ComponentMiddleware(log.ComponentHTTP)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	// Ensure shutdown logic runs only once
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// cloudState returns the tag cloud state of one page view of year, creating
// it on first use. A request without a view gets a state of its own. States
// of abandoned page views expire with the session TTL.
func (s *Server) cloudState(year int, view string) *cloud.State {
	create := func() *cloud.State {
		s.logger.Debug("Tag cloud session created", log.FieldYear, year, "view", view)
		return cloud.NewState(s.cloudCfg, s.sources.Tags, year, s.newRand(), s.logger)
	}
	if view == "" {
		return create()
	}
	return s.clouds.GetOrCreate(strconv.Itoa(year)+"/"+view, create)
}

// newViewToken identifies one rendering of a summary page.
func newViewToken() string {
	b := make([]byte, 12)
	if _, err := crand.Read(b); err != nil {
		return fmt.Sprintf("v%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// render executes a named template into w, logging failures.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		fields := log.NewFields()
		fields["template"] = name
		events(r).LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender, fields)
	}
}

// events returns the structured logger of the request, tagged with its id.
func events(r *http.Request) *log.StructuredLogger {
	return log.NewStructuredLogger(log.FromContext(r.Context()))
}

// modeName maps an ordering to the name of its sort control.
func modeName(o string) string {
	return strings.TrimPrefix(o, "-")
}
