package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	texttemplate "text/template"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"depenses/internal/core"
	"depenses/internal/log"
	"depenses/internal/metrics"
	"depenses/internal/middleware/ratelimit"
	"depenses/internal/middleware/security"
	"depenses/internal/middleware/trace"
	"depenses/internal/services"
	"depenses/internal/storage"
	appweb "depenses/web"
)

// PrecacheURLs are the shell resources the service worker stores on install.
var PrecacheURLs = []string{
	"./",
	"./index.html",
	"./static/style.css",
	"./static/app.js",
	"./manifest.json",
	"./static/icon.png",
}

// bypassPrefixes are paths the service worker never caches.
var bypassPrefixes = []string{"/ui/", "/api/", "/healthz", "/readyz", "/metrics"}

// Ledger is what the handlers need from the ledger service.
type Ledger interface {
	AddExpense(ctx context.Context, id core.AccountID, commune, personnelle decimal.Decimal) (services.MutationResult, error)
	Reset(ctx context.Context, confirmed bool) (services.MutationResult, error)
	View() services.View
}

// Options configures NewServer.
type Options struct {
	Logger             *log.Logger
	Pinger             storage.Pinger
	CacheVersion       string
	RateLimitPerMinute int
	MetricsEnabled     bool
}

type Server struct {
	http.Server
	ledger       Ledger
	pinger       storage.Pinger
	templates    *template.Template
	swTemplate   *texttemplate.Template
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	logger       *log.Logger
	cacheVersion string
	startedAt    time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, ledger Ledger, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.FromContext(context.Background())
	}
	if opts.CacheVersion == "" {
		opts.CacheVersion = "depenses-cache-v2"
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	sw, err := texttemplate.New("service-worker.js").
		Funcs(texttemplate.FuncMap{"json": toJSON}).
		ParseFS(appweb.TemplatesFS, "templates/service-worker.js")
	if err != nil {
		return nil, fmt.Errorf("parse service worker template: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	s := &Server{
		ledger:       ledger,
		pinger:       opts.Pinger,
		templates:    t,
		swTemplate:   sw,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:     security.NewDetector(),
		logger:       opts.Logger.WithComponent(log.ComponentHTTP),
		cacheVersion: opts.CacheVersion,
		startedAt:    time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(log.Middleware(opts.Logger))
	r.Use(s.tracer.Middleware)
	r.Use(log.RequestIDMiddleware(trace.FromRequest))
	if opts.MetricsEnabled {
		r.Use(metrics.HTTPMetrics)
	}
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited))

	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.Get("/ui/totals", s.handleTotals)
	r.Post("/depenses/{account}", s.handleAddExpense)
	r.Get("/reset", s.handleResetConfirm)
	r.Post("/reset", s.handleReset)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ledger", s.handleAPILedger)
		r.Post("/expenses", s.handleAPIAddExpense)
		r.Post("/reset", s.handleAPIReset)
	})

	r.With(security.CacheControl("no-cache")).Get("/service-worker.js", s.handleServiceWorker)
	r.Get("/manifest.json", serveStaticFile(static, "manifest.json", "application/manifest+json"))
	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if opts.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSONError(w, http.StatusTooManyRequests, "Trop de requêtes")
		return
	}
	ErrorResponse(http.StatusTooManyRequests, "Trop de requêtes, réessayez dans un instant").
		TriggerErrorNotification("Trop de requêtes").
		Write(w)
}

func serveStaticFile(fsys fs.FS, name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}
