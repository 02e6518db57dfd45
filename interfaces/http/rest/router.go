package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	commandbus "decisionmap/application/commands/bus"
	querybus "decisionmap/application/queries/bus"
	"decisionmap/domain/catalog"
	"decisionmap/interfaces/http/rest/handlers"
	"decisionmap/interfaces/http/rest/middleware"
	pkgerrors "decisionmap/pkg/errors"
	"decisionmap/pkg/share"
)

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// Options configures the router. Nil optional collaborators disable
// their feature.
type Options struct {
	Builder        handlers.MapBuilder
	Catalog        *catalog.Catalog
	CommandBus     *commandbus.CommandBus
	QueryBus       *querybus.QueryBus
	HistoryEnabled bool
	ShareCodec     *share.Codec
	Errors         *pkgerrors.ErrorHandler
	Logger         *zap.Logger

	// Optional
	Metrics         middleware.HTTPRecorder
	MetricsHandler  http.Handler
	Limiter         middleware.Limiter
	RateLimitPerMin int
	EnableCORS      bool
	Ready           ReadinessCheck
	// BuildTimeout bounds one build request; zero leaves it unbounded
	BuildTimeout time.Duration
}

// Router creates and configures the HTTP router
type Router struct {
	opts Options
}

// NewRouter creates a new router instance
func NewRouter(opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Errors == nil {
		opts.Errors = pkgerrors.NewErrorHandler(opts.Logger, false)
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.MustDefault()
	}
	if opts.ShareCodec == nil {
		opts.ShareCodec = share.NewCodec("")
	}
	return &Router{opts: opts}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	o := rt.opts
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestContext)
	router.Use(o.Errors.Middleware)
	router.Use(middleware.Logger(o.Logger))
	if o.Metrics != nil {
		router.Use(middleware.Metrics(o.Metrics))
	}
	router.Use(versionMiddleware)

	if o.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if o.MetricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", o.MetricsHandler)
	}

	mapHandler := handlers.NewMapHandler(o.Builder, o.Catalog, o.Errors, o.Logger)
	historyHandler := handlers.NewHistoryHandler(o.CommandBus, o.QueryBus, o.HistoryEnabled, o.Errors, o.Logger)
	shareHandler := handlers.NewShareHandler(o.ShareCodec, o.Errors, o.Logger)

	router.Route("/api/v2", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if o.Limiter != nil {
				r.Use(middleware.RateLimit(o.Limiter, o.RateLimitPerMin, o.Errors))
			}
			if o.BuildTimeout > 0 {
				r.Use(chimiddleware.Timeout(o.BuildTimeout))
			}
			r.Post("/build-map", mapHandler.BuildMap)
		})
		r.Get("/domains", mapHandler.Domains)
		r.Get("/example", mapHandler.Example)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", historyHandler.ListRecords)
			r.Get("/report", historyHandler.HiddenRuleReport)
			r.Get("/{recordID}", historyHandler.GetRecord)
			r.Delete("/{recordID}", historyHandler.DeleteRecord)
			r.Put("/{recordID}/notes", historyHandler.AnnotateRecord)
		})

		r.Route("/share", func(r chi.Router) {
			r.Post("/", shareHandler.CreateToken)
			r.Get("/{token}", shareHandler.OpenToken)
		})
	})

	// The original single-page client posts to /api/build-map
	router.Post("/api/build-map", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api/v2/build-map", http.StatusPermanentRedirect)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.opts.Ready != nil {
		if err := rt.opts.Ready(req.Context()); err != nil {
			rt.opts.Logger.Warn("Readiness check failed", zap.Error(err))
			rt.opts.Errors.HandleStatus(w, req, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// versionMiddleware adds API version headers to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v2")
		next.ServeHTTP(w, r)
	})
}
