package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"wayfinder/application/commands/bus"
	querybus "wayfinder/application/queries/bus"
	"wayfinder/interfaces/http/rest/handlers"
	"wayfinder/interfaces/http/rest/middleware"
	pkgerrors "wayfinder/pkg/errors"
	"wayfinder/pkg/observability"
)

// Options tunes the HTTP surface
type Options struct {
	AllowedOrigins []string
	Debug          bool
	// RateLimitPerMinute caps requests per client IP. Zero disables it.
	RateLimitPerMinute int
	// Ready reports whether dependencies are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	metrics    *observability.Collector
	tracer     *observability.Tracer
	opts       Options
	logger     *zap.Logger
}

// NewRouter creates a new router instance. metrics and tracer may be nil.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	opts Options,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		metrics:    metrics,
		tracer:     tracer,
		opts:       opts,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errs := pkgerrors.NewErrorHandler(rt.logger, rt.opts.Debug)

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errs.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}
	if rt.opts.RateLimitPerMinute > 0 {
		limiter := middleware.NewIPRateLimiter(rt.opts.RateLimitPerMinute)
		router.Use(middleware.RateLimit(limiter, func(w http.ResponseWriter, r *http.Request) {
			errs.HandleStatus(w, r, http.StatusTooManyRequests, "rate limit exceeded")
		}))
	}
	if rt.tracer != nil && rt.tracer.Enabled() {
		router.Use(rt.tracer.Middleware)
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errs.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errs.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	mapHandler := handlers.NewMapHandler(rt.commandBus, rt.queryBus, errs, rt.logger)
	nodeHandler := handlers.NewNodeHandler(rt.commandBus, rt.queryBus, errs, rt.logger)
	edgeHandler := handlers.NewEdgeHandler(rt.commandBus, rt.queryBus, errs, rt.logger)
	aliasHandler := handlers.NewAliasHandler(rt.commandBus, rt.queryBus, errs, rt.logger)
	routeHandler := handlers.NewRouteHandler(rt.queryBus, errs, rt.logger)

	router.Route("/maps", func(r chi.Router) {
		r.Get("/", mapHandler.ListMaps)
		r.Post("/", mapHandler.CreateMap)
		r.Get("/{mapID}", mapHandler.GetMap)
	})

	router.Route("/nodes", func(r chi.Router) {
		r.Get("/", nodeHandler.ListNodes)
		r.Post("/", nodeHandler.CreateNode)
		r.Get("/{nodeID}", nodeHandler.GetNode)
		r.Delete("/{nodeID}", nodeHandler.DeleteNode)
	})

	router.Route("/edges", func(r chi.Router) {
		r.Get("/", edgeHandler.ListEdges)
		r.Post("/", edgeHandler.CreateEdge)
		r.Patch("/{edgeID}", edgeHandler.UpdateEdge)
		r.Delete("/{edgeID}", edgeHandler.DeleteEdge)
	})

	router.Route("/aliases", func(r chi.Router) {
		r.Get("/", aliasHandler.ListAliases)
		r.Post("/", aliasHandler.CreateAlias)
		r.Get("/search", aliasHandler.Search)
		r.Delete("/{aliasID}", aliasHandler.DeleteAlias)
	})

	router.Post("/route", routeHandler.Route)
	router.Post("/admin/clear-map", mapHandler.ClearMap)

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	writeStatus(w, http.StatusOK, "healthy")
}

func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
		defer cancel()
		if err := rt.opts.Ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
	}
	writeStatus(w, http.StatusOK, "ready")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
}
