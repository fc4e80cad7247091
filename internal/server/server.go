package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront/internal/config"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Session is what the routes need from the signed-in state; auth.Session
// satisfies it
type Session interface {
	transport.SessionService
	custommiddleware.SessionReader
}

// Deps are the engine components served over the local API
type Deps struct {
	Session  Session
	Nav      transport.Navigator
	Cart     transport.CartService
	Searcher transport.Searcher
	Browser  transport.ProductBrowser
	Scanner  transport.CodeScanner

	// Closers are closed in order on shutdown
	Closers []io.Closer

	// Redis backs the rate limiter; nil disables it
	Redis *redis.Client
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, logger, deps),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}
}

// NewRouter builds the API routes. Everything except /health and
// /api/session requires a signed-in session.
func NewRouter(cfg *config.Config, logger *zap.Logger, deps Deps) http.Handler {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":        "ok",
			"authenticated": deps.Session.Snapshot().Authenticated(),
		})
	})

	gate := custommiddleware.RequireSession(deps.Session, logger)

	var limiter transport.CatalogLimiter
	if cfg.RateLimit.Enabled && deps.Redis != nil {
		limiter = custommiddleware.NewCatalogLimiter(deps.Redis, custommiddleware.RateLimitConfig{
			Limits: map[custommiddleware.CatalogOperation]int{
				custommiddleware.CatalogSearch: cfg.RateLimit.Searches,
				custommiddleware.CatalogLookup: cfg.RateLimit.Lookups,
			},
			Window:    cfg.RateLimit.Window,
			KeyPrefix: "storefront:ratelimit",
		}, logger)
	}

	transport.NewSessionHandler(deps.Session, deps.Nav, logger).RegisterRoutes(router)
	transport.NewCatalogHandler(deps.Searcher, deps.Browser, deps.Scanner, deps.Nav, cfg.Catalog.PageSize, logger).
		RegisterRoutes(router, gate, limiter)
	transport.NewCartHandler(deps.Cart, logger).RegisterRoutes(router, gate)
	transport.NewNavigationHandler(deps.Nav, deps.Cart, logger).RegisterRoutes(router, gate)

	return router
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	for _, c := range s.deps.Closers {
		if err := c.Close(); err != nil {
			s.logger.Error("Failed to close resource", zap.Error(err))
		}
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
