// Package api serves regional insights and observation queries over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/regioniq/insight-cli/internal/config"
	"github.com/regioniq/insight-cli/internal/insight"
	"github.com/regioniq/insight-cli/internal/region"
	"github.com/regioniq/insight-cli/internal/store"
)

// APIVersion is reported by /version and the schema.
const APIVersion = "v1"

// InsightBuilder assembles an insight response.
type InsightBuilder interface {
	Build(ctx context.Context, req insight.Request) (*insight.Response, error)
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Store    store.Store
	Insights InsightBuilder
	Regions  region.Resolver
	Server   config.ServerConfig
	Engine   config.EngineConfig
	Forecast config.ForecastConfig
	Build    string
}

// Server holds handler state.
type Server struct {
	store    store.Store
	insights InsightBuilder
	regions  region.Resolver
	cfg      config.ServerConfig
	engine   config.EngineConfig
	forecast config.ForecastConfig
	build    string
	limiters *clientLimiters
	now      func() time.Time
}

// NewServer returns a server over deps.
func NewServer(deps Deps) *Server {
	build := deps.Build
	if build == "" {
		build = "dev"
	}
	return &Server{
		store:    deps.Store,
		insights: deps.Insights,
		regions:  deps.Regions,
		cfg:      deps.Server,
		engine:   deps.Engine,
		forecast: deps.Forecast,
		build:    build,
		limiters: newClientLimiters(deps.Server.RateLimit, deps.Server.RateBurst),
		now:      time.Now,
	}
}

// Routes builds the chi router with the middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/schema", s.handleSchema)
		r.Get("/insights/{region}", s.handleInsight)
		r.Post("/observations/query", s.handleQuery)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return r
}
