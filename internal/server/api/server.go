// Package api exposes the identifier mapping services over HTTP.
//
// All responses are JSON except /metrics and the graphviz export. Errors are
// returned as {"error": ..., "kind": ...}; NotFound maps to 404,
// StorageUnavailable to 503 and every other failure to 400.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/idmap/registry"
	"github.com/ariutta/BridgeDb/internal/metrics"
	"github.com/ariutta/BridgeDb/internal/server/resolve"
	"github.com/ariutta/BridgeDb/internal/server/search"
	"github.com/ariutta/BridgeDb/internal/server/stats"
)

// SetCatalog is the part of the mapping set catalog the API serves
type SetCatalog interface {
	Get(ctx context.Context, id int64) (*core.MappingSetInfo, error)
	List(ctx context.Context, source, target string) ([]*core.MappingSetInfo, error)
	Delete(ctx context.Context, id int64) error
}

// Server holds the HTTP server dependencies
type Server struct {
	engine   resolve.Engine
	searcher search.Searcher
	stats    stats.Reporter
	catalog  SetCatalog
	reg      *registry.Registry
	log      zerolog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// Config wires the services behind the API
type Config struct {
	Engine   resolve.Engine
	Searcher search.Searcher
	Stats    stats.Reporter
	Catalog  SetCatalog
	Registry *registry.Registry
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // Served on /metrics when set
}

// New creates a new API server
func New(cfg Config) *Server {
	return &Server{
		engine:   cfg.Engine,
		searcher: cfg.Searcher,
		stats:    cfg.Stats,
		catalog:  cfg.Catalog,
		reg:      cfg.Registry,
		log:      cfg.Logger.With().Str("component", "api").Logger(),
		metrics:  cfg.Metrics,
		gatherer: cfg.Gatherer,
	}
}

// Routes builds the router with middleware and every endpoint
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.HealthCheck)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/map", s.MapDirect)
		r.Get("/map/indirect", s.MapIndirect)
		r.Get("/map/full", s.MapFull)
		r.Get("/map-uri", s.MapURI)
		r.Get("/uri-exists", s.URIExists)
		r.Get("/to-xref", s.ToXref)
		r.Get("/xref-exists", s.XrefExists)
		r.Get("/mapping/{id}", s.GetMapping)
		r.Get("/samples", s.SampleMappings)
		r.Get("/attributes", s.Attributes)
		r.Get("/attribute-names", s.AttributeNames)
		r.Get("/attribute-xrefs", s.XrefsByAttribute)
		r.Get("/capabilities", s.Capabilities)
		r.Get("/mapping-supported", s.MappingSupported)
		r.Get("/xrefs", s.XrefsByPosition)
		r.Get("/uris", s.URIsByPosition)

		r.Get("/search", s.FreeSearch)
		r.Get("/attribute-search", s.AttributeSearch)
		r.Get("/suggest", s.Suggest)

		r.Get("/mapping-sets", s.ListMappingSets)
		r.Get("/mapping-sets/{id}", s.GetMappingSet)
		r.Delete("/mapping-sets/{id}", s.DeleteMappingSet)
		r.Get("/mapping-sets/{id}/map", s.MapInSet)

		r.Get("/statistics", s.Statistics)
		r.Get("/statistics/summary", s.Summary)
		r.Get("/statistics/graphviz", s.Graphviz)

		r.Get("/namespaces", s.ListNamespaces)
		r.Get("/namespaces/{code}", s.GetNamespace)
	})

	return r
}
