package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/insurdesk/concierge/pkg/service/metrics"
	"github.com/insurdesk/concierge/pkg/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	router            *chi.Mux
	uc                *usecase.UseCases
	metrics           *metrics.Metrics
	gatherer          prometheus.Gatherer
	defaultSourceType types.SourceType
	validate          *requestValidator
}

type Options func(*Server)

// WithMetrics records request latency into m and exposes gatherer on /metrics
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Options {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithDefaultSourceType sets the source type used when an indexing request
// names none
func WithDefaultSourceType(st types.SourceType) Options {
	return func(s *Server) {
		s.defaultSourceType = st
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:            r,
		uc:                uc,
		defaultSourceType: types.SourceTypeFAQ,
		validate:          newRequestValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(requestMetrics(s.metrics))
	}

	r.Route("/orchestrator", func(r chi.Router) {
		if uc.Chat != nil {
			r.Post("/chat", s.chatHandler)
		}
		if uc.Gateway != nil {
			r.Get("/status", s.statusHandler)
			r.Get("/health", s.healthHandler)
		}

		r.Route("/rag", func(r chi.Router) {
			r.Post("/search", s.searchHandler)
			r.Post("/search-vector", s.searchVectorHandler)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Route("/knowledge", func(r chi.Router) {
			r.Post("/", s.createKnowledgeHandler)
			r.Get("/", s.listKnowledgeHandler)
			r.Get("/{id}", s.getKnowledgeHandler)
			r.Delete("/{id}", s.deleteKnowledgeHandler)
		})
		r.Get("/indexing/status", s.indexStatusHandler)
		r.Post("/indexing/run", s.indexRunHandler)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
