package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/console/handler"
	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/infra"
	"github.com/dmko-sec/secdash/internal/infra/auth"
	"github.com/dmko-sec/secdash/internal/metrics"
)

// ConsoleServer wires the analytics API behind RS256 auth with
// per-surface scopes: view for dashboards and tables, upload for
// dataset management, admin for users and the audit trail.
type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	validator auth.TokenValidator
	registry  prometheus.Gatherer
	m         *metrics.Metrics

	authHandler    *handler.AuthHandler      // /auth/token
	recordsHandler *handler.RecordsHandler   // /api/v1/records
	dashHandler    *handler.DashboardHandler // /api/v1/dashboard
	datasetHandler *handler.DatasetHandler   // /api/v1/datasets
	userHandler    *handler.UserHandler      // /api/v1/users
	auditHandler   *handler.AuditHandler     // /api/v1/audit
}

func NewConsoleServer(
	cfg *infra.Config,
	logger *zap.Logger,
	validator auth.TokenValidator,
	registry prometheus.Gatherer,
	m *metrics.Metrics,
	authH *handler.AuthHandler,
	recordsH *handler.RecordsHandler,
	dashH *handler.DashboardHandler,
	datasetH *handler.DatasetHandler,
	userH *handler.UserHandler,
	auditH *handler.AuditHandler,
) *ConsoleServer {
	s := &ConsoleServer{
		router:         chi.NewRouter(),
		logger:         logger.Named("console-api"),
		cfg:            cfg,
		validator:      validator,
		registry:       registry,
		m:              m,
		authHandler:    authH,
		recordsHandler: recordsH,
		dashHandler:    dashH,
		datasetHandler: datasetH,
		userHandler:    userH,
		auditHandler:   auditH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.timeRequests)

	// Public perimeter: login, liveness, scrape endpoint.
	r.Group(func(r chi.Router) {
		r.Post("/auth/token", s.authHandler.Login)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	})

	// Everything below requires a valid RS256 token.
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.validator, s.logger))

		// Read surface: dashboards, tables, CSV export.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope(domain.ScopeView, s.logger))

			r.Get("/api/v1/dashboard/stats", s.dashHandler.GetStats)
			r.Get("/api/v1/dashboard/fleet", s.dashHandler.GetFleetMetrics)

			r.Route("/api/v1/records", func(r chi.Router) {
				r.Get("/devices", s.recordsHandler.Devices)
				r.Get("/devices/export", s.recordsHandler.ExportDevices)
				r.Get("/violations", s.recordsHandler.Violations)
				r.Get("/incidents", s.recordsHandler.Incidents)
				r.Get("/wipes", s.recordsHandler.Wipes)
			})
		})

		// Dataset management.
		r.Route("/api/v1/datasets", func(r chi.Router) {
			r.With(auth.RequireScope(domain.ScopeView, s.logger)).
				Get("/", s.datasetHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireScope(domain.ScopeUpload, s.logger))
				r.Post("/", s.datasetHandler.Upload)
				r.Delete("/{id}", s.datasetHandler.Delete)
			})
		})

		// Admin surface.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope(domain.ScopeAdmin, s.logger))

			r.Route("/api/v1/users", func(r chi.Router) {
				r.Get("/", s.userHandler.List)
				r.Post("/", s.userHandler.Create)
				r.Put("/{id}", s.userHandler.Update)
				r.Delete("/{id}", s.userHandler.Delete)
			})

			r.Get("/api/v1/audit", s.auditHandler.GetEvents)
		})
	})
}

// timeRequests observes latency per route pattern and status class.
func (s *ConsoleServer) timeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.m.RequestDuration.
			WithLabelValues(route, strconv.Itoa(ww.Status())).
			Observe(time.Since(started).Seconds())
	})
}

// ServeHTTP lets ConsoleServer act as a standard http.Handler.
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
