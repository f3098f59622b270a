// Package api exposes the application over a JSON HTTP API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"kecarajocomer/internal/app"
	"kecarajocomer/internal/config"
	"kecarajocomer/internal/metrics"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the HTTP front of the App.
type Server struct {
	app        *app.App
	cfg        *config.Config
	logger     *zap.Logger
	collectors *metrics.Collectors
	router     *chi.Mux
	server     *http.Server
	now        func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithWebhook mounts a handler, such as the Telegram webhook, outside the
// authenticated API.
func WithWebhook(path string, h http.Handler) Option {
	return func(s *Server) { s.router.Handle(path, h) }
}

// WithClock overrides the clock used to pick the current week.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a new Server instance.
func NewServer(a *app.App, collectors *metrics.Collectors, log *zap.Logger, opts ...Option) *Server {
	s := &Server{
		app:        a,
		cfg:        a.Config(),
		logger:     log,
		collectors: collectors,
		now:        time.Now,
	}
	s.router = s.setupRoutes()
	for _, opt := range opts {
		opt(s)
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.collectors.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(s.cfg.JWTSecret))
		r.Use(chimiddleware.Timeout(75 * time.Second))

		r.Route("/pantry", func(r chi.Router) {
			r.Get("/", s.handleListPantry)
			r.Post("/", s.handleAddPantryItem)
			r.Get("/expiring", s.handleExpiring)
			r.Delete("/{id}", s.handleDeletePantryItem)
		})

		r.Post("/meal-plans", s.handleSavePlan)
		r.Get("/meal-plans", s.handleRecentPlans)

		r.Route("/shopping-lists", func(r chi.Router) {
			r.Post("/generate", s.handleGenerateList)
			r.Get("/current", s.handleCurrentList)
			r.Get("/{id}/estimate", s.handleEstimate)
			r.Post("/{id}/items", s.handleAddManualItem)
			r.Patch("/{id}/items/{itemID}", s.handleSetPurchased)
			r.Delete("/{id}/items/{itemID}", s.handleRemoveItem)
			r.Delete("/{id}", s.handleDeleteList)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Post("/", s.handleRecordPrice)
			r.Get("/{product}", s.handlePriceReport)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.handleListRecipes)
			r.Post("/suggest", s.handleSuggest)
			r.Post("/import", s.handleImport)
			r.Post("/{id}/cooked", s.handleCooked)
			r.Delete("/{id}", s.handleDeleteRecipe)
		})
	})

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"system": metrics.GetSysHealth(s.cfg.DatabasePath),
	})
}
