// Package server is the thin HTTP layer mapping the core operations 1:1 to
// routes. It owns no business rules beyond error-kind to status mapping.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/filekeeper/internal/config"
	"github.com/PaulBabatuyi/filekeeper/internal/middleware"
	"github.com/PaulBabatuyi/filekeeper/internal/observability"
	"github.com/PaulBabatuyi/filekeeper/internal/service"
)

// NewRouter builds the route tree. Split out from Server so tests can drive
// it with httptest directly.
func NewRouter(svc *service.Service, metrics *observability.Metrics, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.RequestLogger(logger))

	h := &handler{svc: svc, logger: logger}

	r.Get("/status", h.status)
	r.Get("/stats", h.stats)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/users", h.createUser)
	r.Get("/connect", h.connect)
	r.Get("/disconnect", h.disconnect)
	r.Get("/users/me", h.me)

	// Content retrieval authorizes per-request inside the service; public
	// files need no token at all.
	r.Get("/files/{id}/data", h.getContent)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(svc.Sessions()))
		r.Post("/files", h.upload)
		r.Get("/files", h.listFiles)
		r.Get("/files/{id}", h.getFile)
		r.Put("/files/{id}/publish", h.publish)
		r.Put("/files/{id}/unpublish", h.unpublish)
	})

	return r
}

// Server is the HTTP server with graceful shutdown.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	cfg        *config.Config
}

func New(cfg *config.Config, logger *zap.Logger, svc *service.Service, metrics *observability.Metrics) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      NewRouter(svc, metrics, logger),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
		cfg:    cfg,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
