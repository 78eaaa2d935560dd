package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alertstack/triage-engine/internal/config"
	"github.com/alertstack/triage-engine/internal/services"
)

// Server wraps the HTTP server and its lifecycle helpers.
type Server struct {
	cfg        config.ServerConfig
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer constructs the HTTP API bound to the configured address.
func NewServer(cfg config.ServerConfig, service *services.TriageService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	h := newHandlers(service, logger)
	v1 := router.Group("/api/v1")
	{
		v1.POST("/ask", h.ask)
		v1.POST("/hypotheses/test", h.testHypothesis)
		v1.POST("/feedback", h.feedback)
		v1.GET("/sessions/:id", h.sessionStats)
		v1.POST("/sessions/:id/reset", h.resetSession)
	}
	router.GET("/healthz", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		cfg:    cfg,
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the routing tree, useful for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves requests until Shutdown is invoked.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GracefulTimeout returns the configured graceful timeout duration.
func (s *Server) GracefulTimeout() time.Duration {
	return s.cfg.GracefulTimeout
}
