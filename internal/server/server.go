// Package server exposes analysis runs over HTTP: a JSON API for
// starting and inspecting runs, a WebSocket feed of run status events,
// and the Prometheus metrics endpoint.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cashlab/internal/config"
	"cashlab/internal/observability"
	"cashlab/internal/pipeline"
)

// Server wires the HTTP API to the stores and the pipeline.
type Server struct {
	cfg    *config.Config
	stores pipeline.Stores
	logger *zap.Logger
	hub    *Hub
}

// New creates a server. The run store must be set; the remaining
// stores are optional the same way they are for the pipeline.
func New(cfg *config.Config, stores pipeline.Stores, logger *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		stores: stores,
		logger: logger,
		hub:    NewHub(),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api/v1")
	{
		api.POST("/runs", s.handleStartRun)
		api.GET("/runs", s.handleListRuns)
		api.GET("/runs/:id", s.handleGetRun)
		api.GET("/runs/:id/records", s.handleGetRecords)
		api.GET("/runs/:id/results", s.handleGetResults)
		api.GET("/runs/:id/comparison", s.handleGetComparison)
		api.GET("/runs/:id/ws", s.handleRunEvents)
	}

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}
