// Package server exposes the logsift engine over HTTP so any presentation
// layer can upload log text and query entries, reports and exports.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ccollicutt/logsift/pkg/analyzer"
	"github.com/ccollicutt/logsift/pkg/config"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Addr           string
	MaxUploadBytes int64
	TopThreads     int
	Location       *time.Location
}

// OptionsFromConfig derives server options from a validated configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Addr:           cfg.Server.Addr,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		TopThreads:     cfg.Analysis.TopThreads,
		Location:       cfg.Location(),
	}
}

// Server holds the gin engine and the dataset store.
type Server struct {
	engine   *gin.Engine
	store    Store
	analyzer *analyzer.Analyzer
	opts     Options
}

// New creates a server that parses uploads with a.
func New(a *analyzer.Analyzer, store Store, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = config.DefaultServerAddr
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	engine.MaxMultipartMemory = opts.MaxUploadBytes

	s := &Server{
		engine:   engine,
		store:    store,
		analyzer: a,
		opts:     opts,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"datasets": s.store.Len(),
		})
	})

	v1 := s.engine.Group("/api/v1/datasets")
	{
		v1.POST("", s.createDataset)
		v1.GET("/:id", s.getDataset)
		v1.DELETE("/:id", s.deleteDataset)
		v1.GET("/:id/entries", s.listEntries)
		v1.GET("/:id/report", s.getReport)
		v1.GET("/:id/export/text", s.exportText)
		v1.GET("/:id/export/report", s.exportReport)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.opts.Addr).Msg("HTTP API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Msg("HTTP API shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
