// Package server exposes the download service over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/MDigiTechnology/Video-Downloader/internal/download"
	"github.com/MDigiTechnology/Video-Downloader/internal/info"
	"github.com/MDigiTechnology/Video-Downloader/internal/media"
	"github.com/MDigiTechnology/Video-Downloader/internal/model"
	"github.com/MDigiTechnology/Video-Downloader/internal/stream"
	"github.com/MDigiTechnology/Video-Downloader/internal/worker"
)

// Jobs is the read side of the job registry used by handlers
type Jobs interface {
	Get(id string) (*model.Job, bool)
	Len() int
	CountByPhase() map[model.Phase]int
}

// Streamer produces progress events for one job
type Streamer interface {
	Stream(ctx context.Context, id string, emit func(stream.Event) error) error
}

// WorkerStats reports the download pool counters
type WorkerStats interface {
	Stats() worker.Stats
}

// InfoFetcher looks up media metadata
type InfoFetcher interface {
	Fetch(ctx context.Context, url, platform string) (*info.Info, error)
}

// Config holds the HTTP layer settings
type Config struct {
	Addr            string
	Mode            string
	DownloadsDir    string
	StaticPrefix    string
	MetricsPath     string
	ShutdownTimeout time.Duration
}

// Deps are the collaborators behind the handlers
type Deps struct {
	Jobs     Jobs
	Runner   download.Submitter
	Streamer Streamer
	Info     InfoFetcher
	Workers  WorkerStats  // optional
	Metrics  http.Handler // nil disables the metrics endpoint
	Tools    media.Tools
	Log      logrus.FieldLogger
}

// Server owns the gin engine
type Server struct {
	cfg    Config
	deps   Deps
	engine *gin.Engine
}

// New creates a server and its router
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Jobs == nil || deps.Runner == nil || deps.Streamer == nil || deps.Info == nil {
		return nil, errors.New("server dependencies are incomplete")
	}
	if deps.Log == nil {
		return nil, errors.New("logger is nil")
	}
	if cfg.StaticPrefix == "" {
		cfg.StaticPrefix = download.DefaultStaticPrefix
	}

	s := &Server{cfg: cfg, deps: deps}
	s.engine = s.setupRouter()
	return s, nil
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRouter() *gin.Engine {
	if s.cfg.Mode != "" {
		gin.SetMode(s.cfg.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.loggerMiddleware())

	r.GET("/health", s.handleHealth)

	r.POST("/download", s.handleDownload)
	r.GET("/progress/:id", s.handleProgress)
	r.GET("/get_file/:id", s.handleGetFile)
	r.GET("/direct_download/:id", s.handleDirectDownload)
	r.GET("/fallback_download/:id", s.handleFallbackDownload)
	r.GET("/check_download/:id", s.handleCheckDownload)
	r.POST("/api/info", s.handleInfo)

	if s.cfg.DownloadsDir != "" {
		r.Static(strings.TrimSuffix(s.cfg.StaticPrefix, "/"), s.cfg.DownloadsDir)
	}
	if s.deps.Metrics != nil && s.cfg.MetricsPath != "" {
		r.GET(s.cfg.MetricsPath, gin.WrapH(s.deps.Metrics))
	}

	return r
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Log.WithField("addr", s.cfg.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.deps.Log.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (s *Server) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		entry := s.deps.Log.WithFields(logrus.Fields{
			"method":   method,
			"path":     path,
			"status":   status,
			"duration": duration.String(),
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("HTTP request")
			return
		}
		entry.Info("HTTP request")
	}
}
