// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/insightloom/internal/analysis"
	"github.com/KaramelBytes/insightloom/internal/table"
)

// Config holds everything the HTTP API needs.
type Config struct {
	Addr string
	// RateLimit is requests per second across all clients; Burst is the bucket size.
	RateLimit float64
	Burst     int
	// MaxUploadMB caps the request body.
	MaxUploadMB int
	Options     analysis.Options
	Classifier  *analysis.Classifier
	Load        table.LoadOptions
}

// Server serves the analyze and report endpoints.
type Server struct {
	cfg     Config
	limiter *rate.Limiter
	engine  *gin.Engine
}

// New builds the router. It does not start listening.
func New(cfg Config) *Server {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 32
	}
	if cfg.Classifier == nil {
		cfg.Classifier = analysis.NewClassifier(nil)
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	s := &Server{cfg: cfg, limiter: rate.NewLimiter(limit, cfg.Burst)}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = int64(s.cfg.MaxUploadMB) << 20
	r.Use(requestID())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(compress())

	r.GET("/healthz", s.health)
	api := r.Group("/api/v1")
	api.Use(s.rateLimit(), s.limitBody())
	api.POST("/analyze", s.analyze)
	api.POST("/report", s.report)
	return r
}

// Run listens on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("insightloom API listening on http://%s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
