// Package api exposes the state container over HTTP. Every command goes
// through the container, so rejected commits surface as 422 responses
// carrying the blocking diagnostics.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tordrt/prismagen/internal/formatter"
	"github.com/tordrt/prismagen/internal/state"
)

// Options configures a Server
type Options struct {
	// Prisma configures the schema.prisma preview
	Prisma *formatter.PrismaOptions
	// Registry receives the API collectors and backs /metrics. Nil disables metrics.
	Registry *prometheus.Registry
	Logger   *slog.Logger
	// AllowOrigins enables CORS for browser editors. "*" allows any origin.
	AllowOrigins []string
	// RenderCacheSize is the preview cache capacity in bytes. Zero uses DefaultRenderCacheSize.
	RenderCacheSize int
}

// Server serves the data model API
type Server struct {
	state    *state.Container
	prisma   *formatter.PrismaOptions
	metrics  *Metrics
	registry *prometheus.Registry
	logger   *slog.Logger
	origins  []string
	cache    *renderCache
}

// NewServer creates a server over the given container
func NewServer(c *state.Container, opts Options) *Server {
	s := &Server{
		state:    c,
		prisma:   opts.Prisma,
		registry: opts.Registry,
		logger:   opts.Logger,
		origins:  opts.AllowOrigins,
		cache:    newRenderCache(opts.RenderCacheSize),
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.registry != nil {
		s.metrics = NewMetrics(s.registry)
	}
	return s
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if len(s.origins) > 0 {
		r.Use(cors.New(s.corsConfig()))
	}

	api := r.Group("/api")
	{
		api.GET("/document", s.getDocument)

		api.POST("/models", s.addModel)
		api.PUT("/models/:id", s.updateModel)
		api.DELETE("/models/:id", s.deleteModel)
		api.POST("/models/:id/move", s.moveModel)

		api.POST("/relationships", s.addRelationship)
		api.PUT("/relationships/:id", s.updateRelationship)
		api.DELETE("/relationships/:id", s.deleteRelationship)

		api.GET("/validate", s.validateDocument)
		api.POST("/validate/model", s.validateModel)
		api.POST("/validate/field", s.validateField)
		api.POST("/validate/relationship", s.validateRelationship)

		api.GET("/schema.prisma", s.schemaPrisma)
		api.GET("/docs.md", s.docsMarkdown)
	}

	if s.registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range s.origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = s.origins
	return cfg
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
