// Package server serves the dashboard pages and the JSON API over gin.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cognicore/jaksense/pkg/jaksense"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures a Server.
type Options struct {
	Engine       *jaksense.Engine
	Logger       *slog.Logger
	SecureCookie bool
}

// Server is the HTTP surface of the dashboard.
type Server struct {
	engine       *jaksense.Engine
	logger       *slog.Logger
	secureCookie bool
	router       *gin.Engine
}

// New builds the gin router with every route registered.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New("server: engine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		engine:       opts.Engine,
		logger:       logger,
		secureCookie: opts.SecureCookie,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.SetHTMLTemplate(tmpl)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	pages := r.Group("/", s.session())
	pages.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/dashboard/"+string(defaultMode))
	})
	pages.GET("/dashboard/:mode", s.showDashboard)
	pages.POST("/analyze", s.submitForm)
	pages.POST("/reset", s.resetForm)

	api := r.Group("/api", s.session())
	{
		api.GET("/taxonomies", s.getTaxonomies)
		api.POST("/tag", s.postTag)
		api.GET("/modes/:mode/stats", s.getStats)
		api.GET("/comments", s.getComments)
		api.POST("/comments", s.postComment)
		api.DELETE("/session", s.deleteSession)
	}

	s.router = r
	return s, nil
}

// Handler returns the http.Handler serving all routes.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down dashboard")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
