// Package server wires the HTTP surface of the assistant: routing,
// boundary middleware, the request handlers, and the listener lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/nutrichat/nutrichat/internal/config"
	"github.com/nutrichat/nutrichat/internal/logger"
)

// Server owns the gin engine and the http.Server wrapped around it.
type Server struct {
	log     *slog.Logger
	cfg     *config.Config
	httpSrv *http.Server
}

// New assembles the routing tree and middleware chain around the provided
// dependencies. Nothing starts listening until Run is called.
func New(deps HandlerDeps) *Server {
	cfg := deps.Config

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		deps.Logger.ErrorContext(c.Request.Context(), "Handler panicked", "panic", recovered, "path", c.Request.URL.Path)
		respondError(c, cfg, http.StatusInternalServerError, cfg.Messages.GeneralError, nil)
	}))
	engine.Use(SecurityHeaders(cfg.Production()))

	api := engine.Group("/api")
	api.Use(
		logger.Middleware(deps.Logger),
		CORS(cfg.Server.AllowedOrigins),
		RateLimit(deps.Limiter, cfg.Messages),
		BodyLimit(cfg.Server.MaxBodyBytes),
	)
	api.POST("/chat", NewChatHandler(deps))
	api.GET("/chat", NewMetadataHandler(deps))
	api.OPTIONS("/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	engine.GET("/healthz", NewHealthHandler(deps))

	engine.NoRoute(staticHandler(cfg.Server.PublicDir))

	return &Server{
		log: deps.Logger,
		cfg: cfg,
		httpSrv: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}
}

// Handler exposes the assembled routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run starts the listener and blocks until ctx is cancelled or the server
// fails. On cancellation, in-flight requests get the configured grace period
// to finish.
func (s *Server) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.InfoContext(gCtx, "HTTP server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.log.Info("Shutting down HTTP server", "grace_period", s.cfg.Server.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		s.log.Info("HTTP server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// staticHandler serves the browser app for anything outside /api. Unknown
// API paths stay JSON; everything else falls through to the file server,
// which resolves / to index.html on its own.
func staticHandler(publicDir string) gin.HandlerFunc {
	fs := http.FileServer(http.Dir(publicDir))

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"reply": "Not found."})
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusMethodNotAllowed)
			return
		}
		fs.ServeHTTP(c.Writer, c.Request)
	}
}
