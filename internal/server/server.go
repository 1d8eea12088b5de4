package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/config"
	"github.com/sape94/NIQ-sp-proj/internal/server/handlers"
	"github.com/sape94/NIQ-sp-proj/internal/service/store"
)

// Server HTTP server
type Server struct {
	router    *gin.Engine
	handlers  *handlers.Handlers
	universes *store.MemoryStore
	http      *http.Server
	logger    *zap.Logger
}

// NewServer creates a server from configuration.
func NewServer(cfg *config.AppConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	universes := store.NewMemoryStore(cfg.Data.MaxUniverses)
	h := handlers.NewHandlers(handlers.Options{
		Universes: universes,
		Tables:    store.NewMemoryStore(cfg.Data.MaxUniverses),
		Exports:   store.NewExportStore(cfg.Data.ExportTTL()),
		Sampling:  cfg.Sampling.Params(),
		Seed:      cfg.Sampling.Seed,
		Logger:    logger,
	})

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.MaxMultipartMemory = handlers.MaxUploadSize

	s := &Server{
		router:    router,
		handlers:  h,
		universes: universes,
		logger:    logger,
	}
	s.setupRoutes()
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "universes": s.universes.Count()})
	})

	api := s.router.Group("/api")
	{
		s.handlers.RegisterRoutes(api)
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
