package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncestudy/nce/internal/config"
	"github.com/ncestudy/nce/internal/lesson"
	"github.com/ncestudy/nce/internal/logging"
	"github.com/ncestudy/nce/internal/progress"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the lesson library, progress and playback settings over
// HTTP for a browser front end.
type Server struct {
	library  *lesson.Library
	progress *progress.Store
	config   *config.Config
	logger   *logging.Logger
	engine   *gin.Engine
}

func New(lib *lesson.Library, store *progress.Store, cfg *config.Config, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		library:  lib,
		progress: store,
		config:   cfg,
		logger:   logger.Named("server"),
	}
	s.engine = s.setupRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("listening", "addr", addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	s.logger.Infow("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()

	router.Use(s.requestLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/books", s.listBooks)
	api.GET("/books/:book/lessons", s.listLessons)
	api.GET("/books/:book/lessons/:name", s.getLesson)
	api.GET("/books/:book/lessons/:name/audio", s.getAudio)
	api.GET("/progress/:book/:name", s.getProgress)
	api.PUT("/progress/:book/:name", s.putProgress)
	api.GET("/settings", s.getSettings)

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// writes {"error": msg} with 404 for missing lessons and 500 otherwise
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, lesson.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		s.logger.Errorw("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
