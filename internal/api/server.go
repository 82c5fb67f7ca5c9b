// Package api exposes Studio's remote-call surface over HTTP.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/studio/internal/meta"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB       *gorm.DB
	Registry meta.Getter
	Port     int
	Logger   *zap.SugaredLogger
	Out      io.Writer
}

// NewRouter builds the Gin engine with all routes registered.
func NewRouter(db *gorm.DB, registry meta.Getter, logger *zap.SugaredLogger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.CustomRecovery(recoverWith(logger)))

	h := &handlers{db: db, registry: registry}
	registerRoutes(router, h)
	return router
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("api: db is required")
	}
	if opts.Registry == nil {
		return fmt.Errorf("api: registry is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8000
	}

	router := NewRouter(opts.DB, opts.Registry, opts.Logger)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Studio API listening at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}
		if status >= http.StatusInternalServerError {
			logger.Errorw("request", fields...)
			return
		}
		logger.Infow("request", fields...)
	}
}

// recoverWith turns a handler panic into a 500 response.
func recoverWith(logger *zap.SugaredLogger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		logger.Errorw("panic in handler", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
			ExcType:   "InternalServerError",
			Exception: "internal server error",
		})
	}
}
