package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"netloc/internal/metrics"
	"netloc/internal/server/api/middleware"
	"netloc/internal/server/api/response"
	av1 "netloc/internal/server/api/v1"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// healthTimeout bounds a single /healthz probe of the dependencies
const healthTimeout = 2 * time.Second

// Router handles all routing logic
type Router struct {
	engine   *gin.Engine
	recorder *metrics.Recorder
	health   HealthCheck
	logger   *zap.Logger
}

// Option configures a Router
type Option func(*Router)

// WithHealthCheck makes /healthz fail with 503 while check fails
func WithHealthCheck(check HealthCheck) Option {
	return func(r *Router) {
		r.health = check
	}
}

// NewRouter creates and configures a new router
func NewRouter(recorder *metrics.Recorder, debug bool, logger *zap.Logger, opts ...Option) *Router {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		recorder: recorder,
		logger:   logger.Named("api"),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Handler returns the HTTP handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// setupMiddleware configures all middleware
func (r *Router) setupMiddleware() {
	m := middleware.New(r.logger)

	r.engine.Use(m.RequestID())
	r.engine.Use(m.Logger())
	r.engine.Use(m.Recovery())
	r.engine.Use(m.Secure())
	r.engine.Use(m.NoCache())
}

// setupRoutes configures health, metrics and v1 API routes
func (r *Router) setupRoutes() {
	r.engine.GET("/healthz", r.healthz)
	r.engine.GET("/metrics", gin.WrapH(r.recorder.Handler()))

	av1.NewAPI(r.recorder, r.logger).RegisterRoutes(r.engine.Group("/api/v1"))

	r.engine.NoRoute(func(c *gin.Context) {
		response.New(c, r.logger).NotFound(errors.New("route not found"))
	})
}

// healthz reports ok, or 503 when the health check fails
func (r *Router) healthz(c *gin.Context) {
	if r.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := r.health(ctx); err != nil {
			r.logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
