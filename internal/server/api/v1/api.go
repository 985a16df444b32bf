package v1

import (
	"time"

	"netloc/internal/metrics"
	"netloc/internal/server/api/response"
	"netloc/internal/version"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusSource provides the current loop status
type StatusSource interface {
	Snapshot() metrics.Status
}

// Status is the body of GET /api/v1/status
type Status struct {
	metrics.Status
	Uptime  string       `json:"uptime"`
	Version version.Info `json:"version"`
}

// API represents the API
type API struct {
	source StatusSource
	logger *zap.Logger
}

// NewAPI creates new API
func NewAPI(source StatusSource, logger *zap.Logger) *API {
	return &API{
		source: source,
		logger: logger,
	}
}

// RegisterRoutes registers API routes
func (api *API) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/status", api.getStatus)
}

// getStatus returns the loop status
func (api *API) getStatus(c *gin.Context) {
	s := api.source.Snapshot()
	response.New(c, api.logger).Success(Status{
		Status:  s,
		Uptime:  time.Since(s.StartTime).Round(time.Second).String(),
		Version: version.GetInfo(),
	})
}
