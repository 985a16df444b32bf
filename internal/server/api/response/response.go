package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response represents standard API response
type Response struct {
	Code      int       `json:"code"`            // HTTP status code
	Message   string    `json:"message"`         // Response message
	Data      any       `json:"data,omitempty"`  // Response data
	Error     string    `json:"error,omitempty"` // Error message if any
	RequestID string    `json:"request_id"`      // Request ID for tracking
	Timestamp time.Time `json:"timestamp"`       // Response timestamp
}

// Handler provides methods for standard API responses
type Handler struct {
	ctx    *gin.Context
	logger *zap.Logger
}

// New creates new response handler
func New(c *gin.Context, logger *zap.Logger) *Handler {
	return &Handler{
		ctx:    c,
		logger: logger,
	}
}

// Success sends success response
func (h *Handler) Success(data any) {
	h.ctx.JSON(http.StatusOK, Response{
		Code:      http.StatusOK,
		Message:   "success",
		Data:      data,
		RequestID: h.ctx.GetString("request_id"),
		Timestamp: time.Now().UTC(),
	})
}

// Error sends an error response
func (h *Handler) Error(status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("request_id", h.ctx.GetString("request_id")),
			zap.Int("status", status),
			zap.Error(err))
	}
	h.ctx.JSON(status, Response{
		Code:      status,
		Message:   "error",
		Error:     err.Error(),
		RequestID: h.ctx.GetString("request_id"),
		Timestamp: time.Now().UTC(),
	})
}

// NotFound sends not found error response
func (h *Handler) NotFound(err error) {
	h.Error(http.StatusNotFound, err)
}

// InternalError sends an internal server error response
func (h *Handler) InternalError(err error) {
	h.Error(http.StatusInternalServerError, err)
}
