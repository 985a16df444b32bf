package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"netloc/internal/config"
	"netloc/internal/retry"
	"netloc/internal/version"

	"go.uber.org/zap"
)

// HTTPRequest posts the new address as a plain text body
type HTTPRequest struct {
	config *config.HTTPConfig
	logger *zap.Logger
	client *http.Client
}

// NewHTTPRequest creates a plain HTTP reporter
func NewHTTPRequest(cfg *config.HTTPConfig, client *http.Client, logger *zap.Logger) (*HTTPRequest, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http request URL is required")
	}
	if client == nil {
		client = newHTTPClient(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPRequest{
		config: cfg,
		logger: logger,
		client: client,
	}, nil
}

// Name returns the reporter name
func (n *HTTPRequest) Name() string { return "http" }

// Report sends the address
func (n *HTTPRequest) Report(ctx context.Context, p *Payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, strings.NewReader(p.IP))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer closeBody(n.logger, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, fmt.Errorf("http request failed with status %d", resp.StatusCode))
	}

	return nil
}

// closeBody drains and closes a response body so the connection is reused
func closeBody(logger *zap.Logger, body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	if err := body.Close(); err != nil {
		logger.Error("Failed to close response body", zap.Error(err))
	}
}

// statusError marks err as final when the status is a client error that
// a resend cannot fix. Timeouts and rate limits stay retryable.
func statusError(code int, err error) error {
	if code >= 400 && code < 500 && code != http.StatusRequestTimeout && code != http.StatusTooManyRequests {
		return retry.Stop(err)
	}
	return err
}
