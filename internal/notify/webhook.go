package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"netloc/internal/config"
	"netloc/internal/version"

	"go.uber.org/zap"
)

// Webhook header names
const (
	HeaderEvent     = "X-Netloc-Event"
	HeaderDelivery  = "X-Netloc-Delivery"
	HeaderSignature = "X-Netloc-Signature"
)

// Webhook sends the change as a generic JSON event
type Webhook struct {
	config *config.WebhookConfig
	logger *zap.Logger
	client *http.Client
}

// WebhookPayload represents the standard webhook payload structure
type WebhookPayload struct {
	EventType string      `json:"event_type"`
	EventID   string      `json:"event_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      WebhookData `json:"data"`
}

// WebhookData is the change carried by a webhook event
type WebhookData struct {
	IP       string `json:"ip"`
	Previous string `json:"previous,omitempty"`
	Effect   string `json:"effect"`
}

// NewWebhook creates new webhook reporter
func NewWebhook(cfg *config.WebhookConfig, client *http.Client, logger *zap.Logger) (*Webhook, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	if client == nil {
		client = newHTTPClient(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Webhook{
		config: cfg,
		logger: logger,
		client: client,
	}, nil
}

// Name returns the reporter name
func (n *Webhook) Name() string { return "webhook" }

// Report sends the event
func (n *Webhook) Report(ctx context.Context, p *Payload) error {
	payload := WebhookPayload{
		EventType: EventType,
		EventID:   p.EventID,
		Timestamp: p.Timestamp,
		Data: WebhookData{
			IP:       p.IP,
			Previous: p.Previous,
			Effect:   p.Effect,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	method := strings.ToUpper(n.config.Method)
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, n.config.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "netloc-webhook/"+version.GetInfo().Version)
	req.Header.Set(HeaderEvent, payload.EventType)
	req.Header.Set(HeaderDelivery, payload.EventID)
	if n.config.Secret != "" {
		req.Header.Set(HeaderSignature, calculateSignature(data, []byte(n.config.Secret)))
	}

	// Add custom headers from config
	for k, v := range n.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer closeBody(n.logger, resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Destination: "webhook", RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	if resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, fmt.Errorf("webhook request failed with status %d", resp.StatusCode))
	}

	return nil
}

// calculateSignature returns the hex HMAC-SHA256 of payload under secret
func calculateSignature(payload, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
