package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"netloc/internal/config"
	ntpl "netloc/internal/notify/template"
	"netloc/internal/version"

	"go.uber.org/zap"
)

// ErrRateLimited is returned when a destination answers 429
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitError carries the delay a destination asked for
type RateLimitError struct {
	Destination string
	RetryAfter  time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s %s, retry after %s", e.Destination, ErrRateLimited, e.RetryAfter)
	}
	return fmt.Sprintf("%s %s", e.Destination, ErrRateLimited)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// Discord posts the change to a Discord webhook
type Discord struct {
	config    *config.DiscordConfig
	logger    *zap.Logger
	client    *http.Client
	tplLoader *ntpl.Loader
}

// DiscordMessage represents Discord message
type DiscordMessage struct {
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Content   string         `json:"content,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed represents Discord embed
type DiscordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []DiscordField `json:"fields"`
	Footer      struct {
		Text    string `json:"text"`
		IconURL string `json:"icon_url,omitempty"`
	} `json:"footer"`
	Timestamp string `json:"timestamp"`
}

// DiscordField represents Discord field
type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// templateData is what the chat templates render
type templateData struct {
	*Payload
	Version string
}

func newTemplateData(p *Payload) templateData {
	return templateData{Payload: p, Version: version.GetInfo().Version}
}

// NewDiscord creates new Discord reporter
func NewDiscord(cfg *config.DiscordConfig, loader *ntpl.Loader, client *http.Client, logger *zap.Logger) (*Discord, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("discord webhook URL is required")
	}
	if loader == nil {
		return nil, fmt.Errorf("discord reporter needs a template loader")
	}
	if client == nil {
		client = newHTTPClient(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Discord{
		config:    cfg,
		logger:    logger,
		client:    client,
		tplLoader: loader,
	}, nil
}

// Name returns the reporter name
func (n *Discord) Name() string { return "discord" }

// Report sends the change
func (n *Discord) Report(ctx context.Context, p *Payload) error {
	content, err := n.tplLoader.Render(ntpl.Discord, ntpl.IPChange, newTemplateData(p))
	if err != nil {
		return err
	}

	var msg DiscordMessage
	if err := json.Unmarshal(content, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	msg.Username = n.config.Username
	msg.AvatarURL = n.config.AvatarURL

	return n.send(ctx, msg)
}

// send sends Discord message
func (n *Discord) send(ctx context.Context, msg DiscordMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer closeBody(n.logger, resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Destination: "discord", RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, fmt.Errorf("discord api error: status code %d", resp.StatusCode))
	}

	return nil
}

// parseRetryAfter parses a Retry-After header given in (possibly
// fractional) seconds. Unparseable values yield zero.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(v, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
