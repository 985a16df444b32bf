package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"netloc/internal/config"
	ntpl "netloc/internal/notify/template"

	"go.uber.org/zap"
)

// Slack posts the change to a Slack incoming webhook
type Slack struct {
	config    *config.SlackConfig
	logger    *zap.Logger
	client    *http.Client
	tplLoader *ntpl.Loader
}

// SlackMessage represents Slack message
type SlackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment represents Slack attachment
type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields,omitempty"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

// SlackField represents Slack field
type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewSlack creates new Slack reporter
func NewSlack(cfg *config.SlackConfig, loader *ntpl.Loader, client *http.Client, logger *zap.Logger) (*Slack, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("slack webhook URL is required")
	}
	if loader == nil {
		return nil, fmt.Errorf("slack reporter needs a template loader")
	}
	if client == nil {
		client = newHTTPClient(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Slack{
		config:    cfg,
		logger:    logger,
		client:    client,
		tplLoader: loader,
	}, nil
}

// Name returns the reporter name
func (n *Slack) Name() string { return "slack" }

// Report sends the change
func (n *Slack) Report(ctx context.Context, p *Payload) error {
	content, err := n.tplLoader.Render(ntpl.Slack, ntpl.IPChange, newTemplateData(p))
	if err != nil {
		return err
	}

	var msg SlackMessage
	if err := json.Unmarshal(content, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	msg.Channel = n.config.Channel
	msg.Username = n.config.Username
	msg.IconEmoji = n.config.IconEmoji

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer closeBody(n.logger, resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Destination: "slack", RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, fmt.Errorf("slack api error: status code %d", resp.StatusCode))
	}

	return nil
}
