package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"netloc/internal/config"
	ntpl "netloc/internal/notify/template"

	"go.uber.org/zap"
)

const defaultTelegramAPI = "https://api.telegram.org"

// Telegram sends the change to every configured chat through a bot
type Telegram struct {
	config    *config.TelegramConfig
	logger    *zap.Logger
	client    *http.Client
	tplLoader *ntpl.Loader
}

// TelegramMessage represents Telegram message
type TelegramMessage struct {
	ChatID              string `json:"chat_id"`
	Text                string `json:"text"`
	ParseMode           string `json:"parse_mode"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

// NewTelegram creates new Telegram reporter
func NewTelegram(cfg *config.TelegramConfig, loader *ntpl.Loader, client *http.Client, logger *zap.Logger) (*Telegram, error) {
	if cfg.BotToken == "" || len(cfg.ChatIDs) == 0 {
		return nil, fmt.Errorf("telegram bot token and chat IDs are required")
	}
	if loader == nil {
		return nil, fmt.Errorf("telegram reporter needs a template loader")
	}
	if client == nil {
		client = newHTTPClient(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Telegram{
		config:    cfg,
		logger:    logger,
		client:    client,
		tplLoader: loader,
	}, nil
}

// Name returns the reporter name
func (n *Telegram) Name() string { return "telegram" }

// Report sends the change to each chat in order, stopping at the first failure
func (n *Telegram) Report(ctx context.Context, p *Payload) error {
	text, err := n.tplLoader.Render(ntpl.Telegram, ntpl.IPChange, newTemplateData(p))
	if err != nil {
		return err
	}

	for _, chatID := range n.config.ChatIDs {
		if err := n.sendMessage(ctx, chatID, string(text)); err != nil {
			return fmt.Errorf("chat_id %s: %w", chatID, err)
		}
	}

	return nil
}

// sendMessage sends a message to a specific chat ID
func (n *Telegram) sendMessage(ctx context.Context, chatID, text string) error {
	msg := TelegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "Markdown",
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	apiURL := strings.TrimRight(n.config.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultTelegramAPI
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", apiURL, n.config.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// the URL carries the token
		return fmt.Errorf("failed to send request: %w", redactToken(err, n.config.BotToken))
	}
	defer closeBody(n.logger, resp.Body)

	var apiResp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		Parameters  struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&apiResp)

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			Destination: "telegram",
			RetryAfter:  time.Duration(apiResp.Parameters.RetryAfter) * time.Second,
		}
	}

	if resp.StatusCode != http.StatusOK || !apiResp.OK {
		if apiResp.Description != "" {
			return statusError(resp.StatusCode, fmt.Errorf("telegram api error: status code %d: %s", resp.StatusCode, apiResp.Description))
		}
		return statusError(resp.StatusCode, fmt.Errorf("telegram api error: status code %d", resp.StatusCode))
	}

	return nil
}

// redactError hides a secret embedded in an error message
type redactError struct {
	msg string
	err error
}

func (e *redactError) Error() string { return e.msg }

func (e *redactError) Unwrap() error { return e.err }

func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), err: err}
}
