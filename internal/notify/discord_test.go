package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"netloc/internal/config"
	ntpl "netloc/internal/notify/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestLoader(t *testing.T) *ntpl.Loader {
	t.Helper()
	loader, err := ntpl.NewLoader(zaptest.NewLogger(t))
	require.NoError(t, err)
	return loader
}

func TestDiscordReport(t *testing.T) {
	var msg DiscordMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := &config.DiscordConfig{WebhookURL: srv.URL, Username: "netloc", AvatarURL: "https://example.com/a.png"}
	n, err := NewDiscord(cfg, newTestLoader(t), srv.Client(), zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, n.Report(context.Background(), testPayload()))
	assert.Equal(t, "203.0.113.7", msg.Content)
	assert.Equal(t, "netloc", msg.Username)
	assert.Equal(t, "https://example.com/a.png", msg.AvatarURL)
	require.Len(t, msg.Embeds, 1)
	assert.Equal(t, "Public IP Replaced", msg.Embeds[0].Title)
	require.Len(t, msg.Embeds[0].Fields, 2)
	assert.Equal(t, "198.51.100.1", msg.Embeds[0].Fields[1].Value)
}

func TestDiscordRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "1.5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n, err := NewDiscord(&config.DiscordConfig{WebhookURL: srv.URL}, newTestLoader(t), srv.Client(), zaptest.NewLogger(t))
	require.NoError(t, err)

	err = n.Report(context.Background(), testPayload())
	require.ErrorIs(t, err, ErrRateLimited)

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 1500*time.Millisecond, rl.RetryAfter)
}

func TestDiscordServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n, err := NewDiscord(&config.DiscordConfig{WebhookURL: srv.URL}, newTestLoader(t), srv.Client(), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.ErrorContains(t, n.Report(context.Background(), testPayload()), "status code 500")
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, 2*time.Second, parseRetryAfter("2"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-1"))
}
