package notify

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"netloc/internal/config"
	"netloc/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func names(reporters []Reporter) []string {
	out := make([]string, len(reporters))
	for i, r := range reporters {
		out[i] = NameOf(r)
	}
	return out
}

func TestBuildConsoleOnly(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var buf bytes.Buffer

	reporters, closer, err := Build(context.Background(), &config.NotifyConfig{}, zap.New(core), WithConsoleWriter(&buf))
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, []string{"console"}, names(reporters))
	assert.Equal(t, 12, logs.FilterMessage("Destination not configured, skipping reporter").Len())

	require.NoError(t, reporters[0].Report(context.Background(), testPayload()))
	assert.Equal(t, "203.0.113.7\n", buf.String())
}

func TestBuildOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := &config.NotifyConfig{
		Webhook: config.WebhookConfig{URL: srv.URL},
		HTTP:    config.HTTPConfig{URL: srv.URL},
		Discord: config.DiscordConfig{WebhookURL: srv.URL},
		SQL:     config.SQLConfig{Driver: "sqlite3", DSN: filepath.Join(t.TempDir(), "netloc.db"), Migrate: true},
	}

	reporters, closer, err := Build(context.Background(), cfg, zap.NewNop(), WithConsoleWriter(&bytes.Buffer{}), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, []string{"console", "discord", "http", "webhook", "sql"}, names(reporters))
	for _, r := range reporters {
		require.NoError(t, r.Report(context.Background(), testPayload()), NameOf(r))
	}
}

func TestBuildWithRetry(t *testing.T) {
	cfg := &config.NotifyConfig{
		Retry: retry.Config{Enable: true, InitialAttempts: 2, InitialInterval: time.Millisecond},
	}

	reporters, closer, err := Build(context.Background(), cfg, zap.NewNop(), WithConsoleWriter(&bytes.Buffer{}))
	require.NoError(t, err)
	defer closer.Close()

	require.Len(t, reporters, 1)
	assert.IsType(t, &retrying{}, reporters[0])
	assert.Equal(t, "console", NameOf(reporters[0]))
}

func TestBuildConnectionFailure(t *testing.T) {
	cfg := &config.NotifyConfig{
		Redis: config.RedisConfig{Addr: "127.0.0.1:1", Channel: "netloc:ip", DialTimeout: 200 * time.Millisecond},
	}

	_, _, err := Build(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "failed to connect data destinations")
}

func TestBuildReporterError(t *testing.T) {
	cfg := &config.NotifyConfig{
		SQL:      config.SQLConfig{Driver: "sqlite3", DSN: filepath.Join(t.TempDir(), "netloc.db"), Migrate: true},
		Telegram: config.TelegramConfig{BotToken: "123:abc"},
	}

	reporters, conns, err := Build(context.Background(), cfg, zap.NewNop(), WithConsoleWriter(&bytes.Buffer{}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create telegram reporter")
	assert.Nil(t, reporters)
	assert.Nil(t, conns)
}

func TestBuildConnectionsPing(t *testing.T) {
	cfg := &config.NotifyConfig{
		SQL: config.SQLConfig{Driver: "sqlite3", DSN: filepath.Join(t.TempDir(), "netloc.db"), Migrate: true},
	}

	_, conns, err := Build(context.Background(), cfg, zap.NewNop(), WithConsoleWriter(&bytes.Buffer{}))
	require.NoError(t, err)

	require.NoError(t, conns.Ping(context.Background()))
	require.NoError(t, conns.Close())
	assert.Error(t, conns.Ping(context.Background()))
}
