package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"netloc/internal/config"
	"netloc/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWithRetryDisabled(t *testing.T) {
	r := NewConsole(nil)
	assert.Same(t, r, WithRetry(r, nil, nil))
	assert.Same(t, r, WithRetry(r, retry.DefaultRetryConfig(), nil))
}

func TestWithRetry(t *testing.T) {
	calls := 0
	inner := namedFunc{name: "flaky", ReporterFunc: func(context.Context, *Payload) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}}

	cfg := &retry.Config{Enable: true, InitialAttempts: 3, InitialInterval: time.Millisecond}
	r := WithRetry(inner, cfg, zaptest.NewLogger(t))

	assert.Equal(t, "flaky", NameOf(r))
	require.NoError(t, r.Report(context.Background(), testPayload()))
	assert.Equal(t, 3, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	want := errors.New("down")
	calls := 0
	inner := ReporterFunc(func(context.Context, *Payload) error {
		calls++
		return want
	})

	cfg := &retry.Config{Enable: true, InitialAttempts: 2, InitialInterval: time.Millisecond}
	err := WithRetry(inner, cfg, zaptest.NewLogger(t)).Report(context.Background(), testPayload())
	assert.ErrorIs(t, err, want)
	assert.Equal(t, 2, calls)
}

func TestWithRetryStopsOnClientError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	inner, err := NewHTTPRequest(&config.HTTPConfig{URL: srv.URL}, srv.Client(), zaptest.NewLogger(t))
	require.NoError(t, err)

	cfg := &retry.Config{Enable: true, InitialAttempts: 3, InitialInterval: time.Millisecond}
	err = WithRetry(inner, cfg, zaptest.NewLogger(t)).Report(context.Background(), testPayload())

	assert.EqualError(t, err, "http request failed with status 404")
	assert.Equal(t, 1, calls)
}

func TestWithRetryRetriesServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	inner, err := NewHTTPRequest(&config.HTTPConfig{URL: srv.URL}, srv.Client(), zaptest.NewLogger(t))
	require.NoError(t, err)

	cfg := &retry.Config{Enable: true, InitialAttempts: 3, InitialInterval: time.Millisecond}
	require.NoError(t, WithRetry(inner, cfg, zaptest.NewLogger(t)).Report(context.Background(), testPayload()))
	assert.Equal(t, 2, calls)
}

func TestStatusError(t *testing.T) {
	base := errors.New("failed")
	assert.True(t, retry.IsStop(statusError(http.StatusBadRequest, base)))
	assert.True(t, retry.IsStop(statusError(http.StatusForbidden, base)))
	assert.False(t, retry.IsStop(statusError(http.StatusTooManyRequests, base)))
	assert.False(t, retry.IsStop(statusError(http.StatusRequestTimeout, base)))
	assert.False(t, retry.IsStop(statusError(http.StatusServiceUnavailable, base)))
	assert.Same(t, base, statusError(http.StatusBadGateway, base))
}
