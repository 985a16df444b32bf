package server

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestServerStartShutdown(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	s := New("127.0.0.1:0", h, zaptest.NewLogger(t))
	require.NoError(t, s.Start())

	resp, err := http.Get("http://" + s.Addr())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	require.NoError(t, s.Shutdown(context.Background()))
	_, err = http.Get("http://" + s.Addr())
	assert.Error(t, err)
}

func TestServerStartBindError(t *testing.T) {
	s := New("127.0.0.1:0", http.NotFoundHandler(), zaptest.NewLogger(t))
	require.NoError(t, s.Start())
	defer s.Shutdown(context.Background())

	other := New(s.Addr(), http.NotFoundHandler(), zaptest.NewLogger(t))
	assert.Error(t, other.Start())
}
