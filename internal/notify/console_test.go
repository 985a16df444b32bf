package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleReport(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	require.NoError(t, c.Report(context.Background(), testPayload()))
	require.NoError(t, c.Report(context.Background(), &Payload{IP: "2001:db8::1"}))
	assert.Equal(t, "203.0.113.7\n2001:db8::1\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestConsoleWriteError(t *testing.T) {
	err := NewConsole(failingWriter{}).Report(context.Background(), testPayload())
	assert.ErrorContains(t, err, "failed to write to console")
}
