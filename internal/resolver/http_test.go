package resolver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveTrimsWhitespace(t *testing.T) {
	srv := serve(t, http.StatusOK, "  203.0.113.5\n")

	addr, err := NewHTTP(srv.URL, WithLogger(zaptest.NewLogger(t))).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("203.0.113.5"), addr)
}

func TestResolveIPv6(t *testing.T) {
	srv := serve(t, http.StatusOK, "2001:db8::42")

	addr, err := NewHTTP(srv.URL).Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, addr.Is6())
	assert.Equal(t, "2001:db8::42", addr.String())
}

func TestResolveBadStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusMovedPermanently} {
		srv := serve(t, status, "198.51.100.1")

		_, err := NewHTTP(srv.URL).Resolve(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadStatus)
	}
}

func TestResolveBodyTooLarge(t *testing.T) {
	srv := serve(t, http.StatusOK, strings.Repeat(" ", 4096)+"198.51.100.1")

	_, err := NewHTTP(srv.URL, WithMaxBodySize(1024)).Resolve(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestResolveUnlimitedBody(t *testing.T) {
	srv := serve(t, http.StatusOK, strings.Repeat(" ", 4096)+"198.51.100.1")

	addr, err := NewHTTP(srv.URL, WithMaxBodySize(0)).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("198.51.100.1"), addr)
}

func TestResolveMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"html", "<html>not an ip</html>"},
		{"empty", ""},
		{"zoned ipv6", "fe80::1%eth0"},
		{"cidr", "203.0.113.0/24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, http.StatusOK, tt.body)

			_, err := NewHTTP(srv.URL).Resolve(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to parse IP address")
		})
	}
}

func TestResolveNetworkFailure(t *testing.T) {
	srv := serve(t, http.StatusOK, "198.51.100.1")
	url := srv.URL
	srv.Close()

	_, err := NewHTTP(url, WithHTTPClient(&http.Client{Timeout: time.Second})).Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestResolveSendsHeaders(t *testing.T) {
	var ua, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		_, _ = io.WriteString(w, "198.51.100.7")
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL).Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ua, "netloc/"))
	assert.Equal(t, "text/plain", accept)
}

func TestResolveOverIPv4Client(t *testing.T) {
	srv := serve(t, http.StatusOK, "198.51.100.9")

	r := NewHTTP(srv.URL, WithHTTPClient(NewClient(IPv4, 5*time.Second)))
	addr, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.9", addr.String())
}

// countingReader hands out data in small pieces and records how much was consumed
type countingReader struct {
	remaining int
	consumed  int
}

func (c *countingReader) Read(p []byte) (int, error) {
	if c.remaining == 0 {
		return 0, io.EOF
	}
	n := len(p)
	if n > c.remaining {
		n = c.remaining
	}
	for i := 0; i < n; i++ {
		p[i] = ' '
	}
	c.remaining -= n
	c.consumed += n
	return n, nil
}

func TestReadLimitedStopsAtCap(t *testing.T) {
	r := &countingReader{remaining: 1 << 20}

	_, err := readLimited(r, 1024)
	require.ErrorIs(t, err, ErrBodyTooLarge)
	assert.LessOrEqual(t, r.consumed, 1024+readChunkSize)
}

func TestReadLimitedExactCap(t *testing.T) {
	r := &countingReader{remaining: 1024}

	body, err := readLimited(r, 1024)
	require.NoError(t, err)
	assert.Len(t, body, 1024)
}

func TestParseFamily(t *testing.T) {
	tests := []struct {
		in      string
		want    Family
		network string
	}{
		{"any", Any, "tcp"},
		{"", Any, "tcp"},
		{"IPv4", IPv4, "tcp4"},
		{"v4", IPv4, "tcp4"},
		{"4", IPv4, "tcp4"},
		{"ipv6", IPv6, "tcp6"},
		{"v6", IPv6, "tcp6"},
		{"6", IPv6, "tcp6"},
	}
	for _, tt := range tests {
		f, err := ParseFamily(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, f, tt.in)
		assert.Equal(t, tt.network, f.Network(), tt.in)
	}

	_, err := ParseFamily("ipx")
	assert.Error(t, err)
	assert.Equal(t, "ipv6", IPv6.String())
}

func TestFunc(t *testing.T) {
	want := netip.MustParseAddr("192.0.2.1")
	var r Resolver = Func(func(context.Context) (netip.Addr, error) { return want, nil })

	got, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
