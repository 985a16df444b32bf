package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"netloc/internal/version"

	"go.uber.org/zap"
)

var (
	// ErrBodyTooLarge is returned when the response exceeds the configured cap
	ErrBodyTooLarge = errors.New("response body exceeds the maximum size")
	// ErrBadStatus is returned for non-2xx responses
	ErrBadStatus = errors.New("server returned an error status")
)

// DefaultMaxBodySize is the response cap used unless overridden
const DefaultMaxBodySize = 1024

// readChunkSize bounds how much is read past the cap before failing
const readChunkSize = 512

// HTTP resolves the IP address by issuing a GET request and reading the
// address as plain text from the response body.
type HTTP struct {
	url         string
	client      *http.Client
	maxBodySize int64
	logger      *zap.Logger
}

// HTTPOption configures an HTTP resolver
type HTTPOption func(*HTTP)

// WithMaxBodySize sets the response body cap. Zero or negative means unlimited.
func WithMaxBodySize(n int64) HTTPOption {
	return func(h *HTTP) {
		h.maxBodySize = n
	}
}

// WithHTTPClient replaces the HTTP client. A nil client is ignored.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) HTTPOption {
	return func(h *HTTP) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHTTP creates an HTTP resolver for url
func NewHTTP(url string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		url:         url,
		client:      NewClient(Any, 30*time.Second),
		maxBodySize: DefaultMaxBodySize,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewClient builds the HTTP client used for resolution. The dialer is
// pinned to the given family so a dual-stack host can ask for a specific
// kind of public address.
func NewClient(family Family, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	network := family.Network()

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, _, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Resolve implements Resolver.
func (h *HTTP) Resolve(ctx context.Context) (netip.Addr, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := h.client.Do(req)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			h.logger.Debug("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	body, err := readLimited(resp.Body, h.maxBodySize)
	if err != nil {
		return netip.Addr{}, err
	}

	text := strings.TrimSpace(string(body))
	addr, err := netip.ParseAddr(text)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to parse IP address from response body: %w", err)
	}
	if addr.Zone() != "" {
		return netip.Addr{}, fmt.Errorf("failed to parse IP address from response body: unexpected zone %q", addr.Zone())
	}

	h.logger.Debug("Resolved IP address", zap.String("url", h.url), zap.Stringer("ip", addr))
	return addr, nil
}

// readLimited reads r chunk by chunk and fails as soon as the running total
// passes limit, so at most limit plus one chunk is ever read.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	var body []byte
	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if limit > 0 && int64(len(body)+n) > limit {
				return nil, fmt.Errorf("%w: read more than %d bytes", ErrBodyTooLarge, limit)
			}
			body = append(body, chunk[:n]...)
		}
		if errors.Is(err, io.EOF) {
			return body, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
	}
}
