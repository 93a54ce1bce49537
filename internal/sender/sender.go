// Package sender posts form-encoded requests to the gateway and classifies
// failures for endpoint failover.
package sender

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds one request, connection included.
const DefaultTimeout = 30 * time.Second

var ErrServerStatus = errors.New("gateway server error")

// Sender sends one request to one URL. ShouldRetry reports whether the last
// failed Send is worth repeating on another endpoint.
type Sender interface {
	Send(ctx context.Context, url string, form url.Values) ([]byte, error)
	ShouldRetry() bool
}

// HTTP is the production Sender. It is safe for concurrent use, but
// ShouldRetry only describes the most recent Send.
type HTTP struct {
	client  *http.Client
	logger  *zap.Logger
	metrics *Metrics

	mu          sync.Mutex
	shouldRetry bool
}

type Option func(*HTTP)

func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client. Its Timeout is kept as is.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(h *HTTP) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(h *HTTP) {
		h.metrics = m
	}
}

func NewHTTP(opts ...Option) *HTTP {
	h := &HTTP{
		client: &http.Client{Timeout: DefaultTimeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Send posts form to rawURL and returns the response body. Any body is
// returned for non-5xx statuses; the caller decides whether it is usable.
func (h *HTTP) Send(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	start := time.Now()
	host := hostOf(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		h.setRetry(false)
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, h.fail(host, start, fmt.Errorf("send request: %w", err))
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, h.fail(host, start, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		h.setRetry(true)
		h.metrics.observe(host, outcomeServerError)
		h.logger.Warn("gateway server error",
			zap.String("host", host),
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil, fmt.Errorf("%w: status %d", ErrServerStatus, resp.StatusCode)
	}

	h.setRetry(false)
	h.metrics.observe(host, outcomeOK)
	h.logger.Debug("gateway response",
		zap.String("host", host),
		zap.Int("status_code", resp.StatusCode),
		zap.Int("body_length", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}

// ShouldRetry is false after a timeout or cancellation: a slow remote will
// not get faster on a mirror.
func (h *HTTP) ShouldRetry() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shouldRetry
}

func (h *HTTP) fail(host string, start time.Time, err error) error {
	if IsTimeout(err) {
		h.setRetry(false)
		h.metrics.observe(host, outcomeTimeout)
		h.logger.Warn("gateway request timed out",
			zap.String("host", host),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
	h.setRetry(true)
	h.metrics.observe(host, outcomeError)
	h.logger.Warn("gateway request failed",
		zap.String("host", host),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return err
}

func (h *HTTP) setRetry(v bool) {
	h.mu.Lock()
	h.shouldRetry = v
	h.mu.Unlock()
}

// IsTimeout reports whether err is a deadline or cancellation rather than a
// connection-level failure.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
