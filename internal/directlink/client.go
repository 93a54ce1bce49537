// Package directlink builds, signs and sends server-to-server gateway
// operations.
package directlink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/wakala/be2bill/internal/domain"
	"github.com/wakala/be2bill/internal/sender"
	"github.com/wakala/be2bill/internal/signing"
)

const (
	DefaultVersion = "2.0"

	DirectLinkPath     = "/front/service/rest/process"
	ExportPath         = "/front/service/rest/export"
	ReconciliationPath = "/front/service/rest/reconciliation"

	DefaultCompression = "GZIP"
)

// ErrRequestFailed is returned when no endpoint produced a usable response.
var ErrRequestFailed = errors.New("request failed on every endpoint")

// Client talks to one merchant account over an ordered endpoint list.
type Client struct {
	creds     domain.Credentials
	endpoints domain.Endpoints
	sender    sender.Sender
	hasher    signing.Hasher
	version   string
	clock     clockz.Clock
	logger    *zap.Logger
}

type Option func(*Client)

func WithHasher(h signing.Hasher) Option {
	return func(c *Client) {
		if h != nil {
			c.hasher = h
		}
	}
}

func WithVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.version = v
		}
	}
}

func WithClock(clock clockz.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(creds domain.Credentials, endpoints domain.Endpoints, s sender.Sender, opts ...Option) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, domain.ErrNoEndpoints
	}
	if s == nil {
		return nil, errors.New("sender is required")
	}
	c := &Client{
		creds:     creds,
		endpoints: append(domain.Endpoints(nil), endpoints...),
		sender:    s,
		hasher:    signing.Parameters{},
		version:   DefaultVersion,
		clock:     clockz.RealClock,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Identifier() string {
	return c.creds.Identifier
}

// Hash signs params with the account password.
func (c *Client) Hash(params domain.Params) string {
	return c.hasher.Sign(c.creds.Password, params)
}

// CheckHash verifies a HASH received from the gateway, typically on a
// notification or a redirect back to the merchant.
func (c *Client) CheckHash(params domain.Params) bool {
	return c.hasher.Verify(c.creds.Password, params)
}

func (c *Client) SetVersion(v string) {
	c.version = v
}

func (c *Client) SetURLs(endpoints domain.Endpoints) error {
	if len(endpoints) == 0 {
		return domain.ErrNoEndpoints
	}
	c.endpoints = append(domain.Endpoints(nil), endpoints...)
	return nil
}

func (c *Client) DirectLinkURLs() []string {
	return c.endpoints.WithPath(DirectLinkPath)
}

func (c *Client) ExportURLs() []string {
	return c.endpoints.WithPath(ExportPath)
}

func (c *Client) ReconciliationURLs() []string {
	return c.endpoints.WithPath(ReconciliationPath)
}

// Requests sends params to each URL in order and returns the first decoded
// response. A failed attempt moves on to the next URL only when the sender
// reports the failure as transient.
func (c *Client) Requests(ctx context.Context, urls []string, params domain.Params) (domain.Result, error) {
	method, _ := params.Get(domain.KeyOperationType)
	form := params.Form(method)

	var lastErr error
	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := c.sender.Send(ctx, u, form)
		if err == nil {
			if res, ok := decode(body); ok {
				c.logger.Debug("gateway answered",
					zap.String("method", method),
					zap.String("url", u),
					zap.String("execcode", res.ExecCode()),
				)
				return res, nil
			}
			err = fmt.Errorf("undecodable response from %s", u)
		}
		lastErr = err

		if !c.sender.ShouldRetry() {
			c.logger.Warn("request failed, not retrying",
				zap.String("method", method),
				zap.String("url", u),
				zap.Error(err),
			)
			break
		}
		if i < len(urls)-1 {
			c.logger.Info("request failed, trying next endpoint",
				zap.String("method", method),
				zap.String("url", u),
				zap.Error(err),
			)
		}
	}
	if lastErr == nil {
		return nil, ErrRequestFailed
	}
	return nil, fmt.Errorf("%w: %v", ErrRequestFailed, lastErr)
}

// decode flattens a JSON object response. Nested members keep their raw
// JSON text. Empty, non-object and empty-object bodies are not usable.
func decode(body []byte) (domain.Result, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return nil, false
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, false
	}
	res := domain.Result{}
	parsed.ForEach(func(key, value gjson.Result) bool {
		if value.IsObject() || value.IsArray() {
			res[key.String()] = value.Raw
		} else {
			res[key.String()] = value.String()
		}
		return true
	})
	if len(res) == 0 {
		return nil, false
	}
	return res, true
}

// finalize applies the fields every operation shares and signs the result.
// IDENTIFIER always wins; VERSION only when the caller did not set one.
func (c *Client) finalize(params domain.Params, opts domain.Params) domain.Params {
	params.SetString(domain.KeyIdentifier, c.creds.Identifier)
	if v, ok := opts.Get(domain.KeyVersion); ok {
		params.SetString(domain.KeyVersion, v)
	} else {
		params.SetString(domain.KeyVersion, c.version)
	}
	params.SetString(domain.KeyHash, c.Hash(params))
	return params
}

// orderID returns id, or a generated "<tag>-<unix>-<8 hex>" when id is
// empty. The suffix is random, not unique.
func (c *Client) orderID(tag, id string) string {
	if id != "" {
		return id
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", tag, c.clock.Now().Unix(), suffix)
}
