// Package form builds signed HTML payment forms that post the customer's
// browser to the gateway's hosted payment page.
package form

import (
	"github.com/wakala/be2bill/internal/domain"
	"github.com/wakala/be2bill/internal/signing"
)

const DefaultVersion = "2.0"

type Client struct {
	creds    domain.Credentials
	renderer Renderer
	hasher   signing.Hasher
	version  string
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

func NewClient(creds domain.Credentials, renderer Renderer, opts ...Option) *Client {
	c := &Client{
		creds:    creds,
		renderer: renderer,
		hasher:   signing.Parameters{},
		version:  DefaultVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Hash(params domain.Params) string {
	return c.hasher.Sign(c.creds.Password, params)
}

// CheckHash verifies the parameters the gateway sends back when it
// redirects the customer to the merchant.
func (c *Client) CheckHash(params domain.Params) bool {
	return c.hasher.Verify(c.creds.Password, params)
}

// BuildPaymentFormButton renders a payment form. A schedule amount makes it
// an N-times payment.
func (c *Client) BuildPaymentFormButton(amount domain.Amount, orderID, clientIdent, description string, html HTMLOptions, opts domain.Params) (string, error) {
	p := clone(opts)
	amount.Apply(p)
	return c.buildProcessButton("payment", orderID, clientIdent, description, html, p, opts)
}

func (c *Client) BuildAuthorizationFormButton(amount int64, orderID, clientIdent, description string, html HTMLOptions, opts domain.Params) (string, error) {
	p := clone(opts)
	domain.Single(amount).Apply(p)
	return c.buildProcessButton("authorization", orderID, clientIdent, description, html, p, opts)
}

func (c *Client) buildProcessButton(op, orderID, clientIdent, description string, html HTMLOptions, p, opts domain.Params) (string, error) {
	return c.renderer.Render(c.sign(op, orderID, clientIdent, description, p, opts), html)
}

func (c *Client) sign(op, orderID, clientIdent, description string, p, opts domain.Params) domain.Params {
	p.SetString(domain.KeyOperationType, op)
	p.SetString(domain.KeyOrderID, orderID)
	p.SetString(domain.KeyClientIdent, clientIdent)
	p.SetString(domain.KeyDescription, description)
	p.SetString(domain.KeyIdentifier, c.creds.Identifier)
	if v, ok := opts.Get(domain.KeyVersion); ok {
		p.SetString(domain.KeyVersion, v)
	} else {
		p.SetString(domain.KeyVersion, c.version)
	}
	p.SetString(domain.KeyHash, c.Hash(p))
	return p
}

func clone(opts domain.Params) domain.Params {
	if opts == nil {
		return domain.Params{}
	}
	return opts.Clone()
}
