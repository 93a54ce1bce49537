package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoEndpoints = errors.New("at least one endpoint is required")

// Credentials identify the merchant account. The password is only ever used
// as the signing secret and is never sent on the wire.
type Credentials struct {
	Identifier string
	Password   string
}

// String hides the password.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Identifier: %q}", c.Identifier)
}

// Endpoints is an ordered list of equivalent base URLs. Order is failover
// priority.
type Endpoints []string

func NewEndpoints(urls ...string) (Endpoints, error) {
	var e Endpoints
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		e = append(e, u)
	}
	if len(e) == 0 {
		return nil, ErrNoEndpoints
	}
	return e, nil
}

// WithPath appends path to every base URL.
func (e Endpoints) WithPath(path string) []string {
	urls := make([]string, len(e))
	for i, base := range e {
		urls[i] = base + path
	}
	return urls
}

// Reversed returns a copy with the opposite priority.
func (e Endpoints) Reversed() Endpoints {
	out := make(Endpoints, len(e))
	for i, u := range e {
		out[len(e)-1-i] = u
	}
	return out
}
