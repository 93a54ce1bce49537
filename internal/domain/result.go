package domain

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
)

// Well-known result fields.
const (
	ResultExecCode = "EXECCODE"
	ResultMessage  = "MESSAGE"
	ResultRedirect = "REDIRECTHTML"

	// ExecCodeSuccess is returned by the gateway for accepted operations.
	ExecCodeSuccess = "0000"
)

// Result is the decoded gateway response. A nil Result means no endpoint
// produced a usable answer.
type Result map[string]string

func (r Result) Get(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

// Keys returns the result fields in ascending order.
func (r Result) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ErrNoRedirect is returned by RedirectHTML when the result carries none.
var ErrNoRedirect = errors.New("result has no REDIRECTHTML")

// RedirectHTML decodes the base64 REDIRECTHTML field returned by redirect
// and 3-D Secure payments: the markup that sends the customer to the
// payment page.
func (r Result) RedirectHTML() (string, error) {
	encoded, ok := r[ResultRedirect]
	if !ok || encoded == "" {
		return "", ErrNoRedirect
	}
	html, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", ResultRedirect, err)
	}
	return string(html), nil
}

func (r Result) ExecCode() string {
	return r[ResultExecCode]
}

func (r Result) Succeeded() bool {
	return r != nil && r.ExecCode() == ExecCodeSuccess
}

// Record is one batch line: CSV header names mapped to raw field values.
type Record map[string]string

func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of r.
func (r Record) Clone() Record {
	cp := make(Record, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}
