// Package signing implements the gateway's HASH parameter: a SHA-256 digest
// over the secret and the canonically ordered parameters.
package signing

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/wakala/be2bill/internal/domain"
)

// Hasher computes and checks HASH values.
type Hasher interface {
	Sign(secret string, params domain.Params) string
	Verify(secret string, params domain.Params) bool
}

// Parameters is the default Hasher.
type Parameters struct{}

func (Parameters) Sign(secret string, params domain.Params) string {
	return Sign(secret, params)
}

func (Parameters) Verify(secret string, params domain.Params) bool {
	return Verify(secret, params)
}

// Sign returns the lowercase hex SHA-256 of
//
//	secret + KEY=value+secret ... + KEY[sub]=value+secret ...
//
// with keys and sub-keys in ascending byte order. The HASH key itself is
// never part of the input. Values are not escaped: '=' and '[...]' are the
// only separators, and the remote side computes the same string.
func Sign(secret string, params domain.Params) string {
	var b strings.Builder
	b.WriteString(secret)

	for _, key := range params.Keys() {
		if key == domain.KeyHash {
			continue
		}
		v := params[key]
		if v.IsNested() {
			for _, sub := range v.SubKeys() {
				val, _ := v.Sub(sub)
				b.WriteString(key)
				b.WriteByte('[')
				b.WriteString(sub)
				b.WriteString("]=")
				b.WriteString(val)
				b.WriteString(secret)
			}
			continue
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(v.String())
		b.WriteString(secret)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the digest of params and compares it with the HASH they
// carry. A missing HASH is a mismatch, not an error.
func Verify(secret string, params domain.Params) bool {
	received, ok := params.Get(domain.KeyHash)
	if !ok {
		return false
	}
	expected := Sign(secret, params)
	return subtle.ConstantTimeCompare([]byte(received), []byte(expected)) == 1
}
