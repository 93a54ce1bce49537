package domain

import (
	"net/url"
	"sort"
	"strings"
)

// Well-known parameter names.
const (
	KeyHash            = "HASH"
	KeyIdentifier      = "IDENTIFIER"
	KeyOperationType   = "OPERATIONTYPE"
	KeyVersion         = "VERSION"
	KeyAmount          = "AMOUNT"
	KeyAmounts         = "AMOUNTS"
	KeyOrderID         = "ORDERID"
	KeyTransactionID   = "TRANSACTIONID"
	KeyDescription     = "DESCRIPTION"
	KeyClientIdent     = "CLIENTIDENT"
	KeyClientEmail     = "CLIENTEMAIL"
	KeyClientIP        = "CLIENTIP"
	KeyClientUserAgent = "CLIENTUSERAGENT"
	KeyCardCode        = "CARDCODE"
	KeyCardValidity    = "CARDVALIDITYDATE"
	KeyCardCVV         = "CARDCVV"
	KeyCardFullName    = "CARDFULLNAME"
	KeyAlias           = "ALIAS"
	KeyAliasMode       = "ALIASMODE"
	KeyScheduleID      = "SCHEDULEID"
	KeyCompression     = "COMPRESSION"
	KeyCallbackURL     = "CALLBACKURL"
	KeyMailTo          = "MAILTO"
	KeyDate            = "DATE"
	KeyStartDate       = "STARTDATE"
	KeyEndDate         = "ENDDATE"
)

// Params is the key-value bag describing one gateway call.
type Params map[string]Value

// ParamsFromRecord converts a batch record into scalar parameters.
func ParamsFromRecord(r Record) Params {
	p := make(Params, len(r))
	for k, v := range r {
		p[k] = String(v)
	}
	return p
}

// ParseForm rebuilds parameters from decoded form or query values. Keys in
// bracket notation (AMOUNTS[2014-01-01]) become nested values; only the
// first value of repeated keys is kept.
func ParseForm(values url.Values) Params {
	p := make(Params, len(values))
	nested := make(map[string]map[string]string)
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		if open := strings.IndexByte(key, '['); open > 0 && strings.HasSuffix(key, "]") {
			name, sub := key[:open], key[open+1:len(key)-1]
			if nested[name] == nil {
				nested[name] = make(map[string]string)
			}
			nested[name][sub] = vals[0]
			continue
		}
		p[key] = String(vals[0])
	}
	for name, entries := range nested {
		p[name] = Nested(entries)
	}
	return p
}

func (p Params) Set(key string, v Value) {
	p[key] = v
}

func (p Params) SetString(key, s string) {
	p[key] = String(s)
}

// Get returns the scalar text stored under key. Nested values report false.
func (p Params) Get(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v.IsNested() {
		return "", false
	}
	return v.String(), true
}

func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	cp := make(Params, len(p))
	for k, v := range p {
		if v.IsNested() {
			cp[k] = Nested(v.nested)
			continue
		}
		cp[k] = v
	}
	return cp
}

// Keys returns the top-level keys in ascending byte order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Form encodes the request body sent to the gateway: the operation name as
// "method" and every parameter under "params" using bracket notation.
func (p Params) Form(method string) url.Values {
	form := url.Values{}
	form.Set("method", method)
	for _, key := range p.Keys() {
		v := p[key]
		if v.IsNested() {
			for _, sub := range v.SubKeys() {
				form.Set("params["+key+"]["+sub+"]", v.nested[sub])
			}
			continue
		}
		form.Set("params["+key+"]", v.String())
	}
	return form
}
