package providers

import (
	"net/url"
	"strings"
)

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of query parameters. Unlike url.Values it keeps
// insertion order when encoded, so generated URLs are reproducible.
type Params []Param

// Set replaces the value of key in place, or appends it when absent.
func (p *Params) Set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Param{Key: key, Value: value})
}

// Get returns the value of key and whether it was present.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Merge sets every parameter of other on p, in other's order.
func (p *Params) Merge(other Params) {
	for _, kv := range other {
		p.Set(kv.Key, kv.Value)
	}
}

// Clone returns a copy that can be modified independently.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}

// Encode encodes the parameters in "URL encoded" form, in insertion order.
func (p Params) Encode() string {
	var sb strings.Builder
	for i, kv := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv.Value))
	}
	return sb.String()
}

// ParseParams parses "k=v,k2=v2" into ordered parameters. Malformed pairs are
// skipped.
func ParseParams(s string) Params {
	var params Params
	if s == "" {
		return params
	}
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 {
			key := strings.TrimSpace(kv[0])
			if key == "" {
				continue
			}
			params.Set(key, strings.TrimSpace(kv[1]))
		}
	}
	return params
}
