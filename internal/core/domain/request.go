// Package domain holds the envelope model for the signed JSON-RPC 1.1
// protocol: outbound requests, inbound responses, server-initiated
// notifications and their acknowledgements, plus the persisted records.
package domain

import (
	"encoding/json"

	"github.com/kurbar/trustly-go/pkg/canonical"
)

// Version is the only JSON-RPC version this client speaks. Messages tagged
// with anything else are rejected before any signature check.
const Version = "1.1"

// Outbound API method names.
const (
	MethodDeposit = "Deposit"
	MethodRefund  = "Refund"
)

// Request is an outbound signed envelope. The zero value is not usable;
// construct with NewRequest.
type Request struct {
	method string
	params map[string]any
}

// NewRequest builds an outbound envelope for method with optional data
// fields and method-specific attributes. Attributes nest under Data; empty
// sections collapse so they are omitted from the wire entirely.
func NewRequest(method string, data map[string]any, attributes map[string]any) *Request {
	r := &Request{
		method: method,
		params: map[string]any{},
	}

	for k, v := range data {
		r.SetData(k, v)
	}
	for k, v := range attributes {
		r.SetAttribute(k, v)
	}

	return r
}

// Method returns the envelope's method name.
func (r *Request) Method() string { return r.method }

// SetMethod replaces the envelope's method name.
func (r *Request) SetMethod(method string) { r.method = method }

// UUID returns the correlation id, or "" when none has been assigned yet.
func (r *Request) UUID() string {
	s, _ := r.params["UUID"].(string)
	return s
}

// SetUUID assigns the correlation id.
func (r *Request) SetUUID(uuid string) {
	r.params["UUID"] = canonical.EnsureUTF8(uuid)
}

// Signature returns the attached signature, or "" before signing.
func (r *Request) Signature() string {
	s, _ := r.params["Signature"].(string)
	return s
}

// SetSignature attaches the base64 signature at the params level.
func (r *Request) SetSignature(sig string) {
	r.params["Signature"] = sig
}

// Param returns an arbitrary top-level params entry.
func (r *Request) Param(name string) any {
	return r.params[name]
}

// SetParam sets an arbitrary top-level params entry.
func (r *Request) SetParam(name string, value any) {
	if s, ok := value.(string); ok {
		value = canonical.EnsureUTF8(s)
	}
	r.params[name] = value
}

// Data returns the Data section, or nil when none exists. The returned map
// is live: it is the exact structure that gets serialized and signed.
func (r *Request) Data() map[string]any {
	d, _ := r.params["Data"].(map[string]any)
	return d
}

// DataField returns a single Data entry.
func (r *Request) DataField(name string) any {
	return r.Data()[name]
}

// SetData sets a Data entry, creating the section on first use.
func (r *Request) SetData(name string, value any) {
	if s, ok := value.(string); ok {
		value = canonical.EnsureUTF8(s)
	}
	d := r.Data()
	if d == nil {
		d = map[string]any{}
		r.params["Data"] = d
	}
	d[name] = value
}

// Attribute returns a single nested Attributes entry.
func (r *Request) Attribute(name string) any {
	a, _ := r.Data()["Attributes"].(map[string]any)
	return a[name]
}

// SetAttribute sets a nested Attributes entry, creating Data and
// Attributes sections on first use.
func (r *Request) SetAttribute(name string, value any) {
	if s, ok := value.(string); ok {
		value = canonical.EnsureUTF8(s)
	}
	d := r.Data()
	if d == nil {
		d = map[string]any{}
		r.params["Data"] = d
	}
	a, _ := d["Attributes"].(map[string]any)
	if a == nil {
		a = map[string]any{}
		d["Attributes"] = a
	}
	a[name] = value
}

// MarshalJSON encodes the wire shape
// {method, version, params:{UUID, Signature, Data:{..., Attributes:{...}}}}.
// The Data section is vacuumed so an empty payload omits the key instead of
// sending {}.
func (r *Request) MarshalJSON() ([]byte, error) {
	params := make(map[string]any, len(r.params))
	for k, v := range r.params {
		if k == "Data" {
			if nv := canonical.Vacuum(v); nv != nil {
				params[k] = nv
			}
			continue
		}
		params[k] = v
	}

	return json.Marshal(map[string]any{
		"method":  r.method,
		"version": Version,
		"params":  params,
	})
}
