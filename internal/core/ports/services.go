package ports

import "context"

// SignatureService signs and verifies protocol envelopes. The signable
// material is method ++ uuid ++ canonical serialization of data; an absent
// method or uuid enters as the empty string.
type SignatureService interface {
	// Sign returns the base64 RSA signature over the signable material.
	Sign(method, uuid string, data map[string]any) (string, error)
	// Verify checks signature against the signable material. An absent
	// signature, malformed input or a crypto mismatch all return false;
	// Verify never panics on bad input.
	Verify(method, uuid string, data map[string]any, signature string) bool
}

// TransportResult is the raw outcome of an HTTPS POST. The status code
// alone never aborts a call: error pages reveal themselves by failing to
// parse as protocol output.
type TransportResult struct {
	StatusCode int
	Body       []byte
}

// Transport delivers serialized envelopes to the counterparty. A transport
// error covers unreachable hosts and non-clean TLS verification.
type Transport interface {
	Post(ctx context.Context, url string, body []byte) (*TransportResult, error)
}
