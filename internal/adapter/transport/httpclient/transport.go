// Package httpclient implements the Transport port over net/http with
// certificate-validated TLS.
package httpclient

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kurbar/trustly-go/internal/core/ports"
	"github.com/kurbar/trustly-go/pkg/apperror"
)

// HTTPClient is the net/http surface the transport consumes, kept as an
// interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Transport posts serialized envelopes over HTTPS. TLS verification is
// never relaxed: a certificate that does not verify cleanly is a fatal
// connectivity error, surfaced with the certificate diagnostic.
type Transport struct {
	client HTTPClient
	log    zerolog.Logger
}

// New creates a transport with the given timeouts. connectTimeout bounds
// establishing the connection, TCP dial and TLS handshake each;
// overallTimeout bounds the whole round trip.
func New(connectTimeout, overallTimeout time.Duration, log zerolog.Logger) *Transport {
	return &Transport{
		client: &http.Client{
			Timeout: overallTimeout,
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
				TLSHandshakeTimeout:   connectTimeout,
				ResponseHeaderTimeout: overallTimeout,
			},
			// The protocol never redirects; following one would hand the
			// signed payload to an unintended host.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: log,
	}
}

// NewWithClient creates a transport over a caller-supplied HTTP client.
func NewWithClient(client HTTPClient, log zerolog.Logger) *Transport {
	return &Transport{client: client, log: log}
}

var _ ports.Transport = (*Transport)(nil)

// Post delivers body to url and returns the raw status and body. Any
// transport-level failure, TLS verification included, is a connectivity
// error; the HTTP status code alone never fails the call.
func (t *Transport) Post(ctx context.Context, url string, body []byte) (*ports.TransportResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperror.ErrConnection("building request", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := t.client.Do(req)
	if err != nil {
		var certErr *x509.CertificateInvalidError
		var unknownAuth x509.UnknownAuthorityError
		var hostErr x509.HostnameError
		if errors.As(err, &certErr) || errors.As(err, &unknownAuth) || errors.As(err, &hostErr) {
			return nil, apperror.ErrConnection("TLS certificate verification failed", err)
		}
		return nil, apperror.ErrConnection("failed to connect to the API", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.ErrConnection("reading response body", err)
	}

	t.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int("body_bytes", len(raw)).
		Msg("POST round trip")

	return &ports.TransportResult{StatusCode: resp.StatusCode, Body: raw}, nil
}
