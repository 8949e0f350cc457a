package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kurbar/trustly-go/internal/core/domain"
	"github.com/kurbar/trustly-go/internal/core/ports"
	"github.com/kurbar/trustly-go/pkg/apperror"
	"github.com/kurbar/trustly-go/pkg/canonical"
)

// Client makes signed outbound API calls. It holds no mutable state across
// calls beyond the injected collaborators, so a single Client is safe for
// concurrent use. Retry policy belongs to the caller; no call is retried
// internally.
type Client struct {
	url      string
	username string
	password string
	sigSvc   ports.SignatureService
	trans    ports.Transport
	log      zerolog.Logger
}

// NewClient creates an API client for the endpoint at url, authenticating
// as username/password.
func NewClient(url, username, password string, sigSvc ports.SignatureService, trans ports.Transport, log zerolog.Logger) *Client {
	return &Client{
		url:      url,
		username: username,
		password: password,
		sigSvc:   sigSvc,
		trans:    trans,
		log:      log,
	}
}

// Call executes one signed request/response round trip: assign a
// correlation id if the request has none, attach credentials and the
// signature, transmit, parse, verify the reply's signature and correlate
// it back to the request. Only a verified, correlated Response is ever
// returned.
func (c *Client) Call(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	if req.UUID() == "" {
		req.SetUUID(uuid.NewString())
	}

	if err := c.addCredentials(req); err != nil {
		return nil, apperror.ErrData("unable to add authorization parameters to outgoing request", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, apperror.ErrData("encoding request payload", err)
	}

	c.log.Debug().
		Str("url", c.url).
		Str("method", req.Method()).
		Str("uuid", req.UUID()).
		RawJSON("payload", payload).
		Msg("outgoing request")

	result, err := c.trans.Post(ctx, c.url, payload)
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("url", c.url).
		Int("status", result.StatusCode).
		Int("body_bytes", len(result.Body)).
		Msg("incoming response")

	resp, err := domain.ParseResponse(result.StatusCode, result.Body)
	if err != nil {
		return nil, err
	}

	if !c.sigSvc.Verify(resp.Method(), resp.UUID(), resp.Data(), resp.Signature()) {
		return nil, apperror.ErrSignature("incoming message signature is not valid", resp.Data())
	}

	if resp.UUID() != req.UUID() {
		return nil, apperror.ErrUUIDMismatch(req.UUID(), resp.UUID())
	}

	return resp, nil
}

// Deposit builds and executes a Deposit call.
func (c *Client) Deposit(ctx context.Context, d domain.Deposit) (*domain.Response, error) {
	return c.Call(ctx, d.Request())
}

// Refund builds and executes a Refund call.
func (c *Client) Refund(ctx context.Context, r domain.Refund) (*domain.Response, error) {
	return c.Call(ctx, r.Request())
}

// addCredentials injects the username and password into the data section,
// signs the envelope and attaches the signature. One atomic step: a
// signing failure leaves the request unusable for transmission.
func (c *Client) addCredentials(req *domain.Request) error {
	req.SetData("Username", c.username)
	req.SetData("Password", c.password)

	// Sign over the vacuumed data: the wire omits empty sections, so the
	// signable material must too.
	data, _ := canonical.Vacuum(req.Data()).(map[string]any)

	sig, err := c.sigSvc.Sign(req.Method(), req.UUID(), data)
	if err != nil {
		return apperror.ErrSigning(err)
	}

	req.SetSignature(sig)
	return nil
}
