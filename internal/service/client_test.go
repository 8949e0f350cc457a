package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurbar/trustly-go/internal/core/domain"
	"github.com/kurbar/trustly-go/internal/core/ports"
	"github.com/kurbar/trustly-go/pkg/apperror"
	"github.com/kurbar/trustly-go/pkg/logger"
)

// fakeTransport scripts the counterparty side of a call.
type fakeTransport struct {
	respond  func(body []byte) (*ports.TransportResult, error)
	lastBody []byte
}

func (f *fakeTransport) Post(ctx context.Context, url string, body []byte) (*ports.TransportResult, error) {
	f.lastBody = body
	return f.respond(body)
}

// clientHarness wires a client against a scripted counterparty. The
// merchant and counterparty have distinct key pairs, as in production.
type clientHarness struct {
	client       *Client
	transport    *fakeTransport
	merchantSvc  *RSASignatureService // verifies what the client sent
	counterparty *RSASignatureService // signs what the server answers
}

func newClientHarness(t *testing.T) *clientHarness {
	t.Helper()

	merchantKey := testKeyPair(t)
	counterpartyKey := testKeyPair(t)

	// The client signs with the merchant private key and verifies
	// responses against the counterparty public key.
	clientSvc := NewRSASignatureServiceFromKeys(merchantKey, &counterpartyKey.PublicKey)
	// The scripted server signs with the counterparty private key; for
	// assertions it verifies client traffic against the merchant public.
	serverSvc := NewRSASignatureServiceFromKeys(counterpartyKey, &merchantKey.PublicKey)

	tr := &fakeTransport{}
	log := logger.NewWithWriter("error", testWriter{})

	return &clientHarness{
		client:       NewClient("https://api.example/1", "merchant", "hunter2", clientSvc, tr, log),
		transport:    tr,
		merchantSvc:  serverSvc,
		counterparty: serverSvc,
	}
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

// sentRequest decodes what the client put on the wire.
func (h *clientHarness) sentRequest(t *testing.T) (method, uuid, signature string, data map[string]any) {
	t.Helper()

	var wire struct {
		Method string `json:"method"`
		Params struct {
			UUID      string          `json:"UUID"`
			Signature string          `json:"Signature"`
			Data      json.RawMessage `json:"Data"`
		} `json:"params"`
	}
	require.NoError(t, json.Unmarshal(h.transport.lastBody, &wire))

	if len(wire.Params.Data) > 0 {
		dec := json.NewDecoder(bytes.NewReader(wire.Params.Data))
		dec.UseNumber()
		require.NoError(t, dec.Decode(&data))
	}
	return wire.Method, wire.Params.UUID, wire.Params.Signature, data
}

// signedResponse builds a correctly signed success body echoing uuid.
func (h *clientHarness) signedResponse(t *testing.T, method, uuid string, data map[string]any) []byte {
	t.Helper()

	sig, err := h.counterparty.Sign(method, uuid, data)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]any{
		"version": "1.1",
		"result": map[string]any{
			"uuid":      uuid,
			"method":    method,
			"signature": sig,
			"data":      data,
		},
	})
	require.NoError(t, err)
	return body
}

func TestClient_Call_HappyPath(t *testing.T) {
	h := newClientHarness(t)

	h.transport.respond = func(reqBody []byte) (*ports.TransportResult, error) {
		method, uuid, _, _ := h.sentRequest(t)
		body := h.signedResponse(t, method, uuid, map[string]any{"orderid": "987"})
		return &ports.TransportResult{StatusCode: 200, Body: body}, nil
	}

	req := domain.Deposit{
		NotificationURL: "https://x/n",
		EndUserID:       "42",
		MessageID:       "m-1",
		Currency:        "EUR",
		Amount:          "10.00",
	}.Request()

	resp, err := h.client.Call(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "987", resp.DataField("orderid"))
	assert.Equal(t, req.UUID(), resp.UUID())
}

func TestClient_Call_AssignsUUID(t *testing.T) {
	h := newClientHarness(t)
	h.transport.respond = func(reqBody []byte) (*ports.TransportResult, error) {
		method, uuid, _, _ := h.sentRequest(t)
		return &ports.TransportResult{StatusCode: 200, Body: h.signedResponse(t, method, uuid, nil)}, nil
	}

	req := domain.NewRequest(domain.MethodDeposit, map[string]any{"EndUserID": "42"}, nil)
	require.Empty(t, req.UUID())

	_, err := h.client.Call(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, req.UUID(), "client must assign a correlation id when the request has none")
}

func TestClient_Call_AttachesSignedCredentials(t *testing.T) {
	h := newClientHarness(t)
	h.transport.respond = func(reqBody []byte) (*ports.TransportResult, error) {
		method, uuid, _, _ := h.sentRequest(t)
		return &ports.TransportResult{StatusCode: 200, Body: h.signedResponse(t, method, uuid, nil)}, nil
	}

	req := domain.Refund{OrderID: "o-1", Amount: "5.00", Currency: "EUR"}.Request()
	_, err := h.client.Call(context.Background(), req)
	require.NoError(t, err)

	method, uuid, signature, data := h.sentRequest(t)
	assert.Equal(t, "Refund", method)
	assert.Equal(t, "merchant", data["Username"])
	assert.Equal(t, "hunter2", data["Password"])
	assert.True(t, h.merchantSvc.Verify(method, uuid, data, signature),
		"outgoing request must carry a signature valid under the merchant key")
}

func TestClient_Call_RejectsBadSignature(t *testing.T) {
	h := newClientHarness(t)
	h.transport.respond = func(reqBody []byte) (*ports.TransportResult, error) {
		method, uuid, _, _ := h.sentRequest(t)
		body := h.signedResponse(t, method, uuid, map[string]any{"amount": "10.00"})
		// Tamper after signing.
		tampered := bytes.ReplaceAll(body, []byte(`"10.00"`), []byte(`"99.00"`))
		return &ports.TransportResult{StatusCode: 200, Body: tampered}, nil
	}

	req := domain.NewRequest(domain.MethodDeposit, map[string]any{"EndUserID": "42"}, nil)
	_, err := h.client.Call(context.Background(), req)

	require.True(t, apperror.IsSignature(err), "got %v", err)

	var se *apperror.SignatureError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "99.00", se.BadData()["amount"],
		"the unverified payload must be reachable for diagnostics")
}

func TestClient_Call_RejectsUUIDMismatch(t *testing.T) {
	h := newClientHarness(t)
	h.transport.respond = func(reqBody []byte) (*ports.TransportResult, error) {
		method, _, _, _ := h.sentRequest(t)
		// Correctly signed, but for a different correlation id.
		body := h.signedResponse(t, method, "someone-elses-uuid", nil)
		return &ports.TransportResult{StatusCode: 200, Body: body}, nil
	}

	req := domain.NewRequest(domain.MethodDeposit, map[string]any{"EndUserID": "42"}, nil)
	_, err := h.client.Call(context.Background(), req)

	// Distinct from a signature failure: the message is validly signed,
	// it is just not ours.
	assert.True(t, apperror.IsData(err), "got %v", err)
	assert.False(t, apperror.IsSignature(err))
}

func TestClient_Call_ConnectivityFailurePropagates(t *testing.T) {
	h := newClientHarness(t)
	h.transport.respond = func(reqBody []byte) (*ports.TransportResult, error) {
		return nil, apperror.ErrConnection("failed to connect to the API", nil)
	}

	req := domain.NewRequest(domain.MethodDeposit, nil, nil)
	_, err := h.client.Call(context.Background(), req)
	assert.True(t, apperror.IsConnection(err), "got %v", err)
}

func TestClient_Call_ErrorPageOnNon200(t *testing.T) {
	h := newClientHarness(t)
	h.transport.respond = func(reqBody []byte) (*ports.TransportResult, error) {
		return &ports.TransportResult{StatusCode: 503, Body: []byte("<html>maintenance</html>")}, nil
	}

	req := domain.NewRequest(domain.MethodDeposit, nil, nil)
	_, err := h.client.Call(context.Background(), req)
	assert.True(t, apperror.IsConnection(err), "got %v", err)
}

func TestClient_Call_VersionDrift(t *testing.T) {
	h := newClientHarness(t)
	h.transport.respond = func(reqBody []byte) (*ports.TransportResult, error) {
		body := []byte(`{"version":"2.0","result":{"uuid":"u","method":"Deposit","signature":"s","data":{}}}`)
		return &ports.TransportResult{StatusCode: 200, Body: body}, nil
	}

	req := domain.NewRequest(domain.MethodDeposit, nil, nil)
	_, err := h.client.Call(context.Background(), req)
	assert.True(t, apperror.IsVersion(err), "got %v", err)
}
