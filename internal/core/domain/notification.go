package domain

import (
	"encoding/json"
	"strconv"

	"github.com/kurbar/trustly-go/pkg/apperror"
)

// Notification methods the counterparty sends.
const (
	// MethodPending fires when the end-user has completed the payment
	// process but the money has not yet been received.
	MethodPending = "pending"
	// MethodCredit fires when the end-user's balance should be increased,
	// e.g. a settled deposit or a cancelled withdrawal.
	MethodCredit = "credit"
	// MethodDebit fires when the end-user's balance should be decreased,
	// e.g. a disputed deposit.
	MethodDebit = "debit"
	// MethodCancel fires when the order was cancelled by the end-user.
	MethodCancel = "cancel"
)

// NotificationRequest is a parsed inbound server-initiated message. The
// parse checks shape and protocol version only; signature verification is
// the verifier's job and nothing here may be trusted before it runs.
type NotificationRequest struct {
	raw     []byte
	payload map[string]any
}

// ParseNotification parses a raw inbound body. An empty or non-JSON body
// is a data failure; a version other than "1.1" is a version failure so
// callers can tell garbage from a protocol revision this client does not
// speak.
func ParseNotification(body []byte) (*NotificationRequest, error) {
	if len(body) == 0 {
		return nil, apperror.ErrData("empty notification body", nil)
	}

	payload, err := decodeObject(body)
	if err != nil {
		return nil, apperror.ErrData("failed to parse notification JSON", err)
	}

	n := &NotificationRequest{raw: body, payload: payload}

	if v := n.Version(); v != Version {
		return nil, apperror.ErrVersion(v)
	}

	return n, nil
}

// Method returns the notification method (pending, credit, debit, cancel).
func (n *NotificationRequest) Method() string {
	return stringValue(n.payload["method"])
}

// Version returns the message's JSON-RPC version tag.
func (n *NotificationRequest) Version() string {
	return stringValue(n.payload["version"])
}

// Params returns the params object, or nil when absent.
func (n *NotificationRequest) Params() map[string]any {
	p, _ := n.payload["params"].(map[string]any)
	return p
}

// UUID returns the correlation id from params.
func (n *NotificationRequest) UUID() string {
	return stringValue(n.Params()["uuid"])
}

// Signature returns the counterparty's signature from params.
func (n *NotificationRequest) Signature() string {
	return stringValue(n.Params()["signature"])
}

// Data returns the business payload, or nil when absent.
func (n *NotificationRequest) Data() map[string]any {
	d, _ := n.Params()["data"].(map[string]any)
	return d
}

// DataField returns a single entry of the business payload as its wire
// string form.
func (n *NotificationRequest) DataField(name string) string {
	return stringValue(n.Data()[name])
}

// NotificationID returns the numeric notification id, unique across all
// time for an integration. A missing or non-numeric id is a data failure.
func (n *NotificationRequest) NotificationID() (int64, error) {
	raw := n.DataField("notificationid")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.ErrData("notification id is missing or not numeric", err)
	}
	return id, nil
}

// IsPending reports whether this is a pending notification.
func (n *NotificationRequest) IsPending() bool { return n.Method() == MethodPending }

// IsCredit reports whether this is a credit notification.
func (n *NotificationRequest) IsCredit() bool { return n.Method() == MethodCredit }

// IsDebit reports whether this is a debit notification.
func (n *NotificationRequest) IsDebit() bool { return n.Method() == MethodDebit }

// IsCancel reports whether this is a cancel notification.
func (n *NotificationRequest) IsCancel() bool { return n.Method() == MethodCancel }

// RawBody returns the exact bytes received, retained for persistence.
func (n *NotificationRequest) RawBody() []byte { return n.raw }

// NotificationResponse is the outbound acknowledgement for an inbound
// notification. It copies the correlation id and method from the
// triggering request and carries data.status OK/FAILED. It must be signed
// before transmission; an unsigned acknowledgement is never sent.
type NotificationResponse struct {
	result map[string]any
}

// NewNotificationResponse builds the acknowledgement for req.
func NewNotificationResponse(req *NotificationRequest, success bool) *NotificationResponse {
	status := "OK"
	if !success {
		status = "FAILED"
	}

	r := &NotificationResponse{result: map[string]any{
		"data": map[string]any{"status": status},
	}}
	if uuid := req.UUID(); uuid != "" {
		r.result["uuid"] = uuid
	}
	if method := req.Method(); method != "" {
		r.result["method"] = method
	}
	return r
}

// UUID returns the echoed correlation id.
func (r *NotificationResponse) UUID() string {
	return stringValue(r.result["uuid"])
}

// Method returns the echoed method name.
func (r *NotificationResponse) Method() string {
	return stringValue(r.result["method"])
}

// Data returns the acknowledgement payload (the status field).
func (r *NotificationResponse) Data() map[string]any {
	d, _ := r.result["data"].(map[string]any)
	return d
}

// Signature returns the attached signature, or "" before signing.
func (r *NotificationResponse) Signature() string {
	return stringValue(r.result["signature"])
}

// SetSignature attaches the base64 signature.
func (r *NotificationResponse) SetSignature(sig string) {
	r.result["signature"] = sig
}

// MarshalJSON encodes {version, result:{uuid, method, signature, data:{status}}}.
func (r *NotificationResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"version": Version,
		"result":  r.result,
	})
}
