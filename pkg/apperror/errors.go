// Package apperror defines the typed failure taxonomy shared by the API
// client and the notification verifier.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Connectivity (CONN) ----

// ErrConnection covers transport-level failures: unreachable host, a TLS
// certificate that does not verify cleanly, or an error page arriving
// where protocol output was expected.
func ErrConnection(message string, err error) *AppError {
	return Wrap("CONN_001", message, http.StatusBadGateway, err)
}

// ---- Data shape (DATA) ----

// ErrData covers malformed or missing JSON structure and shape violations.
func ErrData(message string, err error) *AppError {
	return Wrap("DATA_001", message, http.StatusBadRequest, err)
}

// ErrUUIDMismatch marks a validly signed response that does not belong to
// the request it arrived for, e.g. a stale or duplicate delivery.
func ErrUUIDMismatch(sent, received string) *AppError {
	return New("DATA_002",
		fmt.Sprintf("incoming message is not related to request: uuid mismatch (sent %q, received %q)", sent, received),
		http.StatusBadRequest)
}

// ErrDuplicateNotification marks a notification id already present in the
// store, as reported by the store's uniqueness constraint on insert.
func ErrDuplicateNotification(id int64) *AppError {
	return New("DATA_003", fmt.Sprintf("notification %d already persisted", id), http.StatusConflict)
}

// ---- Protocol version (RPC) ----

// ErrVersion marks a message tagged with a JSON-RPC version this client
// does not speak. Distinct from ErrData so callers can tell garbage from a
// newer protocol revision.
func ErrVersion(got string) *AppError {
	return New("RPC_001",
		fmt.Sprintf("JSON-RPC version %q is not supported, version 1.1 is required", got),
		http.StatusBadRequest)
}

// ---- Signature (SIG) ----

// SignatureError reports a message whose signature did not verify. It
// retains the unverified payload for forensic inspection only.
type SignatureError struct {
	AppError
	data map[string]any
}

// ErrSignature creates a SignatureError carrying the unverified data.
func ErrSignature(message string, data map[string]any) *SignatureError {
	return &SignatureError{
		AppError: AppError{Code: "SIG_001", Message: message, HTTPStatus: http.StatusUnauthorized},
		data:     data,
	}
}

// ErrSigning reports a failure to produce a signature on an outbound
// message, carrying the underlying crypto diagnostic.
func ErrSigning(err error) *AppError {
	return Wrap("SIG_002", "failed to sign outgoing message", http.StatusInternalServerError, err)
}

// BadData returns the payload whose signature did not verify. This is the
// only way to read data from a message with a bad signature. DEBUGGING
// ONLY: the contents are untrusted and must never drive business logic.
func (e *SignatureError) BadData() map[string]any {
	return e.data
}

// ---- Storage (SYS) ----

// ErrStorage wraps a persistence-layer failure.
func ErrStorage(message string, err error) *AppError {
	return Wrap("SYS_001", message, http.StatusInternalServerError, err)
}

// ---- Predicates ----

func is(err error, code string) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// IsConnection reports whether err is a connectivity failure.
func IsConnection(err error) bool { return is(err, "CONN_001") }

// IsData reports whether err is a data-shape failure of any kind.
func IsData(err error) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return strings.HasPrefix(ae.Code, "DATA")
	}
	return false
}

// IsVersion reports whether err is a protocol-version failure.
func IsVersion(err error) bool { return is(err, "RPC_001") }

// IsSignature reports whether err is a signature-verification failure.
func IsSignature(err error) bool {
	var se *SignatureError
	return errors.As(err, &se)
}

// IsDuplicate reports whether err marks an already-persisted notification.
func IsDuplicate(err error) bool { return is(err, "DATA_003") }
