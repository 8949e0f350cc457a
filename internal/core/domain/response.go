package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kurbar/trustly-go/pkg/apperror"
)

// Response is a parsed synchronous reply to an outbound Request. Exactly
// one of the wire's result/error objects backs it; construction fails
// otherwise. A constructed Response is well-formed but NOT yet verified:
// the client checks its signature and correlation before handing it on.
type Response struct {
	statusCode int
	body       []byte
	payload    map[string]any
	result     map[string]any
	isError    bool
}

// ParseResponse parses a raw transport result into a Response.
//
// A body that is not valid JSON is a connectivity failure when the HTTP
// status is non-200 (the bytes are likely an error page, not protocol
// output) and a data failure otherwise. A parsed body must carry exactly
// one of result/error and be tagged version "1.1".
func ParseResponse(statusCode int, body []byte) (*Response, error) {
	payload, err := decodeObject(body)
	if err != nil {
		if statusCode != 0 && statusCode != 200 {
			return nil, apperror.ErrConnection(fmt.Sprintf("HTTP %d", statusCode), err)
		}
		return nil, apperror.ErrData("failed to decode JSON response", err)
	}

	r := &Response{
		statusCode: statusCode,
		body:       body,
		payload:    payload,
	}

	result, hasResult := payload["result"].(map[string]any)
	errObj, hasError := payload["error"].(map[string]any)
	switch {
	case hasResult && hasError:
		return nil, apperror.ErrData("both 'result' and 'error' in response", nil)
	case hasResult:
		r.result = result
	case hasError:
		r.result = errObj
		r.isError = true
	default:
		return nil, apperror.ErrData("no 'result' or 'error' in response", nil)
	}

	if v := stringValue(payload["version"]); v != Version {
		return nil, apperror.ErrVersion(v)
	}

	return r, nil
}

// IsError reports whether the reply carried the error envelope.
func (r *Response) IsError() bool { return r.isError }

// IsSuccess reports whether the reply carried the result envelope.
func (r *Response) IsSuccess() bool { return !r.isError }

// ErrorCode returns the error code, or "" on a success response.
func (r *Response) ErrorCode() string {
	if !r.isError {
		return ""
	}
	return stringValue(r.result["code"])
}

// ErrorMessage returns the error message, or "" on a success response.
func (r *Response) ErrorMessage() string {
	if !r.isError {
		return ""
	}
	return stringValue(r.result["message"])
}

// Result returns a field of the result/error object.
func (r *Response) Result(name string) any {
	return r.result[name]
}

// UUID returns the echoed correlation id.
func (r *Response) UUID() string {
	return stringValue(r.result["uuid"])
}

// Method returns the echoed method name.
func (r *Response) Method() string {
	return stringValue(r.result["method"])
}

// Signature returns the counterparty's signature, or "" when absent.
func (r *Response) Signature() string {
	return stringValue(r.result["signature"])
}

// Data returns the business payload, or nil when absent.
func (r *Response) Data() map[string]any {
	d, _ := r.result["data"].(map[string]any)
	return d
}

// DataField returns a single entry of the business payload.
func (r *Response) DataField(name string) any {
	return r.Data()[name]
}

// StatusCode returns the HTTP status the body arrived with.
func (r *Response) StatusCode() int { return r.statusCode }

// RawBody returns the exact bytes received from the transport.
func (r *Response) RawBody() []byte { return r.body }

// decodeObject parses body into a JSON object, keeping numbers as
// json.Number so canonical serialization sees the wire text unchanged.
func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// stringValue renders a payload scalar as a string the way it would be
// canonically serialized; non-scalars and nil render as "".
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
