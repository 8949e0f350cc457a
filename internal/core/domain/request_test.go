package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest_WireShape(t *testing.T) {
	req := NewRequest(MethodDeposit,
		map[string]any{"EndUserID": "42", "MessageID": "m-1"},
		map[string]any{"Currency": "EUR"},
	)
	req.SetUUID("11111111-2222-4333-8444-555555555555")
	req.SetSignature("c2ln")

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var wire struct {
		Method  string `json:"method"`
		Version string `json:"version"`
		Params  struct {
			UUID      string `json:"UUID"`
			Signature string `json:"Signature"`
			Data      struct {
				EndUserID  string `json:"EndUserID"`
				MessageID  string `json:"MessageID"`
				Attributes struct {
					Currency string `json:"Currency"`
				} `json:"Attributes"`
			} `json:"Data"`
		} `json:"params"`
	}
	require.NoError(t, json.Unmarshal(raw, &wire))

	assert.Equal(t, "Deposit", wire.Method)
	assert.Equal(t, "1.1", wire.Version)
	assert.Equal(t, "11111111-2222-4333-8444-555555555555", wire.Params.UUID)
	assert.Equal(t, "c2ln", wire.Params.Signature)
	assert.Equal(t, "42", wire.Params.Data.EndUserID)
	assert.Equal(t, "EUR", wire.Params.Data.Attributes.Currency)
}

func TestNewRequest_EmptyDataOmitted(t *testing.T) {
	req := NewRequest("Ping", nil, nil)
	req.SetUUID("u-1")

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))

	params := wire["params"].(map[string]any)
	_, hasData := params["Data"]
	assert.False(t, hasData, "empty Data section must be omitted, not sent as {}")
}

func TestRequest_Accessors(t *testing.T) {
	req := NewRequest(MethodRefund, nil, nil)

	assert.Equal(t, "Refund", req.Method())
	assert.Empty(t, req.UUID())

	req.SetData("OrderID", "123")
	assert.Equal(t, "123", req.DataField("OrderID"))

	req.SetAttribute("Country", "FI")
	assert.Equal(t, "FI", req.Attribute("Country"))

	req.SetParam("Custom", "x")
	assert.Equal(t, "x", req.Param("Custom"))

	req.SetMethod("Charge")
	assert.Equal(t, "Charge", req.Method())
}

func TestRequest_NormalizesLegacyEncoding(t *testing.T) {
	req := NewRequest(MethodDeposit, nil, nil)

	// "päivää" in ISO-8859-1 bytes.
	req.SetData("Firstname", string([]byte{'p', 0xE4, 'i', 'v', 0xE4, 0xE4}))
	assert.Equal(t, "päivää", req.DataField("Firstname"))
}

func TestDeposit_Request(t *testing.T) {
	req := Deposit{
		NotificationURL: "https://x/n",
		EndUserID:       "42",
		MessageID:       "m-1",
		Currency:        "EUR",
		Amount:          "10.00",
		Country:         "FI",
	}.Request()

	assert.Equal(t, MethodDeposit, req.Method())
	assert.Equal(t, "https://x/n", req.DataField("NotificationURL"))
	assert.Equal(t, "10.00", req.Attribute("Amount"))

	// Unset builder fields stay off the envelope entirely.
	assert.Nil(t, req.Attribute("Email"))
	_, hasEmail := req.Data()["Attributes"].(map[string]any)["Email"]
	assert.False(t, hasEmail)
}

func TestRefund_Request(t *testing.T) {
	req := Refund{OrderID: "o-9", Amount: "5.00", Currency: "EUR"}.Request()

	assert.Equal(t, MethodRefund, req.Method())
	assert.Equal(t, "o-9", req.DataField("OrderID"))
	assert.Nil(t, req.Data()["Attributes"])
}
