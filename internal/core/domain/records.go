package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is the persisted record of a received notification. The id
// comes from the counterparty and is unique across all time for an
// integration; a second delivery with the same id is a duplicate.
type Notification struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	Method    string    `json:"method"`
	Signature string    `json:"signature"`
	Payload   string    `json:"payload"` // Raw serialized body as received
	CreatedAt time.Time `json:"created_at"`
}

// SignatureAudit records one signature verification attempt on an inbound
// notification. Append-only: a forged message leaves a forensic trace even
// though processing halts on it.
type SignatureAudit struct {
	ID             uuid.UUID `json:"id"`
	EndUserID      string    `json:"end_user_id"`
	OrderID        string    `json:"order_id"` // Correlation id of the order
	NotificationID int64     `json:"notification_id"`
	BadSignature   bool      `json:"bad_signature"`
	CreatedAt      time.Time `json:"created_at"`
}
