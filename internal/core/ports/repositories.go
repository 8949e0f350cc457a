package ports

import (
	"context"
	"time"

	"github.com/kurbar/trustly-go/internal/core/domain"
)

// NotificationRepository persists received notifications and the
// signature-audit trail. The store enforces notification-id uniqueness;
// InsertNotification reports a conflicting insert as a duplicate.
type NotificationRepository interface {
	NotificationExists(ctx context.Context, id int64) (bool, error)
	InsertNotification(ctx context.Context, n *domain.Notification) error
	InsertSignatureAudit(ctx context.Context, a *domain.SignatureAudit) error
}

// DuplicateCache is the fast-path duplicate check in front of the
// repository. Best effort: a cache miss or error falls through to the
// authoritative store.
type DuplicateCache interface {
	// Seen reports whether the notification id was recently observed.
	Seen(ctx context.Context, id int64) (bool, error)
	// MarkSeen records the notification id with a TTL.
	MarkSeen(ctx context.Context, id int64, ttl time.Duration) error
}
