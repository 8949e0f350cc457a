package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kurbar/trustly-go/internal/core/domain"
	"github.com/kurbar/trustly-go/internal/core/ports"
	"github.com/kurbar/trustly-go/pkg/apperror"
)

// Pool is the pgxpool surface the repositories consume, kept as an
// interface so pgxmock can stand in during tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NotificationRepo implements ports.NotificationRepository. All queries
// are parameterized; notification fields never reach the SQL text.
type NotificationRepo struct {
	pool Pool
}

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(pool Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

var _ ports.NotificationRepository = (*NotificationRepo)(nil)

// NotificationExists reports whether a notification with this id was
// already persisted.
func (r *NotificationRepo) NotificationExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(id) FROM notifications WHERE id = $1`, id,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking notification %d: %w", id, err)
	}
	return count > 0, nil
}

// InsertNotification persists a received notification. The primary key on
// id makes the insert the authoritative duplicate gate: a unique violation
// is reported as a duplicate, not a storage failure.
func (r *NotificationRepo) InsertNotification(ctx context.Context, n *domain.Notification) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (id, uuid, method, signature, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.UUID, n.Method, n.Signature, n.Payload, n.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.ErrDuplicateNotification(n.ID)
		}
		return fmt.Errorf("insert notification %d: %w", n.ID, err)
	}
	return nil
}

// InsertSignatureAudit appends one verification-attempt row. Rows are
// never updated or deleted.
func (r *NotificationRepo) InsertSignatureAudit(ctx context.Context, a *domain.SignatureAudit) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO signature_audits (id, end_user_id, order_id, notification_id, bad_signature, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.EndUserID, a.OrderID, a.NotificationID, a.BadSignature, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert signature audit for notification %d: %w", a.NotificationID, err)
	}
	return nil
}
