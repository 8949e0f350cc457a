package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurbar/trustly-go/internal/core/domain"
	"github.com/kurbar/trustly-go/pkg/apperror"
)

func sampleNotification() *domain.Notification {
	return &domain.Notification{
		ID:        1234567890,
		UUID:      "258a2184-2842-b485-25ca-293525152425",
		Method:    "credit",
		Signature: "R9+hjuMqbsH0Ku...",
		Payload:   `{"method":"credit","version":"1.1"}`,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestNotificationRepo_NotificationExists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewNotificationRepo(mock)

	mock.ExpectQuery("SELECT COUNT\\(id\\) FROM notifications WHERE id").
		WithArgs(int64(1234567890)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

	exists, err := repo.NotificationExists(context.Background(), 1234567890)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepo_NotificationExists_Fresh(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewNotificationRepo(mock)

	mock.ExpectQuery("SELECT COUNT\\(id\\) FROM notifications WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

	exists, err := repo.NotificationExists(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepo_InsertNotification(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewNotificationRepo(mock)
	n := sampleNotification()

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(n.ID, n.UUID, n.Method, n.Signature, n.Payload, n.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.InsertNotification(context.Background(), n)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepo_InsertNotification_DuplicateKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewNotificationRepo(mock)
	n := sampleNotification()

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(n.ID, n.UUID, n.Method, n.Signature, n.Payload, n.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "notifications_pkey"})

	err = repo.InsertNotification(context.Background(), n)
	assert.True(t, apperror.IsDuplicate(err), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepo_InsertNotification_OtherError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewNotificationRepo(mock)
	n := sampleNotification()

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(n.ID, n.UUID, n.Method, n.Signature, n.Payload, n.CreatedAt).
		WillReturnError(errors.New("connection reset"))

	err = repo.InsertNotification(context.Background(), n)
	require.Error(t, err)
	assert.False(t, apperror.IsDuplicate(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepo_InsertSignatureAudit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewNotificationRepo(mock)
	a := &domain.SignatureAudit{
		ID:             uuid.New(),
		EndUserID:      "user-1",
		OrderID:        "ord-1",
		NotificationID: 1234567890,
		BadSignature:   true,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectExec("INSERT INTO signature_audits").
		WithArgs(a.ID, a.EndUserID, a.OrderID, a.NotificationID, a.BadSignature, a.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.InsertSignatureAudit(context.Background(), a)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
