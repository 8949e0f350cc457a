package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kurbar/trustly-go/internal/core/domain"
	"github.com/kurbar/trustly-go/internal/core/ports"
	"github.com/kurbar/trustly-go/pkg/apperror"
)

// dupCacheTTL bounds the redis fast-path entries; the store stays the
// authority for all time.
const dupCacheTTL = 24 * time.Hour

// NotificationService verifies inbound server-initiated notifications,
// keeps the signature-audit trail, deduplicates deliveries and produces
// signed acknowledgements. The counterparty delivers at-least-once, so the
// consumer side must stay idempotent.
type NotificationService struct {
	repo   ports.NotificationRepository
	cache  ports.DuplicateCache
	sigSvc ports.SignatureService
	log    zerolog.Logger
}

// NewNotificationService creates a notification verifier. cache may be nil
// to skip the fast-path duplicate check.
func NewNotificationService(repo ports.NotificationRepository, cache ports.DuplicateCache, sigSvc ports.SignatureService, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		cache:  cache,
		sigSvc: sigSvc,
		log:    log,
	}
}

// Verify checks the notification's signature and records a signature-audit
// row whether or not it verifies, so a forged message leaves a forensic
// trace even though processing halts on it. An invalid signature returns a
// SignatureError carrying the unverified data.
func (s *NotificationService) Verify(ctx context.Context, req *domain.NotificationRequest) error {
	id, err := req.NotificationID()
	if err != nil {
		return err
	}

	valid := s.sigSvc.Verify(req.Method(), req.UUID(), req.Data(), req.Signature())

	audit := &domain.SignatureAudit{
		ID:             uuid.New(),
		EndUserID:      req.DataField("enduserid"),
		OrderID:        req.DataField("orderid"),
		NotificationID: id,
		BadSignature:   !valid,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.InsertSignatureAudit(ctx, audit); err != nil {
		// The audit trail must not block processing when storage is down.
		s.log.Warn().Err(err).
			Int64("notification_id", id).
			Bool("bad_signature", !valid).
			Msg("signature audit write failed")
	}

	if !valid {
		return apperror.ErrSignature("incoming notification signature is not valid", req.Data())
	}
	return nil
}

// IsDuplicate reports whether the notification id has been seen before.
// The redis fast path is consulted first; the store is the authority. A
// storage read error is logged and treated as not-duplicate: dedupe never
// blocks processing on storage being unavailable.
func (s *NotificationService) IsDuplicate(ctx context.Context, req *domain.NotificationRequest) bool {
	id, err := req.NotificationID()
	if err != nil {
		s.log.Warn().Err(err).Msg("duplicate check skipped, no numeric notification id")
		return false
	}

	if s.cache != nil {
		seen, err := s.cache.Seen(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Int64("notification_id", id).Msg("duplicate cache read failed")
		} else if seen {
			return true
		}
	}

	exists, err := s.repo.NotificationExists(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Int64("notification_id", id).Msg("duplicate check failed, assuming not duplicate")
		return false
	}
	return exists
}

// Save persists the notification. The store's uniqueness constraint on the
// id is the real exactly-once guard: two concurrent deliveries can both
// pass IsDuplicate, but only one insert wins and the loser is reported as
// a duplicate. A failure here does not undo completed verification.
func (s *NotificationService) Save(ctx context.Context, req *domain.NotificationRequest) error {
	id, err := req.NotificationID()
	if err != nil {
		return err
	}

	n := &domain.Notification{
		ID:        id,
		UUID:      req.UUID(),
		Method:    req.Method(),
		Signature: req.Signature(),
		Payload:   string(req.RawBody()),
		CreatedAt: time.Now(),
	}
	if err := s.repo.InsertNotification(ctx, n); err != nil {
		if apperror.IsDuplicate(err) {
			return err
		}
		return apperror.ErrStorage("persisting notification", err)
	}

	if s.cache != nil {
		if err := s.cache.MarkSeen(ctx, id, dupCacheTTL); err != nil {
			s.log.Warn().Err(err).Int64("notification_id", id).Msg("duplicate cache write failed")
		}
	}
	return nil
}

// BuildAcknowledgement produces the signed response for req. A signing
// failure is reported: an unsigned acknowledgement is never sent.
func (s *NotificationService) BuildAcknowledgement(req *domain.NotificationRequest, success bool) (*domain.NotificationResponse, error) {
	resp := domain.NewNotificationResponse(req, success)

	sig, err := s.sigSvc.Sign(resp.Method(), resp.UUID(), resp.Data())
	if err != nil {
		return nil, apperror.ErrSigning(err)
	}

	resp.SetSignature(sig)
	return resp, nil
}
