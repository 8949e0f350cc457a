package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kurbar/trustly-go/internal/core/domain"
	"github.com/kurbar/trustly-go/internal/service"
	"github.com/kurbar/trustly-go/pkg/apperror"
)

// NotificationProcessor is the business action taken for a verified,
// first-delivery notification. Returning an error produces a FAILED
// acknowledgement; the counterparty will redeliver.
type NotificationProcessor interface {
	Process(ctx context.Context, n *domain.NotificationRequest) error
}

// NotificationProcessorFunc adapts a function to NotificationProcessor.
type NotificationProcessorFunc func(ctx context.Context, n *domain.NotificationRequest) error

// Process calls f.
func (f NotificationProcessorFunc) Process(ctx context.Context, n *domain.NotificationRequest) error {
	return f(ctx, n)
}

// NotificationHandler receives server-initiated notifications: parse,
// verify, dedupe, process, persist, acknowledge with a signed response.
type NotificationHandler struct {
	svc       *service.NotificationService
	processor NotificationProcessor
	log       zerolog.Logger
}

// NewNotificationHandler creates a new NotificationHandler. processor may
// be nil, in which case verified notifications are acknowledged OK without
// a business action.
func NewNotificationHandler(svc *service.NotificationService, processor NotificationProcessor, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, processor: processor, log: log}
}

// Receive handles POST /notifications.
func (h *NotificationHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, apperror.ErrData("reading notification body", err))
		return
	}

	n, err := domain.ParseNotification(body)
	if err != nil {
		h.log.Warn().Err(err).Msg("unparseable notification")
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()

	// Verification writes the signature-audit row before failing, so a
	// forged notification leaves a trace even though we stop here.
	if err := h.svc.Verify(ctx, n); err != nil {
		h.log.Warn().Err(err).
			Str("method", n.Method()).
			Str("uuid", n.UUID()).
			Msg("notification rejected")
		writeError(c, err)
		return
	}

	success := true
	if h.svc.IsDuplicate(ctx, n) {
		// At-least-once delivery: a replay of an already-processed
		// notification is acknowledged OK without reprocessing.
		h.log.Info().
			Str("method", n.Method()).
			Str("uuid", n.UUID()).
			Msg("duplicate notification, acknowledging without processing")
	} else {
		if h.processor != nil {
			if err := h.processor.Process(ctx, n); err != nil {
				h.log.Error().Err(err).
					Str("method", n.Method()).
					Str("uuid", n.UUID()).
					Msg("notification processing failed")
				success = false
			}
		}

		if success {
			if err := h.svc.Save(ctx, n); err != nil {
				if apperror.IsDuplicate(err) {
					// Lost the insert race to a concurrent delivery; the
					// notification is persisted either way.
					h.log.Info().Err(err).Msg("concurrent duplicate insert")
				} else {
					h.log.Error().Err(err).Msg("persisting notification failed")
					success = false
				}
			}
		}
	}

	ack, err := h.svc.BuildAcknowledgement(n, success)
	if err != nil {
		// Never send an unsigned acknowledgement.
		h.log.Error().Err(err).Msg("signing acknowledgement failed")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ack)
}

// writeError maps a typed failure onto an HTTP response. The unverified
// payload a SignatureError carries is for server-side forensics and is
// never echoed back.
func writeError(c *gin.Context, err error) {
	var se *apperror.SignatureError
	if errors.As(err, &se) {
		c.JSON(se.HTTPStatus, gin.H{"error_code": se.Code, "message": se.Message})
		return
	}

	var ae *apperror.AppError
	if errors.As(err, &ae) {
		c.JSON(ae.HTTPStatus, gin.H{"error_code": ae.Code, "message": ae.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error_code": "SYS_001", "message": "internal error"})
}
