package usecase

import (
	"context"
	"errors"
	"fmt"

	"flexsession/internal/data/repository"
	"flexsession/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentEventKind string

const (
	PaymentCompleted PaymentEventKind = "completed"
	PaymentExpired   PaymentEventKind = "expired"
	PaymentFailed    PaymentEventKind = "failed"
)

// PaymentEvent is a gateway notification about a checkout.
type PaymentEvent struct {
	ID          string
	Kind        PaymentEventKind
	ExternalRef string
	// SessionID comes from checkout metadata and is only used for logging.
	SessionID uuid.UUID
}

// PaymentService applies gateway notifications to INSTANT sessions.
type PaymentService interface {
	HandleEvent(ctx context.Context, event PaymentEvent) error
}

type paymentService struct {
	sessions SessionService
	events   repository.ProcessedEventRepository
	log      *zap.Logger
}

func NewPaymentService(sessions SessionService, events repository.ProcessedEventRepository, log *zap.Logger) PaymentService {
	return &paymentService{
		sessions: sessions,
		events:   events,
		log:      log.With(zap.String("service", "payment")),
	}
}

// HandleEvent is idempotent per event id. Notifications that no longer
// apply (session gone, already settled) are acknowledged and dropped.
func (s *paymentService) HandleEvent(ctx context.Context, event PaymentEvent) error {
	if event.ID == "" || event.ExternalRef == "" {
		return fmt.Errorf("%w: payment event needs id and external ref", domain.ErrInvalidInput)
	}

	first, err := s.events.MarkProcessed(ctx, event.ID)
	if err != nil {
		return err
	}
	if !first {
		s.log.Debug("Duplicate payment event ignored", zap.String("event_id", event.ID))
		return nil
	}

	switch event.Kind {
	case PaymentCompleted:
		_, err = s.sessions.ConfirmPayment(ctx, event.ExternalRef)
	case PaymentExpired, PaymentFailed:
		_, err = s.sessions.FailPayment(ctx, event.ExternalRef)
	default:
		s.log.Warn("Unknown payment event kind", zap.String("event_id", event.ID), zap.String("kind", string(event.Kind)))
		return nil
	}

	if err == nil {
		s.log.Info("Payment event applied",
			zap.String("event_id", event.ID),
			zap.String("kind", string(event.Kind)),
			zap.String("payment_ref", event.ExternalRef),
			zap.String("session_id", event.SessionID.String()))
		return nil
	}

	if errors.Is(err, domain.ErrIllegalTransition) || errors.Is(err, domain.ErrSessionNotFound) {
		s.log.Warn("Payment event does not apply",
			zap.Error(err),
			zap.String("event_id", event.ID),
			zap.String("payment_ref", event.ExternalRef))
		return nil
	}

	// Let the gateway redeliver.
	if forgetErr := s.events.Forget(ctx, event.ID); forgetErr != nil {
		return errors.Join(err, forgetErr)
	}
	return err
}
