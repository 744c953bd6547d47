package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flexsession/internal/data/entity"
	"flexsession/internal/data/repository"
	"flexsession/internal/domain"
	"flexsession/internal/events"
	"flexsession/internal/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookInput struct {
	SlotID uuid.UUID
	Notes  string
}

type BookResult struct {
	Session *entity.Session
	Slot    *entity.AvailabilitySlot
	// PaymentRedirect is set for INSTANT bookings only.
	PaymentRedirect string
}

// BookingService turns an artist's booking request into a PENDING session,
// opening a checkout for INSTANT slots.
type BookingService interface {
	Book(ctx context.Context, actor entity.Actor, in BookInput) (*BookResult, error)
}

type BookingConfig struct {
	Currency       string
	PaymentTimeout time.Duration
}

type bookingService struct {
	slots     SlotService
	sessions  repository.SessionRepository
	rates     repository.RateRepository
	gateway   gateway.PaymentGateway
	publisher events.EventPublisher
	config    BookingConfig
	clock     Clock
	log       *zap.Logger
}

func NewBookingService(
	slots SlotService,
	sessions repository.SessionRepository,
	rates repository.RateRepository,
	gw gateway.PaymentGateway,
	publisher events.EventPublisher,
	config BookingConfig,
	clock Clock,
	log *zap.Logger,
) BookingService {
	if config.PaymentTimeout <= 0 {
		config.PaymentTimeout = 10 * time.Second
	}
	if config.Currency == "" {
		config.Currency = "usd"
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}

	return &bookingService{
		slots:     slots,
		sessions:  sessions,
		rates:     rates,
		gateway:   gw,
		publisher: publisher,
		config:    config,
		clock:     clock,
		log:       log.With(zap.String("service", "booking")),
	}
}

// Book claims the slot, prices it and creates the session. For INSTANT
// slots it then opens a checkout; if that fails the session is deleted and
// the slot released again. A zero-priced INSTANT session is confirmed
// without a checkout.
func (s *bookingService) Book(ctx context.Context, actor entity.Actor, in BookInput) (*BookResult, error) {
	if err := domain.Authorize(actor, domain.CapBook); err != nil {
		return nil, err
	}

	if _, err := s.slots.Get(ctx, in.SlotID); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// From the claim on the booking either commits fully or is compensated,
	// even if the caller goes away mid-claim.
	ctx = context.WithoutCancel(ctx)

	slot, err := s.slots.Claim(ctx, in.SlotID)
	if err != nil {
		return nil, err
	}

	now := s.clock()

	rates, err := s.rates.FindByEngineerID(ctx, slot.EngineerID)
	if err == nil && rates == nil {
		err = fmt.Errorf("%w: engineer %s", domain.ErrRateProfileNotFound, slot.EngineerID)
	}
	if err != nil {
		return nil, s.compensate(ctx, nil, slot, err)
	}

	price, err := domain.ComputePrice(*rates, slot.Start, slot.End, now)
	if err != nil {
		return nil, s.compensate(ctx, nil, slot, fmt.Errorf("price slot %s: %w", slot.ID, err))
	}

	session := &entity.Session{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		SlotID:     slot.ID,
		ArtistID:   actor.UserID,
		Status:     entity.SessionStatusPending,
		PriceMinor: price,
		Currency:   s.config.Currency,
		Notes:      in.Notes,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, s.compensate(ctx, nil, slot, err)
	}

	result := &BookResult{Session: session, Slot: slot}
	free := false

	switch {
	case slot.Mode == entity.ModeInstant && price == 0:
		// Nothing to collect, the checkout is skipped.
		if err := s.sessions.UpdateStatus(ctx, session.ID, entity.SessionStatusPending, entity.SessionStatusConfirmed, now); err != nil {
			return nil, s.compensate(ctx, session, slot, fmt.Errorf("confirm free session %s: %w", session.ID, err))
		}
		session.Status = entity.SessionStatusConfirmed
		free = true

	case slot.Mode == entity.ModeInstant:
		redirect, err := s.openCheckout(ctx, session, rates, actor)
		if err != nil {
			return nil, s.compensate(ctx, session, slot, err)
		}
		result.PaymentRedirect = redirect
	}

	s.log.Info("Session booked",
		zap.String("session_id", session.ID.String()),
		zap.String("slot_id", slot.ID.String()),
		zap.String("artist_id", actor.UserID.String()),
		zap.String("mode", string(slot.Mode)),
		zap.Int64("price_minor", price),
		zap.Bool("rush", domain.IsRush(slot.Start, now)),
	)

	if err := s.publisher.PublishSessionCreated(session, slot); err != nil {
		s.log.Warn("Failed to publish session created", zap.Error(err), zap.String("session_id", session.ID.String()))
	}
	if free {
		if err := s.publisher.PublishStatusChanged(session, slot, entity.SessionStatusPending, entity.SessionStatusConfirmed, now); err != nil {
			s.log.Warn("Failed to publish status change", zap.Error(err), zap.String("session_id", session.ID.String()))
		}
	}

	return result, nil
}

// openCheckout initiates payment and stores the checkout reference.
func (s *bookingService) openCheckout(ctx context.Context, session *entity.Session, rates *entity.RateProfile, actor entity.Actor) (string, error) {
	payee := rates.DisplayName
	if payee == "" {
		payee = "Engineer"
	}

	payCtx, cancel := context.WithTimeout(ctx, s.config.PaymentTimeout)
	handle, err := s.gateway.InitiatePayment(payCtx, gateway.PaymentRequest{
		Amount:           session.PriceMinor,
		Currency:         session.Currency,
		SessionID:        session.ID,
		PayeeDisplayName: payee,
		PayerEmail:       actor.Email,
		Description:      "Professional music session",
	})
	cancel()
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrPaymentInitiationFailed, err)
	}

	if err := s.sessions.SetPaymentRef(ctx, session.ID, handle.ExternalRef, s.clock()); err != nil {
		cause := fmt.Errorf("%w: store checkout %s: %w", domain.ErrPaymentInitiationFailed, handle.ExternalRef, err)
		if cancelErr := s.gateway.CancelPayment(ctx, handle.ExternalRef); cancelErr != nil {
			s.log.Error("Failed to expire orphaned checkout",
				zap.Error(cancelErr),
				zap.String("session_id", session.ID.String()),
				zap.String("payment_ref", handle.ExternalRef))
			return "", errors.Join(cause, cancelErr)
		}
		return "", cause
	}

	ref := handle.ExternalRef
	session.PaymentRef = &ref
	return handle.RedirectURL, nil
}

// compensate undoes a partial booking in reverse order: delete the session
// (if one was created), then release the slot. Failures are logged and
// joined to cause so callers can still match it.
func (s *bookingService) compensate(ctx context.Context, session *entity.Session, slot *entity.AvailabilitySlot, cause error) error {
	errs := []error{cause}

	if session != nil {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			s.log.Error("Compensation: failed to delete session",
				zap.Error(err),
				zap.String("session_id", session.ID.String()))
			errs = append(errs, fmt.Errorf("compensate: delete session %s: %w", session.ID, err))
		}
	}

	if err := s.slots.Release(ctx, slot.ID); err != nil {
		s.log.Error("Compensation: failed to release slot",
			zap.Error(err),
			zap.String("slot_id", slot.ID.String()))
		errs = append(errs, fmt.Errorf("compensate: release slot %s: %w", slot.ID, err))
	}

	s.log.Warn("Booking rolled back",
		zap.Error(cause),
		zap.String("slot_id", slot.ID.String()))

	if len(errs) == 1 {
		return cause
	}
	return errors.Join(errs...)
}
