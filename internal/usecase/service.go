package usecase

import (
	"time"

	"flexsession/internal/data/repository"
	"flexsession/internal/events"
	"flexsession/internal/gateway"
	"flexsession/pkg/utils"

	"go.uber.org/zap"
)

// Clock supplies "now" to every time-dependent rule.
type Clock func() time.Time

type Service struct {
	Slot    SlotService
	Session SessionService
	Booking BookingService
	Payment PaymentService
	Rate    RateService
}

type Option func(*options)

type options struct {
	clock Clock
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

func NewService(
	repo *repository.Repository,
	gw gateway.PaymentGateway,
	publisher events.EventPublisher,
	config *utils.Config,
	log *zap.Logger,
	opts ...Option,
) *Service {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	slot := NewSlotService(repo.Slot, o.clock, log)
	session := NewSessionService(repo.Session, repo.Slot, gw, publisher, SessionConfig{
		AutoCompleteAfter: config.Worker.AutoCompleteAfter,
		BatchSize:         config.Worker.BatchSize,
	}, o.clock, log)

	return &Service{
		Slot:    slot,
		Session: session,
		Booking: NewBookingService(slot, repo.Session, repo.Rate, gw, publisher, BookingConfig{
			Currency:       config.Payment.Currency,
			PaymentTimeout: config.Payment.Timeout,
		}, o.clock, log),
		Payment: NewPaymentService(session, repo.Event, log),
		Rate:    NewRateService(repo.Rate, o.clock, log),
	}
}
