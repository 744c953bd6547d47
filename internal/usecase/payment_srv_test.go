package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"flexsession/internal/data/entity"
	"flexsession/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPayment_CompletedConfirmsOnce(t *testing.T) {
	f := newFixture(t)
	f.setRates(t, 10000, nil)
	res := f.book(t, f.publish(t, entity.ModeInstant, 48*time.Hour, 1))
	ref := *res.Session.PaymentRef

	event := PaymentEvent{ID: "evt_1", Kind: PaymentCompleted, ExternalRef: ref, SessionID: res.Session.ID}
	require.NoError(t, f.svc.Payment.HandleEvent(f.ctx, event))
	assert.Equal(t, entity.SessionStatusConfirmed, f.status(t, res.Session.ID))

	// Redelivery is a no-op.
	require.NoError(t, f.svc.Payment.HandleEvent(f.ctx, event))
	assert.Len(t, f.pub.Changes(), 1)
}

func TestPayment_ExpiredDeclines(t *testing.T) {
	for _, kind := range []PaymentEventKind{PaymentExpired, PaymentFailed} {
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture(t)
			f.setRates(t, 10000, nil)
			res := f.book(t, f.publish(t, entity.ModeInstant, 48*time.Hour, 1))

			err := f.svc.Payment.HandleEvent(f.ctx, PaymentEvent{
				ID:          "evt_" + string(kind),
				Kind:        kind,
				ExternalRef: *res.Session.PaymentRef,
			})
			require.NoError(t, err)
			assert.Equal(t, entity.SessionStatusDeclined, f.status(t, res.Session.ID))
		})
	}
}

func TestPayment_StaleEventsAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.setRates(t, 10000, nil)
	res := f.book(t, f.publish(t, entity.ModeInstant, 48*time.Hour, 1))
	ref := *res.Session.PaymentRef

	_, err := f.svc.Session.Cancel(f.ctx, f.artist, res.Session.ID)
	require.NoError(t, err)

	// Payment landing after cancel does not resurrect the session.
	err = f.svc.Payment.HandleEvent(f.ctx, PaymentEvent{ID: "evt_late", Kind: PaymentCompleted, ExternalRef: ref})
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusCanceled, f.status(t, res.Session.ID))

	err = f.svc.Payment.HandleEvent(f.ctx, PaymentEvent{ID: "evt_unknown", Kind: PaymentCompleted, ExternalRef: "cs_missing"})
	assert.NoError(t, err)
}

func TestPayment_InvalidEvent(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Payment.HandleEvent(f.ctx, PaymentEvent{Kind: PaymentCompleted})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

type flakySessionService struct {
	SessionService
	calls int
}

func (s *flakySessionService) ConfirmPayment(ctx context.Context, externalRef string) (*SessionDetail, error) {
	s.calls++
	if s.calls == 1 {
		return nil, errors.New("database unavailable")
	}
	return &SessionDetail{}, nil
}

func TestPayment_TransientFailureAllowsRedelivery(t *testing.T) {
	f := newFixture(t)
	sessions := &flakySessionService{}
	payments := NewPaymentService(sessions, f.repo.Event, zap.NewNop())

	event := PaymentEvent{ID: "evt_retry", Kind: PaymentCompleted, ExternalRef: "cs_1"}

	require.Error(t, payments.HandleEvent(f.ctx, event))
	require.NoError(t, payments.HandleEvent(f.ctx, event))
	assert.Equal(t, 2, sessions.calls)
}
