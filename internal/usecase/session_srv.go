package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flexsession/internal/data/entity"
	"flexsession/internal/data/repository"
	"flexsession/internal/domain"
	"flexsession/internal/dto/request"
	"flexsession/internal/dto/response"
	"flexsession/internal/events"
	"flexsession/internal/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionDetail is a session together with the slot it occupies.
type SessionDetail struct {
	Session *entity.Session
	Slot    *entity.AvailabilitySlot
}

// SessionService drives the booking lifecycle. Every status change is a
// compare-and-swap on the current status.
type SessionService interface {
	// Participant actions
	Accept(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*SessionDetail, error)
	Decline(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*SessionDetail, error)
	Cancel(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*SessionDetail, error)
	Deliver(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*SessionDetail, error)
	Complete(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*SessionDetail, error)

	// Queries
	Get(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*SessionDetail, error)
	ListMine(ctx context.Context, actor entity.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.SessionResponse], error)

	// System actions (payment webhook, lifecycle worker)
	ConfirmPayment(ctx context.Context, externalRef string) (*SessionDetail, error)
	FailPayment(ctx context.Context, externalRef string) (*SessionDetail, error)
	Start(ctx context.Context, sessionID uuid.UUID) (*SessionDetail, error)
	StartDue(ctx context.Context) (int, error)
	AutoComplete(ctx context.Context) (int, error)
}

type SessionConfig struct {
	// AutoCompleteAfter is how long a DELIVERED session waits for the
	// artist before it is completed automatically.
	AutoCompleteAfter time.Duration
	BatchSize         int
}

type sessionService struct {
	sessions  repository.SessionRepository
	slots     repository.SlotRepository
	gateway   gateway.PaymentGateway
	publisher events.EventPublisher
	config    SessionConfig
	clock     Clock
	log       *zap.Logger
}

func NewSessionService(
	sessions repository.SessionRepository,
	slots repository.SlotRepository,
	gw gateway.PaymentGateway,
	publisher events.EventPublisher,
	config SessionConfig,
	clock Clock,
	log *zap.Logger,
) SessionService {
	if config.AutoCompleteAfter <= 0 {
		config.AutoCompleteAfter = 72 * time.Hour
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}

	return &sessionService{
		sessions:  sessions,
		slots:     slots,
		gateway:   gw,
		publisher: publisher,
		config:    config,
		clock:     clock,
		log:       log.With(zap.String("service", "session")),
	}
}

// load fetches a session and its slot.
func (s *sessionService) load(ctx context.Context, sessionID uuid.UUID) (*SessionDetail, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return s.withSlot(ctx, session)
}

func (s *sessionService) withSlot(ctx context.Context, session *entity.Session) (*SessionDetail, error) {
	slot, err := s.slots.FindByID(ctx, session.SlotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %s of session %s", domain.ErrSlotNotFound, session.SlotID, session.ID)
	}
	return &SessionDetail{Session: session, Slot: slot}, nil
}

// transition applies from -> to if the edge exists and nobody moved the
// session in the meantime.
func (s *sessionService) transition(ctx context.Context, d *SessionDetail, to entity.SessionStatus) (*SessionDetail, error) {
	from := d.Session.Status
	if err := domain.CheckTransition(from, to); err != nil {
		return nil, err
	}

	at := s.clock()
	if err := s.sessions.UpdateStatus(ctx, d.Session.ID, from, to, at); err != nil {
		return nil, err
	}

	updated := *d.Session
	updated.Status = to
	updated.UpdatedAt = at

	s.log.Info("Session status changed",
		zap.String("session_id", updated.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	// Committed; a lost event must not undo it.
	if err := s.publisher.PublishStatusChanged(&updated, d.Slot, from, to, at); err != nil {
		s.log.Warn("Failed to publish status change", zap.Error(err), zap.String("session_id", updated.ID.String()))
	}

	return &SessionDetail{Session: &updated, Slot: d.Slot}, nil
}

func isArtist(actor entity.Actor, d *SessionDetail) bool {
	return actor.UserID == d.Session.ArtistID
}

func isEngineer(actor entity.Actor, d *SessionDetail) bool {
	return actor.UserID == d.Slot.EngineerID
}

func isParticipant(actor entity.Actor, d *SessionDetail) bool {
	return actor.Role == entity.RoleAdmin || isArtist(actor, d) || isEngineer(actor, d)
}

// ==================== PARTICIPANT ACTIONS ====================

func (s *sessionService) Accept(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*SessionDetail, error) {
	return s.respondToRequest(ctx, actor, sessionID, domain.CapAccept, entity.SessionStatusConfirmed)
}

func (s *sessionService) Decline(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*SessionDetail, error) {
	return s.respondToRequest(ctx, actor, sessionID, domain.CapDecline, entity.SessionStatusDeclined)
}

// respondToRequest handles the engineer's answer to a REQUEST-mode booking.
func (s *sessionService) respondToRequest(ctx context.Context, actor entity.Actor, sessionID uuid.UUID, c domain.Capability, to entity.SessionStatus) (*SessionDetail, error) {
	if err := domain.Authorize(actor, c); err != nil {
		return nil, err
	}

	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !isEngineer(actor, d) {
		return nil, fmt.Errorf("%w: session %s is not on your slot", domain.ErrForbidden, sessionID)
	}
	if d.Slot.Mode != entity.ModeRequest {
		return nil, &domain.IllegalTransitionError{
			From:   d.Session.Status,
			To:     to,
			Reason: "instant bookings are settled by payment",
		}
	}

	return s.transition(ctx, d, to)
}

func (s *sessionService) Cancel(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*SessionDetail, error) {
	if err := domain.Authorize(actor, domain.CapCancel); err != nil {
		return nil, err
	}

	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(actor, d) {
		return nil, fmt.Errorf("%w: not a participant of session %s", domain.ErrForbidden, sessionID)
	}

	if err := domain.CheckTransition(d.Session.Status, entity.SessionStatusCanceled); err != nil {
		return nil, err
	}
	if !s.clock().Before(d.Slot.Start) {
		return nil, &domain.IllegalTransitionError{
			From:   d.Session.Status,
			To:     entity.SessionStatusCanceled,
			Reason: "session has already started",
		}
	}

	wasPending := d.Session.Status == entity.SessionStatusPending
	updated, err := s.transition(ctx, d, entity.SessionStatusCanceled)
	if err != nil {
		return nil, err
	}

	// An unpaid checkout must not be payable any more.
	if wasPending && updated.Session.PaymentRef != nil && s.gateway != nil {
		if err := s.gateway.CancelPayment(ctx, *updated.Session.PaymentRef); err != nil {
			s.log.Warn("Failed to expire checkout of canceled session",
				zap.Error(err),
				zap.String("session_id", sessionID.String()),
				zap.String("payment_ref", *updated.Session.PaymentRef))
		}
	}

	return updated, nil
}

func (s *sessionService) Deliver(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*SessionDetail, error) {
	if err := domain.Authorize(actor, domain.CapDeliver); err != nil {
		return nil, err
	}

	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !isEngineer(actor, d) {
		return nil, fmt.Errorf("%w: session %s is not on your slot", domain.ErrForbidden, sessionID)
	}

	return s.transition(ctx, d, entity.SessionStatusDelivered)
}

func (s *sessionService) Complete(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*SessionDetail, error) {
	if err := domain.Authorize(actor, domain.CapComplete); err != nil {
		return nil, err
	}

	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !isArtist(actor, d) {
		return nil, fmt.Errorf("%w: session %s was booked by another artist", domain.ErrForbidden, sessionID)
	}

	return s.transition(ctx, d, entity.SessionStatusCompleted)
}

// ==================== QUERIES ====================

func (s *sessionService) Get(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*SessionDetail, error) {
	if err := domain.Authorize(actor, domain.CapViewSession); err != nil {
		return nil, err
	}

	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(actor, d) {
		return nil, fmt.Errorf("%w: not a participant of session %s", domain.ErrForbidden, sessionID)
	}
	return d, nil
}

func (s *sessionService) ListMine(ctx context.Context, actor entity.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.SessionResponse], error) {
	limit := req.Limit()
	offset := req.Offset()

	var (
		sessions []*entity.Session
		total    int64
		err      error
	)

	switch actor.Role {
	case entity.RoleArtist:
		if sessions, err = s.sessions.FindByArtistID(ctx, actor.UserID, limit, offset); err == nil {
			total, err = s.sessions.CountByArtistID(ctx, actor.UserID)
		}
	case entity.RoleEngineer:
		if sessions, err = s.sessions.FindByEngineerID(ctx, actor.UserID, limit, offset); err == nil {
			total, err = s.sessions.CountByEngineerID(ctx, actor.UserID)
		}
	}
	if err != nil {
		s.log.Error("Failed to list sessions", zap.Error(err), zap.String("user_id", actor.UserID.String()))
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	items := make([]response.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		slot, err := s.slots.FindByID(ctx, session.SlotID)
		if err != nil {
			return nil, fmt.Errorf("load slot of session %s: %w", session.ID, err)
		}
		items = append(items, response.NewSessionResponse(session, slot))
	}

	return response.NewPaginatedResponse(items, req.Page, limit, total), nil
}

// ==================== SYSTEM ACTIONS ====================

func (s *sessionService) loadByPaymentRef(ctx context.Context, externalRef string, to entity.SessionStatus) (*SessionDetail, error) {
	session, err := s.sessions.FindByPaymentRef(ctx, externalRef)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: payment ref %s", domain.ErrSessionNotFound, externalRef)
	}

	d, err := s.withSlot(ctx, session)
	if err != nil {
		return nil, err
	}
	if d.Slot.Mode != entity.ModeInstant {
		return nil, &domain.IllegalTransitionError{
			From:   session.Status,
			To:     to,
			Reason: "request bookings are not settled by payment",
		}
	}
	return d, nil
}

func (s *sessionService) ConfirmPayment(ctx context.Context, externalRef string) (*SessionDetail, error) {
	d, err := s.loadByPaymentRef(ctx, externalRef, entity.SessionStatusConfirmed)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, d, entity.SessionStatusConfirmed)
}

func (s *sessionService) FailPayment(ctx context.Context, externalRef string) (*SessionDetail, error) {
	d, err := s.loadByPaymentRef(ctx, externalRef, entity.SessionStatusDeclined)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, d, entity.SessionStatusDeclined)
}

func (s *sessionService) Start(ctx context.Context, sessionID uuid.UUID) (*SessionDetail, error) {
	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, d)
}

func (s *sessionService) start(ctx context.Context, d *SessionDetail) (*SessionDetail, error) {
	if s.clock().Before(d.Slot.Start) {
		return nil, &domain.IllegalTransitionError{
			From:   d.Session.Status,
			To:     entity.SessionStatusInProgress,
			Reason: "slot has not started yet",
		}
	}
	return s.transition(ctx, d, entity.SessionStatusInProgress)
}

// StartDue moves every CONFIRMED session whose slot has begun to IN_PROGRESS.
func (s *sessionService) StartDue(ctx context.Context) (int, error) {
	due, err := s.sessions.FindDueToStart(ctx, s.clock(), s.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("find sessions due to start: %w", err)
	}

	started := 0
	for _, session := range due {
		d, err := s.withSlot(ctx, session)
		if err == nil {
			_, err = s.start(ctx, d)
		}
		if err != nil {
			if errors.Is(err, domain.ErrTransitionConflict) {
				continue
			}
			s.log.Warn("Failed to start session", zap.Error(err), zap.String("session_id", session.ID.String()))
			continue
		}
		started++
	}

	return started, nil
}

// AutoComplete completes DELIVERED sessions the artist left untouched for
// AutoCompleteAfter.
func (s *sessionService) AutoComplete(ctx context.Context) (int, error) {
	cutoff := s.clock().Add(-s.config.AutoCompleteAfter)
	stale, err := s.sessions.FindStaleByStatus(ctx, entity.SessionStatusDelivered, cutoff, s.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("find delivered sessions: %w", err)
	}

	completed := 0
	for _, session := range stale {
		d, err := s.withSlot(ctx, session)
		if err == nil {
			_, err = s.transition(ctx, d, entity.SessionStatusCompleted)
		}
		if err != nil {
			if errors.Is(err, domain.ErrTransitionConflict) {
				continue
			}
			s.log.Warn("Failed to auto-complete session", zap.Error(err), zap.String("session_id", session.ID.String()))
			continue
		}
		completed++
	}

	return completed, nil
}
