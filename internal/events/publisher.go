package events

import (
	"encoding/json"
	"fmt"
	"time"

	"flexsession/internal/data/entity"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectSessionCreated       = "session.created"
	SubjectSessionStatusChanged = "session.status_changed"
)

// EventPublisher announces session lifecycle changes to other services
// (file exchange, message threads, notifications).
type EventPublisher interface {
	PublishSessionCreated(session *entity.Session, slot *entity.AvailabilitySlot) error
	PublishStatusChanged(session *entity.Session, slot *entity.AvailabilitySlot, from, to entity.SessionStatus, at time.Time) error
	Close()
}

type SessionEvent struct {
	EventType  string               `json:"event_type"`
	SessionID  uuid.UUID            `json:"session_id"`
	SlotID     uuid.UUID            `json:"slot_id"`
	ArtistID   uuid.UUID            `json:"artist_id"`
	EngineerID uuid.UUID            `json:"engineer_id"`
	From       entity.SessionStatus `json:"from,omitempty"`
	To         entity.SessionStatus `json:"to"`
	PriceMinor int64                `json:"price_minor"`
	Currency   string               `json:"currency"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// publisher is the part of *nats.Conn the publisher needs.
type publisher interface {
	Publish(subj string, data []byte) error
}

type NatsPublisher struct {
	conn  publisher
	close func()
	log   *zap.Logger
}

func NewNatsPublisher(natsURL string, log *zap.Logger) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("flexsession"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", natsURL, err)
	}

	p := newPublisher(nc, log)
	p.close = func() {
		if err := nc.Drain(); err != nil {
			p.log.Warn("Failed to drain NATS connection", zap.Error(err))
		}
	}
	return p, nil
}

func newPublisher(conn publisher, log *zap.Logger) *NatsPublisher {
	return &NatsPublisher{
		conn:  conn,
		close: func() {},
		log:   log.With(zap.String("component", "events")),
	}
}

func (p *NatsPublisher) PublishSessionCreated(session *entity.Session, slot *entity.AvailabilitySlot) error {
	event := newEvent(SubjectSessionCreated, session, slot)
	event.To = session.Status
	event.OccurredAt = session.CreatedAt
	return p.publish(SubjectSessionCreated, event)
}

func (p *NatsPublisher) PublishStatusChanged(session *entity.Session, slot *entity.AvailabilitySlot, from, to entity.SessionStatus, at time.Time) error {
	event := newEvent(SubjectSessionStatusChanged, session, slot)
	event.From = from
	event.To = to
	event.OccurredAt = at
	return p.publish(SubjectSessionStatusChanged, event)
}

func (p *NatsPublisher) Close() {
	p.close()
}

func newEvent(eventType string, session *entity.Session, slot *entity.AvailabilitySlot) SessionEvent {
	event := SessionEvent{
		EventType:  eventType,
		SessionID:  session.ID,
		SlotID:     session.SlotID,
		ArtistID:   session.ArtistID,
		PriceMinor: session.PriceMinor,
		Currency:   session.Currency,
	}
	if slot != nil {
		event.EngineerID = slot.EngineerID
	}
	return event
}

func (p *NatsPublisher) publish(subject string, event SessionEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		p.log.Error("Error publishing to NATS",
			zap.Error(err),
			zap.String("subject", subject),
			zap.String("session_id", event.SessionID.String()))
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.log.Debug("Published event to NATS",
		zap.String("subject", subject),
		zap.String("session_id", event.SessionID.String()))

	return nil
}

// NoopPublisher is used when NATS_URL is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSessionCreated(*entity.Session, *entity.AvailabilitySlot) error {
	return nil
}

func (NoopPublisher) PublishStatusChanged(*entity.Session, *entity.AvailabilitySlot, entity.SessionStatus, entity.SessionStatus, time.Time) error {
	return nil
}

func (NoopPublisher) Close() {}
