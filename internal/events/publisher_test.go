package events

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"flexsession/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type message struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu       sync.Mutex
	messages []message
	err      error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message{subject: subj, data: data})
	return nil
}

func fixtures() (*entity.Session, *entity.AvailabilitySlot) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	slot := &entity.AvailabilitySlot{
		Base:       entity.Base{ID: uuid.New()},
		EngineerID: uuid.New(),
	}
	session := &entity.Session{
		Base:       entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		SlotID:     slot.ID,
		ArtistID:   uuid.New(),
		Status:     entity.SessionStatusPending,
		PriceMinor: 20000,
		Currency:   "usd",
	}
	return session, slot
}

func TestNatsPublisher_PublishStatusChanged(t *testing.T) {
	conn := &fakeConn{}
	p := newPublisher(conn, zap.NewNop())
	session, slot := fixtures()
	at := session.CreatedAt.Add(time.Hour)

	require.NoError(t, p.PublishStatusChanged(session, slot, entity.SessionStatusPending, entity.SessionStatusConfirmed, at))

	require.Len(t, conn.messages, 1)
	assert.Equal(t, SubjectSessionStatusChanged, conn.messages[0].subject)

	var event SessionEvent
	require.NoError(t, json.Unmarshal(conn.messages[0].data, &event))
	assert.Equal(t, "session.status_changed", event.EventType)
	assert.Equal(t, session.ID, event.SessionID)
	assert.Equal(t, slot.EngineerID, event.EngineerID)
	assert.Equal(t, entity.SessionStatusPending, event.From)
	assert.Equal(t, entity.SessionStatusConfirmed, event.To)
	assert.True(t, event.OccurredAt.Equal(at))
}

func TestNatsPublisher_PublishSessionCreated(t *testing.T) {
	conn := &fakeConn{}
	p := newPublisher(conn, zap.NewNop())
	session, slot := fixtures()

	require.NoError(t, p.PublishSessionCreated(session, slot))

	require.Len(t, conn.messages, 1)
	assert.Equal(t, SubjectSessionCreated, conn.messages[0].subject)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(conn.messages[0].data, &raw))
	assert.NotContains(t, raw, "from")
	assert.Equal(t, "PENDING", raw["to"])
}

func TestNatsPublisher_PublishError(t *testing.T) {
	p := newPublisher(&fakeConn{err: errors.New("nats: connection closed")}, zap.NewNop())
	session, slot := fixtures()

	err := p.PublishSessionCreated(session, slot)
	assert.ErrorContains(t, err, "connection closed")
}
