package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"flexsession/internal/data/entity"
	"flexsession/internal/data/repository"
	"flexsession/internal/gateway"
	"flexsession/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

// testClock is a settable clock shared by every service of a fixture.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu      sync.Mutex
	created []uuid.UUID
	changes []entity.SessionStatus
}

func (p *recordingPublisher) PublishSessionCreated(session *entity.Session, _ *entity.AvailabilitySlot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, session.ID)
	return nil
}

func (p *recordingPublisher) PublishStatusChanged(_ *entity.Session, _ *entity.AvailabilitySlot, _, to entity.SessionStatus, _ time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, to)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) Changes() []entity.SessionStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.SessionStatus(nil), p.changes...)
}

type fixture struct {
	ctx      context.Context
	repo     *repository.Repository
	gw       *gateway.MockGateway
	pub      *recordingPublisher
	clock    *testClock
	config   *utils.Config
	svc      *Service
	engineer entity.Actor
	artist   entity.Actor
	admin    entity.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:   context.Background(),
		repo:  repository.NewMemoryRepository(),
		gw:    gateway.NewMockGateway(nil),
		pub:   &recordingPublisher{},
		clock: &testClock{now: t0},
		config: &utils.Config{
			Payment: utils.PaymentConfig{Currency: "usd", Timeout: 100 * time.Millisecond},
			Worker:  utils.WorkerConfig{AutoCompleteAfter: 72 * time.Hour, BatchSize: 50},
		},
		engineer: entity.Actor{UserID: uuid.New(), Role: entity.RoleEngineer, Email: "eng@example.com"},
		artist:   entity.Actor{UserID: uuid.New(), Role: entity.RoleArtist, Email: "artist@example.com"},
		admin:    entity.Actor{UserID: uuid.New(), Role: entity.RoleAdmin, Email: "admin@example.com"},
	}
	f.svc = NewService(f.repo, f.gw, f.pub, f.config, zap.NewNop(), WithClock(f.clock.Now))
	return f
}

func rate(v int64) *int64 { return &v }

func (f *fixture) setRates(t *testing.T, hourly int64, rush *int64) {
	t.Helper()
	_, err := f.svc.Rate.SetRates(f.ctx, f.engineer, SetRatesInput{
		DisplayName: "Mia Mixdown",
		HourlyRate:  hourly,
		RushRate:    rush,
	})
	require.NoError(t, err)
}

// publish creates a slot starting `in` from now and lasting `hours`.
func (f *fixture) publish(t *testing.T, mode entity.BookingMode, in time.Duration, hours int) *entity.AvailabilitySlot {
	t.Helper()
	start := f.clock.Now().Add(in)
	slot, err := f.svc.Slot.Publish(f.ctx, f.engineer, PublishSlotInput{
		Start:    start,
		End:      start.Add(time.Duration(hours) * time.Hour),
		TaskType: entity.TaskMixTweak,
		Mode:     mode,
	})
	require.NoError(t, err)
	return slot
}

func (f *fixture) book(t *testing.T, slot *entity.AvailabilitySlot) *BookResult {
	t.Helper()
	res, err := f.svc.Booking.Book(f.ctx, f.artist, BookInput{SlotID: slot.ID, Notes: "vocals are too hot"})
	require.NoError(t, err)
	return res
}

func (f *fixture) available(t *testing.T) []*entity.AvailabilitySlot {
	t.Helper()
	slots, err := f.svc.Slot.FindAvailable(f.ctx, repository.SlotFilter{EngineerID: &f.engineer.UserID})
	require.NoError(t, err)
	return slots
}

func (f *fixture) status(t *testing.T, sessionID uuid.UUID) entity.SessionStatus {
	t.Helper()
	session, err := f.repo.Session.FindByID(f.ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, session)
	return session.Status
}
