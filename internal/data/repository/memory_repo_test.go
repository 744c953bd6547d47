package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"flexsession/internal/data/entity"
	"flexsession/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newSlot(engineerID uuid.UUID, start time.Time, hours int) *entity.AvailabilitySlot {
	return &entity.AvailabilitySlot{
		Base:        entity.Base{ID: uuid.New(), CreatedAt: baseTime, UpdatedAt: baseTime},
		EngineerID:  engineerID,
		Start:       start,
		End:         start.Add(time.Duration(hours) * time.Hour),
		TaskType:    entity.TaskMixTweak,
		Mode:        entity.ModeInstant,
		IsPublished: true,
	}
}

func TestMemorySlotRepository_ConcurrentClaim(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	slot := newSlot(uuid.New(), baseTime.Add(48*time.Hour), 2)
	require.NoError(t, repo.Slot.Create(ctx, slot))

	const callers = 32
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		successes   int
		unavailable int
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Slot.Claim(ctx, slot.ID, baseTime)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, domain.ErrSlotUnavailable):
				unavailable++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, unavailable)
}

func TestMemorySlotRepository_Claim(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	t.Run("missing slot", func(t *testing.T) {
		_, err := repo.Slot.Claim(ctx, uuid.New(), baseTime)
		assert.ErrorIs(t, err, domain.ErrSlotNotFound)
	})

	t.Run("unpublished slot", func(t *testing.T) {
		slot := newSlot(uuid.New(), baseTime.Add(time.Hour), 1)
		slot.IsPublished = false
		require.NoError(t, repo.Slot.Create(ctx, slot))

		_, err := repo.Slot.Claim(ctx, slot.ID, baseTime)
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	})

	t.Run("claim marks slot", func(t *testing.T) {
		slot := newSlot(uuid.New(), baseTime.Add(time.Hour), 1)
		require.NoError(t, repo.Slot.Create(ctx, slot))

		claimed, err := repo.Slot.Claim(ctx, slot.ID, baseTime)
		require.NoError(t, err)
		require.NotNil(t, claimed.ClaimedAt)
		assert.True(t, claimed.ClaimedAt.Equal(baseTime))
		assert.False(t, claimed.Available())
	})
}

func TestMemorySlotRepository_FindAvailable(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	engineer := uuid.New()

	later := newSlot(engineer, baseTime.Add(5*time.Hour), 1)
	earlier := newSlot(engineer, baseTime.Add(time.Hour), 1)
	other := newSlot(uuid.New(), baseTime.Add(2*time.Hour), 1)
	claimed := newSlot(engineer, baseTime.Add(3*time.Hour), 1)
	for _, s := range []*entity.AvailabilitySlot{later, earlier, other, claimed} {
		require.NoError(t, repo.Slot.Create(ctx, s))
	}
	_, err := repo.Slot.Claim(ctx, claimed.ID, baseTime)
	require.NoError(t, err)

	t.Run("ordered by start, claimed hidden", func(t *testing.T) {
		slots, err := repo.Slot.FindAvailable(ctx, SlotFilter{})
		require.NoError(t, err)
		require.Len(t, slots, 3)
		assert.Equal(t, earlier.ID, slots[0].ID)
		assert.Equal(t, other.ID, slots[1].ID)
		assert.Equal(t, later.ID, slots[2].ID)
	})

	t.Run("engineer and window filter", func(t *testing.T) {
		slots, err := repo.Slot.FindAvailable(ctx, SlotFilter{
			EngineerID: &engineer,
			From:       baseTime.Add(90 * time.Minute),
			To:         baseTime.Add(10 * time.Hour),
		})
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, later.ID, slots[0].ID)
	})

	t.Run("window end is exclusive", func(t *testing.T) {
		slots, err := repo.Slot.FindAvailable(ctx, SlotFilter{
			EngineerID: &engineer,
			To:         earlier.Start,
		})
		require.NoError(t, err)
		assert.Empty(t, slots)
	})
}

func TestMemorySlotRepository_ReleaseRefusesAttachedSlot(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	slot := newSlot(uuid.New(), baseTime.Add(time.Hour), 1)
	require.NoError(t, repo.Slot.Create(ctx, slot))
	_, err := repo.Slot.Claim(ctx, slot.ID, baseTime)
	require.NoError(t, err)

	session := &entity.Session{
		Base:     entity.Base{ID: uuid.New(), CreatedAt: baseTime, UpdatedAt: baseTime},
		SlotID:   slot.ID,
		ArtistID: uuid.New(),
		Status:   entity.SessionStatusPending,
	}
	require.NoError(t, repo.Session.Create(ctx, session))

	releasedAt := baseTime.Add(time.Hour)
	err = repo.Slot.Release(ctx, slot.ID, releasedAt)
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)

	require.NoError(t, repo.Session.Delete(ctx, session.ID))
	require.NoError(t, repo.Slot.Release(ctx, slot.ID, releasedAt))

	found, err := repo.Slot.FindByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, found.Available())
	assert.Equal(t, releasedAt, found.UpdatedAt)
}

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	engineer := uuid.New()
	artist := uuid.New()

	slot := newSlot(engineer, baseTime.Add(time.Hour), 1)
	require.NoError(t, repo.Slot.Create(ctx, slot))

	session := &entity.Session{
		Base:       entity.Base{ID: uuid.New(), CreatedAt: baseTime, UpdatedAt: baseTime},
		SlotID:     slot.ID,
		ArtistID:   artist,
		Status:     entity.SessionStatusPending,
		PriceMinor: 12000,
	}
	require.NoError(t, repo.Session.Create(ctx, session))

	t.Run("second session on slot rejected", func(t *testing.T) {
		dup := *session
		dup.ID = uuid.New()
		err := repo.Session.Create(ctx, &dup)
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	})

	t.Run("payment ref lookup", func(t *testing.T) {
		require.NoError(t, repo.Session.SetPaymentRef(ctx, session.ID, "cs_test_1", baseTime))

		found, err := repo.Session.FindByPaymentRef(ctx, "cs_test_1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, session.ID, found.ID)

		missing, err := repo.Session.FindByPaymentRef(ctx, "cs_unknown")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("compare and swap status", func(t *testing.T) {
		err := repo.Session.UpdateStatus(ctx, session.ID, entity.SessionStatusConfirmed, entity.SessionStatusInProgress, baseTime)
		assert.ErrorIs(t, err, domain.ErrTransitionConflict)

		require.NoError(t, repo.Session.UpdateStatus(ctx, session.ID, entity.SessionStatusPending, entity.SessionStatusConfirmed, baseTime))

		found, err := repo.Session.FindByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.SessionStatusConfirmed, found.Status)
		assert.Equal(t, int64(12000), found.PriceMinor)

		err = repo.Session.UpdateStatus(ctx, uuid.New(), entity.SessionStatusPending, entity.SessionStatusConfirmed, baseTime)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("listing by participant", func(t *testing.T) {
		byArtist, err := repo.Session.FindByArtistID(ctx, artist, 10, 0)
		require.NoError(t, err)
		assert.Len(t, byArtist, 1)

		total, err := repo.Session.CountByEngineerID(ctx, engineer)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		none, err := repo.Session.FindByEngineerID(ctx, artist, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("due to start", func(t *testing.T) {
		due, err := repo.Session.FindDueToStart(ctx, slot.Start.Add(-time.Minute), 10)
		require.NoError(t, err)
		assert.Empty(t, due)

		due, err = repo.Session.FindDueToStart(ctx, slot.Start, 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, session.ID, due[0].ID)
	})
}

func TestMemoryEventRepository_MarkProcessed(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first, err := repo.Event.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.Event.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, again)
}
