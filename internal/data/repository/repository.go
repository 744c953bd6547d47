package repository

import (
	"time"

	"flexsession/pkg/database"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Repository struct {
	Slot    SlotRepository
	Session SessionRepository
	Rate    RateRepository
	Event   ProcessedEventRepository
}

// NewRepository wires the Postgres repositories and the Redis event store.
func NewRepository(db database.PgxIface, rdb redis.Cmdable, eventTTL time.Duration, log *zap.Logger) *Repository {
	return &Repository{
		Slot:    NewSlotRepository(db, log),
		Session: NewSessionRepository(db, log),
		Rate:    NewRateRepository(db, log),
		Event:   NewProcessedEventRepository(rdb, eventTTL, log),
	}
}

// NewMemoryRepository returns repositories sharing one in-process store.
func NewMemoryRepository() *Repository {
	store := newMemoryStore()
	return &Repository{
		Slot:    &memorySlotRepository{store: store},
		Session: &memorySessionRepository{store: store},
		Rate:    &memoryRateRepository{store: store},
		Event:   &memoryEventRepository{store: store},
	}
}
