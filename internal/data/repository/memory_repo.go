package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"flexsession/internal/data/entity"
	"flexsession/internal/domain"

	"github.com/google/uuid"
)

// memoryStore backs the in-memory repositories. Slots and sessions share one
// lock so Claim, Release and session creation see a consistent view.
// Single process only; used by tests and STORAGE_DRIVER=memory.
type memoryStore struct {
	mu       sync.RWMutex
	slots    map[uuid.UUID]*entity.AvailabilitySlot
	sessions map[uuid.UUID]*entity.Session
	bySlot   map[uuid.UUID]uuid.UUID // slotID -> sessionID
	byRef    map[string]uuid.UUID    // paymentRef -> sessionID
	rates    map[uuid.UUID]*entity.RateProfile
	events   map[string]time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		slots:    make(map[uuid.UUID]*entity.AvailabilitySlot),
		sessions: make(map[uuid.UUID]*entity.Session),
		bySlot:   make(map[uuid.UUID]uuid.UUID),
		byRef:    make(map[string]uuid.UUID),
		rates:    make(map[uuid.UUID]*entity.RateProfile),
		events:   make(map[string]time.Time),
	}
}

// ==================== SLOTS ====================

type memorySlotRepository struct{ store *memoryStore }

func (r *memorySlotRepository) Create(ctx context.Context, slot *entity.AvailabilitySlot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.slots[slot.ID]; exists {
		return fmt.Errorf("create slot: duplicate id %s", slot.ID)
	}
	s := *slot
	r.store.slots[slot.ID] = &s
	return nil
}

func (r *memorySlotRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.AvailabilitySlot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	slot, exists := r.store.slots[id]
	if !exists {
		return nil, nil
	}
	s := *slot
	return &s, nil
}

func (r *memorySlotRepository) FindAvailable(ctx context.Context, filter SlotFilter) ([]*entity.AvailabilitySlot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var slots []*entity.AvailabilitySlot
	for _, slot := range r.store.slots {
		if !slot.Available() {
			continue
		}
		if filter.EngineerID != nil && slot.EngineerID != *filter.EngineerID {
			continue
		}
		if !slot.Overlaps(filter.From, filter.To) {
			continue
		}
		s := *slot
		slots = append(slots, &s)
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Start.Equal(slots[j].Start) {
			return slots[i].ID.String() < slots[j].ID.String()
		}
		return slots[i].Start.Before(slots[j].Start)
	})

	return slots, nil
}

func (r *memorySlotRepository) Claim(ctx context.Context, id uuid.UUID, at time.Time) (*entity.AvailabilitySlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	slot, exists := r.store.slots[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrSlotNotFound, id)
	}
	if !slot.Available() {
		return nil, fmt.Errorf("%w: %s", domain.ErrSlotUnavailable, id)
	}

	claimedAt := at
	slot.ClaimedAt = &claimedAt
	slot.UpdatedAt = at

	s := *slot
	return &s, nil
}

func (r *memorySlotRepository) Release(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	slot, exists := r.store.slots[id]
	if !exists {
		return fmt.Errorf("%w: %s is missing or attached to a session", domain.ErrSlotUnavailable, id)
	}
	if _, attached := r.store.bySlot[id]; attached {
		return fmt.Errorf("%w: %s is missing or attached to a session", domain.ErrSlotUnavailable, id)
	}

	slot.ClaimedAt = nil
	slot.UpdatedAt = at
	return nil
}

func (r *memorySlotRepository) Unpublish(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	slot, exists := r.store.slots[id]
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrSlotNotFound, id)
	}
	slot.IsPublished = false
	slot.UpdatedAt = at
	return nil
}

// ==================== SESSIONS ====================

type memorySessionRepository struct{ store *memoryStore }

func (r *memorySessionRepository) Create(ctx context.Context, session *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.bySlot[session.SlotID]; exists {
		return fmt.Errorf("%w: slot %s already booked", domain.ErrSlotUnavailable, session.SlotID)
	}
	if _, exists := r.store.sessions[session.ID]; exists {
		return fmt.Errorf("create session: duplicate id %s", session.ID)
	}

	s := *session
	r.store.sessions[session.ID] = &s
	r.store.bySlot[session.SlotID] = session.ID
	if session.PaymentRef != nil {
		r.store.byRef[*session.PaymentRef] = session.ID
	}
	return nil
}

func (r *memorySessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	session, exists := r.store.sessions[id]
	if !exists {
		return nil, nil
	}
	s := *session
	return &s, nil
}

func (r *memorySessionRepository) FindByPaymentRef(ctx context.Context, ref string) (*entity.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, exists := r.store.byRef[ref]
	if !exists {
		return nil, nil
	}
	s := *r.store.sessions[id]
	return &s, nil
}

// filter returns copies of matching sessions, newest first. Caller holds the lock.
func (r *memorySessionRepository) filter(match func(*entity.Session) bool) []*entity.Session {
	var sessions []*entity.Session
	for _, session := range r.store.sessions {
		if match(session) {
			s := *session
			sessions = append(sessions, &s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions
}

func page(sessions []*entity.Session, limit, offset int) []*entity.Session {
	if offset >= len(sessions) {
		return nil
	}
	end := offset + limit
	if end > len(sessions) {
		end = len(sessions)
	}
	return sessions[offset:end]
}

func (r *memorySessionRepository) ownedByArtist(artistID uuid.UUID) func(*entity.Session) bool {
	return func(s *entity.Session) bool { return s.ArtistID == artistID }
}

func (r *memorySessionRepository) ownedByEngineer(engineerID uuid.UUID) func(*entity.Session) bool {
	return func(s *entity.Session) bool {
		slot, ok := r.store.slots[s.SlotID]
		return ok && slot.EngineerID == engineerID
	}
}

func (r *memorySessionRepository) FindByArtistID(ctx context.Context, artistID uuid.UUID, limit, offset int) ([]*entity.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return page(r.filter(r.ownedByArtist(artistID)), limit, offset), nil
}

func (r *memorySessionRepository) CountByArtistID(ctx context.Context, artistID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.filter(r.ownedByArtist(artistID)))), nil
}

func (r *memorySessionRepository) FindByEngineerID(ctx context.Context, engineerID uuid.UUID, limit, offset int) ([]*entity.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return page(r.filter(r.ownedByEngineer(engineerID)), limit, offset), nil
}

func (r *memorySessionRepository) CountByEngineerID(ctx context.Context, engineerID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.filter(r.ownedByEngineer(engineerID)))), nil
}

func (r *memorySessionRepository) SetPaymentRef(ctx context.Context, id uuid.UUID, ref string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, exists := r.store.sessions[id]
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if other, taken := r.store.byRef[ref]; taken && other != id {
		return fmt.Errorf("set payment ref for session %s: ref %s already used", id, ref)
	}

	if session.PaymentRef != nil {
		delete(r.store.byRef, *session.PaymentRef)
	}
	paymentRef := ref
	session.PaymentRef = &paymentRef
	session.UpdatedAt = at
	r.store.byRef[ref] = id
	return nil
}

func (r *memorySessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.SessionStatus, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, exists := r.store.sessions[id]
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if session.Status != from {
		return fmt.Errorf("%w: %s is no longer %s", domain.ErrTransitionConflict, id, from)
	}

	session.Status = to
	session.UpdatedAt = at
	return nil
}

func (r *memorySessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, exists := r.store.sessions[id]
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}

	delete(r.store.sessions, id)
	delete(r.store.bySlot, session.SlotID)
	if session.PaymentRef != nil {
		delete(r.store.byRef, *session.PaymentRef)
	}
	return nil
}

func (r *memorySessionRepository) FindDueToStart(ctx context.Context, now time.Time, limit int) ([]*entity.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	due := r.filter(func(s *entity.Session) bool {
		slot, ok := r.store.slots[s.SlotID]
		return ok && s.Status == entity.SessionStatusConfirmed && !slot.Start.After(now)
	})
	return page(due, limit, 0), nil
}

func (r *memorySessionRepository) FindStaleByStatus(ctx context.Context, status entity.SessionStatus, before time.Time, limit int) ([]*entity.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stale := r.filter(func(s *entity.Session) bool {
		return s.Status == status && !s.UpdatedAt.After(before)
	})
	return page(stale, limit, 0), nil
}

// ==================== RATES & EVENTS ====================

type memoryRateRepository struct{ store *memoryStore }

func (r *memoryRateRepository) FindByEngineerID(ctx context.Context, engineerID uuid.UUID) (*entity.RateProfile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rates, exists := r.store.rates[engineerID]
	if !exists {
		return nil, nil
	}
	rp := *rates
	return &rp, nil
}

func (r *memoryRateRepository) Upsert(ctx context.Context, rates *entity.RateProfile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rp := *rates
	r.store.rates[rates.EngineerID] = &rp
	return nil
}

type memoryEventRepository struct{ store *memoryStore }

func (r *memoryEventRepository) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, seen := r.store.events[eventID]; seen {
		return false, nil
	}
	r.store.events[eventID] = time.Now()
	return true, nil
}

func (r *memoryEventRepository) Forget(ctx context.Context, eventID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.events, eventID)
	return nil
}
