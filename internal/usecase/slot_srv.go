package usecase

import (
	"context"
	"fmt"
	"time"

	"flexsession/internal/data/entity"
	"flexsession/internal/data/repository"
	"flexsession/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PublishSlotInput struct {
	Start       time.Time
	End         time.Time
	TaskType    entity.TaskType
	Mode        entity.BookingMode
	IsPublished *bool
}

// SlotService is the slot registry: engineers publish slots, the booking
// flow claims them.
type SlotService interface {
	Publish(ctx context.Context, actor entity.Actor, in PublishSlotInput) (*entity.AvailabilitySlot, error)
	Unpublish(ctx context.Context, actor entity.Actor, slotID uuid.UUID) error
	Get(ctx context.Context, slotID uuid.UUID) (*entity.AvailabilitySlot, error)
	FindAvailable(ctx context.Context, filter repository.SlotFilter) ([]*entity.AvailabilitySlot, error)

	// Claim reserves a slot exclusively; at most one caller succeeds.
	Claim(ctx context.Context, slotID uuid.UUID) (*entity.AvailabilitySlot, error)
	// Release undoes a claim that never produced a session.
	Release(ctx context.Context, slotID uuid.UUID) error
}

type slotService struct {
	slots repository.SlotRepository
	clock Clock
	log   *zap.Logger
}

func NewSlotService(slots repository.SlotRepository, clock Clock, log *zap.Logger) SlotService {
	return &slotService{
		slots: slots,
		clock: clock,
		log:   log.With(zap.String("service", "slot")),
	}
}

func (s *slotService) Publish(ctx context.Context, actor entity.Actor, in PublishSlotInput) (*entity.AvailabilitySlot, error) {
	if err := domain.Authorize(actor, domain.CapPublishSlot); err != nil {
		return nil, err
	}

	if !in.End.After(in.Start) {
		return nil, fmt.Errorf("%w: start %s, end %s", domain.ErrInvalidInterval,
			in.Start.Format(time.RFC3339), in.End.Format(time.RFC3339))
	}
	if !in.TaskType.Valid() {
		return nil, fmt.Errorf("%w: unknown task type %q", domain.ErrInvalidInput, in.TaskType)
	}

	mode := in.Mode
	if mode == "" {
		mode = entity.ModeInstant
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown booking mode %q", domain.ErrInvalidInput, mode)
	}

	published := true
	if in.IsPublished != nil {
		published = *in.IsPublished
	}

	now := s.clock()
	slot := &entity.AvailabilitySlot{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		EngineerID:  actor.UserID,
		Start:       in.Start.UTC(),
		End:         in.End.UTC(),
		TaskType:    in.TaskType,
		Mode:        mode,
		IsPublished: published,
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("publish slot: %w", err)
	}

	s.log.Info("Slot published",
		zap.String("slot_id", slot.ID.String()),
		zap.String("engineer_id", slot.EngineerID.String()),
		zap.String("mode", string(slot.Mode)),
		zap.Time("start", slot.Start),
	)

	return slot, nil
}

func (s *slotService) Unpublish(ctx context.Context, actor entity.Actor, slotID uuid.UUID) error {
	if err := domain.Authorize(actor, domain.CapUnpublishSlot); err != nil {
		return err
	}

	slot, err := s.Get(ctx, slotID)
	if err != nil {
		return err
	}

	if actor.Role != entity.RoleAdmin && slot.EngineerID != actor.UserID {
		return fmt.Errorf("%w: slot %s belongs to another engineer", domain.ErrForbidden, slotID)
	}

	if err := s.slots.Unpublish(ctx, slotID, s.clock()); err != nil {
		return err
	}

	s.log.Info("Slot unpublished",
		zap.String("slot_id", slotID.String()),
		zap.String("by", actor.UserID.String()),
	)
	return nil
}

func (s *slotService) Get(ctx context.Context, slotID uuid.UUID) (*entity.AvailabilitySlot, error) {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSlotNotFound, slotID)
	}
	return slot, nil
}

func (s *slotService) FindAvailable(ctx context.Context, filter repository.SlotFilter) ([]*entity.AvailabilitySlot, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.To.After(filter.From) {
		return nil, fmt.Errorf("%w: from must be before to", domain.ErrInvalidInterval)
	}

	slots, err := s.slots.FindAvailable(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find available slots: %w", err)
	}
	return slots, nil
}

func (s *slotService) Claim(ctx context.Context, slotID uuid.UUID) (*entity.AvailabilitySlot, error) {
	slot, err := s.slots.Claim(ctx, slotID, s.clock())
	if err != nil {
		s.log.Debug("Slot claim rejected", zap.String("slot_id", slotID.String()), zap.Error(err))
		return nil, err
	}
	return slot, nil
}

func (s *slotService) Release(ctx context.Context, slotID uuid.UUID) error {
	if err := s.slots.Release(ctx, slotID, s.clock()); err != nil {
		return err
	}
	s.log.Info("Slot released", zap.String("slot_id", slotID.String()))
	return nil
}
