package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flexsession/internal/data/entity"
	"flexsession/internal/domain"
	"flexsession/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SlotFilter narrows availability queries. Zero values mean "no bound".
type SlotFilter struct {
	EngineerID *uuid.UUID
	From       time.Time
	To         time.Time
}

type SlotRepository interface {
	Create(ctx context.Context, slot *entity.AvailabilitySlot) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.AvailabilitySlot, error)
	FindAvailable(ctx context.Context, filter SlotFilter) ([]*entity.AvailabilitySlot, error)
	Unpublish(ctx context.Context, id uuid.UUID, at time.Time) error

	// Claim atomically marks a published, unclaimed slot as occupied.
	// It fails with domain.ErrSlotNotFound or domain.ErrSlotUnavailable.
	Claim(ctx context.Context, id uuid.UUID, at time.Time) (*entity.AvailabilitySlot, error)
	// Release clears the occupancy marker of a slot no session references.
	Release(ctx context.Context, id uuid.UUID, at time.Time) error
}

type slotRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSlotRepository(db database.PgxIface, log *zap.Logger) SlotRepository {
	return &slotRepository{
		db:  db,
		log: log.With(zap.String("repository", "slot")),
	}
}

const slotColumns = `id, engineer_id, start_at, end_at, task_type, mode, is_published, claimed_at, created_at, updated_at`

func scanSlot(row pgx.Row) (*entity.AvailabilitySlot, error) {
	var slot entity.AvailabilitySlot
	err := row.Scan(
		&slot.ID,
		&slot.EngineerID,
		&slot.Start,
		&slot.End,
		&slot.TaskType,
		&slot.Mode,
		&slot.IsPublished,
		&slot.ClaimedAt,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) Create(ctx context.Context, slot *entity.AvailabilitySlot) error {
	query := `
		INSERT INTO availability_slots (id, engineer_id, start_at, end_at, task_type, mode, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		slot.ID,
		slot.EngineerID,
		slot.Start,
		slot.End,
		slot.TaskType,
		slot.Mode,
		slot.IsPublished,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create slot",
			zap.Error(err),
			zap.String("engineer_id", slot.EngineerID.String()),
		)
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

func (r *slotRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.AvailabilitySlot, error) {
	query := `SELECT ` + slotColumns + ` FROM availability_slots WHERE id = $1`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find slot by ID", zap.Error(err), zap.String("slot_id", id.String()))
		return nil, fmt.Errorf("find slot %s: %w", id, err)
	}

	return slot, nil
}

func (r *slotRepository) FindAvailable(ctx context.Context, filter SlotFilter) ([]*entity.AvailabilitySlot, error) {
	conds := []string{"is_published", "claimed_at IS NULL"}
	var args []any

	if filter.EngineerID != nil {
		args = append(args, *filter.EngineerID)
		conds = append(conds, fmt.Sprintf("engineer_id = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conds = append(conds, fmt.Sprintf("end_at > $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conds = append(conds, fmt.Sprintf("start_at < $%d", len(args)))
	}

	query := `SELECT ` + slotColumns + ` FROM availability_slots WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY start_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find available slots", zap.Error(err))
		return nil, fmt.Errorf("find available slots: %w", err)
	}
	defer rows.Close()

	var slots []*entity.AvailabilitySlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			r.log.Error("Failed to scan slot row", zap.Error(err))
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot rows: %w", err)
	}

	return slots, nil
}

func (r *slotRepository) Claim(ctx context.Context, id uuid.UUID, at time.Time) (*entity.AvailabilitySlot, error) {
	query := `
		UPDATE availability_slots SET claimed_at = $2, updated_at = $2
		WHERE id = $1 AND is_published AND claimed_at IS NULL
		RETURNING ` + slotColumns

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id, at))
	if err == nil {
		return slot, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.log.Error("Failed to claim slot", zap.Error(err), zap.String("slot_id", id.String()))
		return nil, fmt.Errorf("claim slot %s: %w", id, err)
	}

	// Lost the conditional update: tell "absent" apart from "taken".
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM availability_slots WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check slot %s: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrSlotNotFound, id)
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSlotUnavailable, id)
}

func (r *slotRepository) Release(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE availability_slots SET claimed_at = NULL, updated_at = $2
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM sessions WHERE slot_id = $1)
	`

	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("Failed to release slot", zap.Error(err), zap.String("slot_id", id.String()))
		return fmt.Errorf("release slot %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s is missing or attached to a session", domain.ErrSlotUnavailable, id)
	}

	return nil
}

func (r *slotRepository) Unpublish(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE availability_slots SET is_published = FALSE, updated_at = $2 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("Failed to unpublish slot", zap.Error(err), zap.String("slot_id", id.String()))
		return fmt.Errorf("unpublish slot %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrSlotNotFound, id)
	}

	return nil
}
