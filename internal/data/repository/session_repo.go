package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flexsession/internal/data/entity"
	"flexsession/internal/domain"
	"flexsession/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type SessionRepository interface {
	// Create fails with domain.ErrSlotUnavailable when the slot already has a session.
	Create(ctx context.Context, session *entity.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	FindByPaymentRef(ctx context.Context, ref string) (*entity.Session, error)
	FindByArtistID(ctx context.Context, artistID uuid.UUID, limit, offset int) ([]*entity.Session, error)
	CountByArtistID(ctx context.Context, artistID uuid.UUID) (int64, error)
	FindByEngineerID(ctx context.Context, engineerID uuid.UUID, limit, offset int) ([]*entity.Session, error)
	CountByEngineerID(ctx context.Context, engineerID uuid.UUID) (int64, error)
	SetPaymentRef(ctx context.Context, id uuid.UUID, ref string, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateStatus moves a session from -> to only if it is still in from.
	// A lost race yields domain.ErrTransitionConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.SessionStatus, at time.Time) error

	// Lifecycle worker queries
	FindDueToStart(ctx context.Context, now time.Time, limit int) ([]*entity.Session, error)
	FindStaleByStatus(ctx context.Context, status entity.SessionStatus, before time.Time, limit int) ([]*entity.Session, error)
}

type sessionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSessionRepository(db database.PgxIface, log *zap.Logger) SessionRepository {
	return &sessionRepository{
		db:  db,
		log: log.With(zap.String("repository", "session")),
	}
}

const sessionColumns = `s.id, s.slot_id, s.artist_id, s.status, s.price_minor, s.currency, s.notes, s.payment_ref, s.created_at, s.updated_at`

func scanSession(row pgx.Row) (*entity.Session, error) {
	var session entity.Session
	err := row.Scan(
		&session.ID,
		&session.SlotID,
		&session.ArtistID,
		&session.Status,
		&session.PriceMinor,
		&session.Currency,
		&session.Notes,
		&session.PaymentRef,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) collect(rows pgx.Rows) ([]*entity.Session, error) {
	defer rows.Close()

	var sessions []*entity.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			r.log.Error("Failed to scan session row", zap.Error(err))
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	return sessions, nil
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	query := `
		INSERT INTO sessions (id, slot_id, artist_id, status, price_minor, currency, notes, payment_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		session.ID,
		session.SlotID,
		session.ArtistID,
		session.Status,
		session.PriceMinor,
		session.Currency,
		session.Notes,
		session.PaymentRef,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: slot %s already booked", domain.ErrSlotUnavailable, session.SlotID)
		}
		r.log.Error("Failed to create session",
			zap.Error(err),
			zap.String("slot_id", session.SlotID.String()),
			zap.String("artist_id", session.ArtistID.String()),
		)
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

func (r *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions s WHERE s.id = $1`

	session, err := scanSession(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find session by ID", zap.Error(err), zap.String("session_id", id.String()))
		return nil, fmt.Errorf("find session %s: %w", id, err)
	}

	return session, nil
}

func (r *sessionRepository) FindByPaymentRef(ctx context.Context, ref string) (*entity.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions s WHERE s.payment_ref = $1`

	session, err := scanSession(r.db.QueryRow(ctx, query, ref))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find session by payment ref", zap.Error(err), zap.String("payment_ref", ref))
		return nil, fmt.Errorf("find session by payment ref %s: %w", ref, err)
	}

	return session, nil
}

func (r *sessionRepository) FindByArtistID(ctx context.Context, artistID uuid.UUID, limit, offset int) ([]*entity.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		WHERE s.artist_id = $1
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, artistID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find sessions by artist", zap.Error(err), zap.String("artist_id", artistID.String()))
		return nil, fmt.Errorf("find sessions by artist %s: %w", artistID, err)
	}

	return r.collect(rows)
}

func (r *sessionRepository) CountByArtistID(ctx context.Context, artistID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sessions WHERE artist_id = $1`, artistID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count sessions by artist %s: %w", artistID, err)
	}
	return total, nil
}

func (r *sessionRepository) FindByEngineerID(ctx context.Context, engineerID uuid.UUID, limit, offset int) ([]*entity.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		JOIN availability_slots a ON a.id = s.slot_id
		WHERE a.engineer_id = $1
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, engineerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find sessions by engineer", zap.Error(err), zap.String("engineer_id", engineerID.String()))
		return nil, fmt.Errorf("find sessions by engineer %s: %w", engineerID, err)
	}

	return r.collect(rows)
}

func (r *sessionRepository) CountByEngineerID(ctx context.Context, engineerID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM sessions s
		JOIN availability_slots a ON a.id = s.slot_id
		WHERE a.engineer_id = $1
	`

	var total int64
	if err := r.db.QueryRow(ctx, query, engineerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count sessions by engineer %s: %w", engineerID, err)
	}
	return total, nil
}

func (r *sessionRepository) SetPaymentRef(ctx context.Context, id uuid.UUID, ref string, at time.Time) error {
	query := `UPDATE sessions SET payment_ref = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, ref, at)
	if err != nil {
		r.log.Error("Failed to set payment ref",
			zap.Error(err),
			zap.String("session_id", id.String()),
			zap.String("payment_ref", ref),
		)
		return fmt.Errorf("set payment ref for session %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}

	return nil
}

func (r *sessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.SessionStatus, at time.Time) error {
	query := `UPDATE sessions SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`

	result, err := r.db.Exec(ctx, query, id, from, to, at)
	if err != nil {
		r.log.Error("Failed to update session status",
			zap.Error(err),
			zap.String("session_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("update session %s status: %w", id, err)
	}

	if result.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check session %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return fmt.Errorf("%w: %s is no longer %s", domain.ErrTransitionConflict, id, from)
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete session", zap.Error(err), zap.String("session_id", id.String()))
		return fmt.Errorf("delete session %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}

	return nil
}

func (r *sessionRepository) FindDueToStart(ctx context.Context, now time.Time, limit int) ([]*entity.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		JOIN availability_slots a ON a.id = s.slot_id
		WHERE s.status = $1 AND a.start_at <= $2
		ORDER BY a.start_at ASC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, entity.SessionStatusConfirmed, now, limit)
	if err != nil {
		r.log.Error("Failed to find sessions due to start", zap.Error(err))
		return nil, fmt.Errorf("find sessions due to start: %w", err)
	}

	return r.collect(rows)
}

func (r *sessionRepository) FindStaleByStatus(ctx context.Context, status entity.SessionStatus, before time.Time, limit int) ([]*entity.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		WHERE s.status = $1 AND s.updated_at <= $2
		ORDER BY s.updated_at ASC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, status, before, limit)
	if err != nil {
		r.log.Error("Failed to find stale sessions", zap.Error(err), zap.String("status", string(status)))
		return nil, fmt.Errorf("find stale %s sessions: %w", status, err)
	}

	return r.collect(rows)
}
