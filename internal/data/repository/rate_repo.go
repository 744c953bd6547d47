package repository

import (
	"context"
	"errors"
	"fmt"

	"flexsession/internal/data/entity"
	"flexsession/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// RateRepository reads the pricing columns of engineer profiles.
type RateRepository interface {
	FindByEngineerID(ctx context.Context, engineerID uuid.UUID) (*entity.RateProfile, error)
	Upsert(ctx context.Context, rates *entity.RateProfile) error
}

type rateRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRateRepository(db database.PgxIface, log *zap.Logger) RateRepository {
	return &rateRepository{
		db:  db,
		log: log.With(zap.String("repository", "rate")),
	}
}

func (r *rateRepository) FindByEngineerID(ctx context.Context, engineerID uuid.UUID) (*entity.RateProfile, error) {
	query := `
		SELECT engineer_id, display_name, hourly_rate, rush_rate, updated_at
		FROM engineer_profiles
		WHERE engineer_id = $1
	`

	var rates entity.RateProfile
	err := r.db.QueryRow(ctx, query, engineerID).Scan(
		&rates.EngineerID,
		&rates.DisplayName,
		&rates.HourlyRate,
		&rates.RushRate,
		&rates.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find rate profile",
			zap.Error(err),
			zap.String("engineer_id", engineerID.String()),
		)
		return nil, fmt.Errorf("find rate profile %s: %w", engineerID, err)
	}

	return &rates, nil
}

func (r *rateRepository) Upsert(ctx context.Context, rates *entity.RateProfile) error {
	query := `
		INSERT INTO engineer_profiles (engineer_id, display_name, hourly_rate, rush_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (engineer_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    hourly_rate = EXCLUDED.hourly_rate,
		    rush_rate = EXCLUDED.rush_rate,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(ctx, query,
		rates.EngineerID,
		rates.DisplayName,
		rates.HourlyRate,
		rates.RushRate,
		rates.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to upsert rate profile",
			zap.Error(err),
			zap.String("engineer_id", rates.EngineerID.String()),
		)
		return fmt.Errorf("upsert rate profile %s: %w", rates.EngineerID, err)
	}

	return nil
}
