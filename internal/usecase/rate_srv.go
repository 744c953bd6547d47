package usecase

import (
	"context"
	"fmt"
	"strings"

	"flexsession/internal/data/entity"
	"flexsession/internal/data/repository"
	"flexsession/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SetRatesInput struct {
	DisplayName string
	HourlyRate  int64
	RushRate    *int64
}

// RateService manages the pricing part of an engineer profile.
type RateService interface {
	SetRates(ctx context.Context, actor entity.Actor, in SetRatesInput) (*entity.RateProfile, error)
	GetRates(ctx context.Context, engineerID uuid.UUID) (*entity.RateProfile, error)
}

type rateService struct {
	rates repository.RateRepository
	clock Clock
	log   *zap.Logger
}

func NewRateService(rates repository.RateRepository, clock Clock, log *zap.Logger) RateService {
	return &rateService{
		rates: rates,
		clock: clock,
		log:   log.With(zap.String("service", "rate")),
	}
}

func (s *rateService) SetRates(ctx context.Context, actor entity.Actor, in SetRatesInput) (*entity.RateProfile, error) {
	if err := domain.Authorize(actor, domain.CapManageRates); err != nil {
		return nil, err
	}

	rates := &entity.RateProfile{
		EngineerID:  actor.UserID,
		DisplayName: strings.TrimSpace(in.DisplayName),
		HourlyRate:  in.HourlyRate,
		RushRate:    in.RushRate,
		UpdatedAt:   s.clock(),
	}
	if err := domain.ValidateRates(*rates); err != nil {
		return nil, err
	}

	if err := s.rates.Upsert(ctx, rates); err != nil {
		return nil, err
	}

	s.log.Info("Rates updated",
		zap.String("engineer_id", actor.UserID.String()),
		zap.Int64("hourly_rate", rates.HourlyRate))

	return rates, nil
}

func (s *rateService) GetRates(ctx context.Context, engineerID uuid.UUID) (*entity.RateProfile, error) {
	rates, err := s.rates.FindByEngineerID(ctx, engineerID)
	if err != nil {
		return nil, err
	}
	if rates == nil {
		return nil, fmt.Errorf("%w: engineer %s", domain.ErrRateProfileNotFound, engineerID)
	}
	return rates, nil
}
