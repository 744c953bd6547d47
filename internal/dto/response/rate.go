package response

import (
	"time"

	"flexsession/internal/data/entity"
)

type RateResponse struct {
	EngineerID  string    `json:"engineer_id"`
	DisplayName string    `json:"display_name,omitempty"`
	HourlyRate  int64     `json:"hourly_rate"`
	RushRate    *int64    `json:"rush_rate,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewRateResponse(rates *entity.RateProfile) RateResponse {
	return RateResponse{
		EngineerID:  rates.EngineerID.String(),
		DisplayName: rates.DisplayName,
		HourlyRate:  rates.HourlyRate,
		RushRate:    rates.RushRate,
		UpdatedAt:   rates.UpdatedAt,
	}
}
