package entity

import (
	"time"

	"github.com/google/uuid"
)

// RateProfile holds the engineer's pricing, in minor currency units per hour.
type RateProfile struct {
	EngineerID  uuid.UUID `db:"engineer_id"`
	DisplayName string    `db:"display_name"`
	HourlyRate  int64     `db:"hourly_rate"`
	RushRate    *int64    `db:"rush_rate"`
	UpdatedAt   time.Time `db:"updated_at"`
}
