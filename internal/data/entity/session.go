package entity

import (
	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "PENDING"
	SessionStatusConfirmed  SessionStatus = "CONFIRMED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusDelivered  SessionStatus = "DELIVERED"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusCanceled   SessionStatus = "CANCELED"
	SessionStatusDeclined   SessionStatus = "DECLINED"
)

// Session is an artist's booking of a single slot. SlotID and PriceMinor
// are fixed at creation.
type Session struct {
	Base
	SlotID     uuid.UUID     `db:"slot_id"`
	ArtistID   uuid.UUID     `db:"artist_id"`
	Status     SessionStatus `db:"status"`
	PriceMinor int64         `db:"price_minor"`
	Currency   string        `db:"currency"`
	Notes      string        `db:"notes"`
	PaymentRef *string       `db:"payment_ref"`
}
