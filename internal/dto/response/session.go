package response

import (
	"time"

	"flexsession/internal/data/entity"
)

type SessionResponse struct {
	ID         string        `json:"id"`
	SlotID     string        `json:"slot_id"`
	ArtistID   string        `json:"artist_id"`
	EngineerID string        `json:"engineer_id,omitempty"`
	Status     string        `json:"status"`
	PriceMinor int64         `json:"price_minor"`
	Currency   string        `json:"currency"`
	Notes      string        `json:"notes,omitempty"`
	Slot       *SlotResponse `json:"slot,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// BookingResponse is returned by POST /api/sessions. PaymentRedirect is
// only present for INSTANT slots.
type BookingResponse struct {
	Session         SessionResponse `json:"session"`
	PaymentRedirect string          `json:"payment_redirect,omitempty"`
}

// NewSessionResponse converts a session; slot may be nil.
func NewSessionResponse(session *entity.Session, slot *entity.AvailabilitySlot) SessionResponse {
	res := SessionResponse{
		ID:         session.ID.String(),
		SlotID:     session.SlotID.String(),
		ArtistID:   session.ArtistID.String(),
		Status:     string(session.Status),
		PriceMinor: session.PriceMinor,
		Currency:   session.Currency,
		Notes:      session.Notes,
		CreatedAt:  session.CreatedAt,
		UpdatedAt:  session.UpdatedAt,
	}

	if slot != nil {
		s := NewSlotResponse(slot)
		res.EngineerID = s.EngineerID
		res.Slot = &s
	}

	return res
}

func NewBookingResponse(session *entity.Session, slot *entity.AvailabilitySlot, redirect string) BookingResponse {
	return BookingResponse{
		Session:         NewSessionResponse(session, slot),
		PaymentRedirect: redirect,
	}
}
