package request

type BookSessionRequest struct {
	SlotID string `json:"slot_id" validate:"required,uuid"`
	Notes  string `json:"notes,omitempty" validate:"max=2000"`
}
