package response

import (
	"time"

	"flexsession/internal/data/entity"
)

type SlotResponse struct {
	ID          string    `json:"id"`
	EngineerID  string    `json:"engineer_id"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	TaskType    string    `json:"task_type"`
	Mode        string    `json:"mode"`
	IsPublished bool      `json:"is_published"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewSlotResponse(slot *entity.AvailabilitySlot) SlotResponse {
	return SlotResponse{
		ID:          slot.ID.String(),
		EngineerID:  slot.EngineerID.String(),
		StartAt:     slot.Start,
		EndAt:       slot.End,
		TaskType:    string(slot.TaskType),
		Mode:        string(slot.Mode),
		IsPublished: slot.IsPublished,
		Available:   slot.Available(),
		CreatedAt:   slot.CreatedAt,
	}
}

func NewSlotResponses(slots []*entity.AvailabilitySlot) []SlotResponse {
	items := make([]SlotResponse, 0, len(slots))
	for _, slot := range slots {
		items = append(items, NewSlotResponse(slot))
	}
	return items
}
