package request

import "time"

type PublishSlotRequest struct {
	StartAt     time.Time `json:"start_at" validate:"required"`
	EndAt       time.Time `json:"end_at" validate:"required"`
	TaskType    string    `json:"task_type" validate:"required,oneof=MIX_TWEAK MASTER_QC VOCAL_EDIT PROD_ASSIST ARRANGE_FEEDBACK"`
	Mode        string    `json:"mode,omitempty" validate:"omitempty,oneof=INSTANT REQUEST"`
	IsPublished *bool     `json:"is_published,omitempty"`
}
