package entity

import (
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskMixTweak        TaskType = "MIX_TWEAK"
	TaskMasterQC        TaskType = "MASTER_QC"
	TaskVocalEdit       TaskType = "VOCAL_EDIT"
	TaskProdAssist      TaskType = "PROD_ASSIST"
	TaskArrangeFeedback TaskType = "ARRANGE_FEEDBACK"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskMixTweak, TaskMasterQC, TaskVocalEdit, TaskProdAssist, TaskArrangeFeedback:
		return true
	}
	return false
}

type BookingMode string

const (
	ModeInstant BookingMode = "INSTANT"
	ModeRequest BookingMode = "REQUEST"
)

func (m BookingMode) Valid() bool {
	return m == ModeInstant || m == ModeRequest
}

// AvailabilitySlot is an engineer-published offer for one session.
// ClaimedAt is the occupancy marker: non-nil once a booking attempt has
// reserved the slot.
type AvailabilitySlot struct {
	Base
	EngineerID  uuid.UUID   `db:"engineer_id"`
	Start       time.Time   `db:"start_at"`
	End         time.Time   `db:"end_at"`
	TaskType    TaskType    `db:"task_type"`
	Mode        BookingMode `db:"mode"`
	IsPublished bool        `db:"is_published"`
	ClaimedAt   *time.Time  `db:"claimed_at"`
}

// Available reports whether the slot can still be claimed.
func (s *AvailabilitySlot) Available() bool {
	return s.IsPublished && s.ClaimedAt == nil
}

func (s *AvailabilitySlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether the slot intersects [from, to). Zero bounds are open.
func (s *AvailabilitySlot) Overlaps(from, to time.Time) bool {
	if !from.IsZero() && !s.End.After(from) {
		return false
	}
	if !to.IsZero() && !s.Start.Before(to) {
		return false
	}
	return true
}
