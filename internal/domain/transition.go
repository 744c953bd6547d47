package domain

import (
	"flexsession/internal/data/entity"
)

var transitions = map[entity.SessionStatus][]entity.SessionStatus{
	entity.SessionStatusPending: {
		entity.SessionStatusConfirmed,
		entity.SessionStatusDeclined,
		entity.SessionStatusCanceled,
	},
	entity.SessionStatusConfirmed: {
		entity.SessionStatusInProgress,
		entity.SessionStatusCanceled,
	},
	entity.SessionStatusInProgress: {
		entity.SessionStatusDelivered,
	},
	entity.SessionStatusDelivered: {
		entity.SessionStatusCompleted,
	},
}

// AllStatuses lists every session status in lifecycle order.
var AllStatuses = []entity.SessionStatus{
	entity.SessionStatusPending,
	entity.SessionStatusConfirmed,
	entity.SessionStatusInProgress,
	entity.SessionStatusDelivered,
	entity.SessionStatusCompleted,
	entity.SessionStatusCanceled,
	entity.SessionStatusDeclined,
}

func CanTransition(from, to entity.SessionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns an *IllegalTransitionError when from -> to is not
// an edge of the lifecycle graph.
func CheckTransition(from, to entity.SessionStatus) error {
	if !CanTransition(from, to) {
		return &IllegalTransitionError{From: from, To: to}
	}
	return nil
}

func IsTerminal(status entity.SessionStatus) bool {
	return len(transitions[status]) == 0
}
