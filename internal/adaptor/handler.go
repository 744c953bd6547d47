package adaptor

import (
	"errors"
	"net/http"

	"flexsession/internal/data/entity"
	"flexsession/internal/domain"
	"flexsession/internal/usecase"
	"flexsession/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Slot    *SlotHandler
	Session *SessionHandler
	Rate    *RateHandler
	Webhook *WebhookHandler
}

func NewHandler(service *usecase.Service, webhookSecret string, log *zap.Logger) *Handler {
	return &Handler{
		Slot:    NewSlotHandler(service.Slot, log),
		Session: NewSessionHandler(service.Booking, service.Session, log),
		Rate:    NewRateHandler(service.Rate, log),
		Webhook: NewWebhookHandler(service.Payment, webhookSecret, log),
	}
}

// actorFromRequest builds the caller identity placed in the context by the
// auth middleware.
func actorFromRequest(r *http.Request) (entity.Actor, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return entity.Actor{}, false
	}
	role, ok := utils.GetRoleFromContext(r.Context())
	if !ok {
		return entity.Actor{}, false
	}

	return entity.Actor{
		UserID: userID,
		Role:   entity.UserRole(role),
		Email:  utils.GetEmailFromContext(r.Context()),
	}, true
}

func idParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps domain errors to HTTP responses
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidInterval),
		errors.Is(err, domain.ErrInvalidRate):
		log.Warn("Invalid input for "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, domain.ErrForbidden):
		log.Warn(operation+" failed - forbidden",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, domain.ErrSlotNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrRateProfileNotFound):
		log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, domain.ErrSlotUnavailable),
		errors.Is(err, domain.ErrTransitionConflict),
		errors.Is(err, domain.ErrIllegalTransition):
		log.Warn(operation+" failed - conflict",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, domain.ErrPaymentInitiationFailed):
		log.Error(operation+" failed - payment provider",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadGateway(w, "Payment could not be started, please try again")

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
