package adaptor

import (
	"encoding/json"
	"net/http"

	"flexsession/internal/data/entity"
	"flexsession/internal/data/repository"
	"flexsession/internal/dto/request"
	"flexsession/internal/dto/response"
	"flexsession/internal/usecase"
	"flexsession/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SlotHandler struct {
	service usecase.SlotService
	log     *zap.Logger
}

func NewSlotHandler(service usecase.SlotService, log *zap.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log.With(zap.String("handler", "slot")),
	}
}

// ListAvailable handles GET /api/availability (public)
func (h *SlotHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter repository.SlotFilter

	if raw := query.Get("engineer_id"); raw != "" {
		engineerID, err := uuid.Parse(raw)
		if err != nil {
			utils.ResponseBadRequest(w, "Invalid engineer_id", nil)
			return
		}
		filter.EngineerID = &engineerID
	}

	var err error
	if filter.From, err = utils.ParseTime(query.Get("from")); err != nil {
		utils.ResponseBadRequest(w, "Invalid from, expected RFC3339", nil)
		return
	}
	if filter.To, err = utils.ParseTime(query.Get("to")); err != nil {
		utils.ResponseBadRequest(w, "Invalid to, expected RFC3339", nil)
		return
	}

	slots, err := h.service.FindAvailable(r.Context(), filter)
	if err != nil {
		handleServiceError(h.log, w, err, "list availability")
		return
	}

	utils.ResponseSuccess(w, "success", response.NewSlotResponses(slots))
}

// Publish handles POST /api/availability (engineer)
func (h *SlotHandler) Publish(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.PublishSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	slot, err := h.service.Publish(r.Context(), actor, usecase.PublishSlotInput{
		Start:       req.StartAt,
		End:         req.EndAt,
		TaskType:    entity.TaskType(req.TaskType),
		Mode:        entity.BookingMode(req.Mode),
		IsPublished: req.IsPublished,
	})
	if err != nil {
		handleServiceError(h.log, w, err, "publish slot")
		return
	}

	utils.ResponseCreated(w, "success", response.NewSlotResponse(slot))
}

// Unpublish handles PUT /api/availability/{id}/unpublish (engineer, admin)
func (h *SlotHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	slotID, ok := idParam(r)
	if !ok {
		utils.ResponseBadRequest(w, "Invalid slot ID", nil)
		return
	}

	if err := h.service.Unpublish(r.Context(), actor, slotID); err != nil {
		handleServiceError(h.log, w, err, "unpublish slot")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
