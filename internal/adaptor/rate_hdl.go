package adaptor

import (
	"encoding/json"
	"net/http"

	"flexsession/internal/dto/request"
	"flexsession/internal/dto/response"
	"flexsession/internal/usecase"
	"flexsession/pkg/utils"

	"go.uber.org/zap"
)

type RateHandler struct {
	service usecase.RateService
	log     *zap.Logger
}

func NewRateHandler(service usecase.RateService, log *zap.Logger) *RateHandler {
	return &RateHandler{
		service: service,
		log:     log.With(zap.String("handler", "rate")),
	}
}

// SetMine handles PUT /api/engineers/me/rates (engineer)
func (h *RateHandler) SetMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.SetRatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	rates, err := h.service.SetRates(r.Context(), actor, usecase.SetRatesInput{
		DisplayName: req.DisplayName,
		HourlyRate:  req.HourlyRate,
		RushRate:    req.RushRate,
	})
	if err != nil {
		handleServiceError(h.log, w, err, "set rates")
		return
	}

	utils.ResponseSuccess(w, "success", response.NewRateResponse(rates))
}

// Get handles GET /api/engineers/{id}/rates (public)
func (h *RateHandler) Get(w http.ResponseWriter, r *http.Request) {
	engineerID, ok := idParam(r)
	if !ok {
		utils.ResponseBadRequest(w, "Invalid engineer ID", nil)
		return
	}

	rates, err := h.service.GetRates(r.Context(), engineerID)
	if err != nil {
		handleServiceError(h.log, w, err, "get rates")
		return
	}

	utils.ResponseSuccess(w, "success", response.NewRateResponse(rates))
}
