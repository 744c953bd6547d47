package adaptor

import (
	"context"
	"encoding/json"
	"net/http"

	"flexsession/internal/data/entity"
	"flexsession/internal/dto/request"
	"flexsession/internal/dto/response"
	"flexsession/internal/usecase"
	"flexsession/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionHandler struct {
	booking  usecase.BookingService
	sessions usecase.SessionService
	log      *zap.Logger
}

func NewSessionHandler(booking usecase.BookingService, sessions usecase.SessionService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{
		booking:  booking,
		sessions: sessions,
		log:      log.With(zap.String("handler", "session")),
	}
}

// Book handles POST /api/sessions (artist)
func (h *SessionHandler) Book(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.BookSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid slot ID", nil)
		return
	}

	result, err := h.booking.Book(r.Context(), actor, usecase.BookInput{
		SlotID: slotID,
		Notes:  req.Notes,
	})
	if err != nil {
		handleServiceError(h.log, w, err, "book session")
		return
	}

	utils.ResponseCreated(w, "success", response.NewBookingResponse(result.Session, result.Slot, result.PaymentRedirect))
}

// Get handles GET /api/sessions/{id} (participants)
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "get session", h.sessions.Get)
}

// ListMine handles GET /api/user/sessions
func (h *SessionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	sessions, err := h.sessions.ListMine(r.Context(), actor, request.PaginationFromQuery(r.URL.Query()))
	if err != nil {
		handleServiceError(h.log, w, err, "list sessions")
		return
	}

	utils.ResponseSuccess(w, "success", sessions)
}

// ==================== TRANSITIONS ====================

// Accept handles POST /api/sessions/{id}/accept (engineer, REQUEST mode)
func (h *SessionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "accept session", h.sessions.Accept)
}

// Decline handles POST /api/sessions/{id}/decline (engineer, REQUEST mode)
func (h *SessionHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "decline session", h.sessions.Decline)
}

// Deliver handles POST /api/sessions/{id}/deliver (engineer)
func (h *SessionHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "deliver session", h.sessions.Deliver)
}

// Complete handles POST /api/sessions/{id}/complete (artist)
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "complete session", h.sessions.Complete)
}

// Cancel handles POST /api/sessions/{id}/cancel (participants)
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "cancel session", h.sessions.Cancel)
}

type sessionAction func(ctx context.Context, actor entity.Actor, sessionID uuid.UUID) (*usecase.SessionDetail, error)

func (h *SessionHandler) withSession(w http.ResponseWriter, r *http.Request, operation string, action sessionAction) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	sessionID, ok := idParam(r)
	if !ok {
		utils.ResponseBadRequest(w, "Invalid session ID", nil)
		return
	}

	detail, err := action(r.Context(), actor, sessionID)
	if err != nil {
		handleServiceError(h.log, w, err, operation)
		return
	}

	utils.ResponseSuccess(w, "success", response.NewSessionResponse(detail.Session, detail.Slot))
}
