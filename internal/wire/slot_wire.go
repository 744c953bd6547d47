package wire

import (
	"net/http"

	"flexsession/internal/adaptor"
	"flexsession/internal/data/entity"
	"flexsession/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSlot(
	r chi.Router,
	slotHandler *adaptor.SlotHandler,
	auth func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/availability - Browse open slots (filter engineer_id, from, to)
	r.Get("/api/availability", slotHandler.ListAvailable)

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(auth)

		// POST /api/availability - Publish a slot (engineer)
		r.With(middleware.RequireRole(log, string(entity.RoleEngineer))).
			Post("/api/availability", slotHandler.Publish)

		// PUT /api/availability/{id}/unpublish - Hide a slot (owner engineer or admin)
		r.With(middleware.RequireRole(log, string(entity.RoleEngineer), string(entity.RoleAdmin))).
			Put("/api/availability/{id}/unpublish", slotHandler.Unpublish)
	})
}
