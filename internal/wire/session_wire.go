package wire

import (
	"net/http"

	"flexsession/internal/adaptor"
	"flexsession/internal/data/entity"
	"flexsession/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSession(
	r chi.Router,
	sessionHandler *adaptor.SessionHandler,
	auth func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(auth)

		// POST /api/sessions - Book a slot (artist)
		r.With(middleware.RequireRole(log, string(entity.RoleArtist))).
			Post("/api/sessions", sessionHandler.Book)

		// GET /api/user/sessions - Own sessions (artist: booked, engineer: on own slots)
		r.Get("/api/user/sessions", sessionHandler.ListMine)

		// Participant checks happen in the service
		r.Route("/api/sessions/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Post("/accept", sessionHandler.Accept)
			r.Post("/decline", sessionHandler.Decline)
			r.Post("/deliver", sessionHandler.Deliver)
			r.Post("/complete", sessionHandler.Complete)
			r.Post("/cancel", sessionHandler.Cancel)
		})
	})
}
