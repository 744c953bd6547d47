package wire

import (
	"net/http"

	"flexsession/internal/adaptor"
	"flexsession/internal/data/entity"
	"flexsession/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireRate(
	r chi.Router,
	rateHandler *adaptor.RateHandler,
	auth func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	// PUT /api/engineers/me/rates - Set own hourly and rush rate (engineer)
	r.With(auth, middleware.RequireRole(log, string(entity.RoleEngineer))).
		Put("/api/engineers/me/rates", rateHandler.SetMine)

	// GET /api/engineers/{id}/rates - Public price list
	r.Get("/api/engineers/{id}/rates", rateHandler.Get)
}
