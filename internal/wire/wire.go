package wire

import (
	"net/http"

	"flexsession/internal/adaptor"
	"flexsession/internal/data/repository"
	"flexsession/internal/events"
	"flexsession/internal/gateway"
	"flexsession/internal/usecase"
	"flexsession/pkg/middleware"
	"flexsession/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring menginisialisasi semua dependencies
func Wiring(
	repo *repository.Repository,
	gw gateway.PaymentGateway,
	publisher events.EventPublisher,
	config *utils.Config,
	logger *zap.Logger,
	opts ...usecase.Option,
) *App {
	// Initialize services dan handlers
	service := usecase.NewService(repo, gw, publisher, config, logger, opts...)
	handler := adaptor.NewHandler(service, config.Payment.WebhookSecret, logger)

	// Setup router
	router := setupRouter(handler, gw, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(
	handler *adaptor.Handler,
	gw gateway.PaymentGateway,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	auth := middleware.AuthJWT(config.JWT.Secret, config.JWT.Issuer, logger)

	// Apply routes
	wireSlot(r, handler.Slot, auth, logger)
	wireSession(r, handler.Session, auth, logger)
	wireRate(r, handler.Rate, auth, logger)
	wireWebhook(r, handler.Webhook, gw)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
