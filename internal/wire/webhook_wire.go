package wire

import (
	"flexsession/internal/adaptor"
	"flexsession/internal/gateway"

	"github.com/go-chi/chi/v5"
)

func wireWebhook(
	r chi.Router,
	webhookHandler *adaptor.WebhookHandler,
	gw gateway.PaymentGateway,
) {
	// POST /api/webhooks/stripe - Checkout notifications (Stripe-Signature)
	r.Post("/api/webhooks/stripe", webhookHandler.Stripe)

	// Stand-in for the hosted checkout page in local development
	if _, ok := gw.(*gateway.MockGateway); ok {
		r.Post("/mock-checkout/{ref}/{outcome}", webhookHandler.MockCheckout)
	}
}
