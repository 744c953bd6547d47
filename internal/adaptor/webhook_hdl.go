package adaptor

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"flexsession/internal/usecase"
	"flexsession/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

// WebhookHandler turns verified gateway notifications into payment events.
type WebhookHandler struct {
	payments      usecase.PaymentService
	webhookSecret string
	log           *zap.Logger
}

func NewWebhookHandler(payments usecase.PaymentService, webhookSecret string, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		payments:      payments,
		webhookSecret: webhookSecret,
		log:           log.With(zap.String("handler", "webhook")),
	}
}

// Stripe handles POST /api/webhooks/stripe (signature verified)
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret == "" {
		h.log.Error("Stripe webhook received but no signing secret is configured")
		utils.ResponseInternalError(w, "Webhook not configured")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		utils.ResponseBadRequest(w, "Failed to read request body", nil)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		utils.ResponseBadRequest(w, "Missing Stripe-Signature header", nil)
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.log.Warn("Invalid webhook signature", zap.Error(err))
		utils.ResponseBadRequest(w, "Invalid signature", nil)
		return
	}

	var kind usecase.PaymentEventKind
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		kind = usecase.PaymentCompleted
	case "checkout.session.expired":
		kind = usecase.PaymentExpired
	case "checkout.session.async_payment_failed":
		kind = usecase.PaymentFailed
	default:
		h.log.Debug("Unhandled webhook event type", zap.String("type", string(event.Type)))
		utils.ResponseSuccess(w, "ignored", nil)
		return
	}

	var checkout stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &checkout); err != nil {
		h.log.Error("Failed to parse checkout session", zap.Error(err), zap.String("event_id", event.ID))
		utils.ResponseBadRequest(w, "Failed to parse event data", nil)
		return
	}

	// Delayed payment methods complete the checkout before the money arrives;
	// async_payment_succeeded follows.
	if event.Type == "checkout.session.completed" && checkout.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		h.log.Info("Checkout completed, payment pending", zap.String("payment_ref", checkout.ID))
		utils.ResponseSuccess(w, "pending", nil)
		return
	}

	sessionID, _ := uuid.Parse(checkout.Metadata["session_id"])

	err = h.payments.HandleEvent(r.Context(), usecase.PaymentEvent{
		ID:          event.ID,
		Kind:        kind,
		ExternalRef: checkout.ID,
		SessionID:   sessionID,
	})
	if err != nil {
		// Non-2xx makes Stripe redeliver.
		handleServiceError(h.log, w, err, "handle stripe webhook")
		return
	}

	utils.ResponseSuccess(w, "received", nil)
}

// MockCheckout handles POST /mock-checkout/{ref}/{outcome}. It stands in for
// the hosted checkout page when the mock gateway is active.
func (h *WebhookHandler) MockCheckout(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	if !strings.HasPrefix(ref, "mock_cs_") {
		utils.ResponseBadRequest(w, "Unknown checkout", nil)
		return
	}

	var kind usecase.PaymentEventKind
	switch chi.URLParam(r, "outcome") {
	case "pay":
		kind = usecase.PaymentCompleted
	case "expire":
		kind = usecase.PaymentExpired
	default:
		utils.ResponseBadRequest(w, "Outcome must be pay or expire", nil)
		return
	}

	sessionID, _ := uuid.Parse(strings.TrimPrefix(ref, "mock_cs_"))

	err := h.payments.HandleEvent(r.Context(), usecase.PaymentEvent{
		ID:          "mock_evt_" + uuid.NewString(),
		Kind:        kind,
		ExternalRef: ref,
		SessionID:   sessionID,
	})
	if err != nil {
		handleServiceError(h.log, w, err, "mock checkout")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
