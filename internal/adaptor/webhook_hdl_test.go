package adaptor

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flexsession/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

func checkoutEvent(eventID, eventType, ref, paymentStatus string) []byte {
	payload, _ := json.Marshal(map[string]any{
		"id":     eventID,
		"object": "event",
		"type":   eventType,
		"data": map[string]any{
			"object": map[string]any{
				"id":             ref,
				"object":         "checkout.session",
				"payment_status": paymentStatus,
				"metadata":       map[string]string{"session_id": uuid.NewString()},
			},
		},
	})
	return payload
}

func (e *testEnv) postWebhook(t *testing.T, payload []byte, secret string) *httptest.ResponseRecorder {
	t.Helper()

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// bookInstant books an INSTANT slot and returns the session id and checkout ref.
func (e *testEnv) bookInstant(t *testing.T) (uuid.UUID, string) {
	t.Helper()

	slotID := e.seed(t, "INSTANT")
	rec, res := e.do(t, http.MethodPost, "/artist/sessions", map[string]any{"slot_id": slotID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	id := uuid.MustParse(res.Data.(map[string]any)["session"].(map[string]any)["id"].(string))
	session, err := e.repo.Session.FindByID(t.Context(), id)
	require.NoError(t, err)
	require.NotNil(t, session.PaymentRef)
	return id, *session.PaymentRef
}

func (e *testEnv) sessionStatus(t *testing.T, id uuid.UUID) entity.SessionStatus {
	t.Helper()
	session, err := e.repo.Session.FindByID(t.Context(), id)
	require.NoError(t, err)
	require.NotNil(t, session)
	return session.Status
}

func TestWebhookHandler_CompletedConfirms(t *testing.T) {
	env := newTestEnv(t)
	id, ref := env.bookInstant(t)

	payload := checkoutEvent("evt_paid", "checkout.session.completed", ref, "paid")

	rec := env.postWebhook(t, payload, testWebhookSecret)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, entity.SessionStatusConfirmed, env.sessionStatus(t, id))

	// Redelivery is acknowledged.
	rec = env.postWebhook(t, payload, testWebhookSecret)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookHandler_AsyncPaymentWaits(t *testing.T) {
	env := newTestEnv(t)
	id, ref := env.bookInstant(t)

	rec := env.postWebhook(t, checkoutEvent("evt_c", "checkout.session.completed", ref, "unpaid"), testWebhookSecret)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.SessionStatusPending, env.sessionStatus(t, id))

	rec = env.postWebhook(t, checkoutEvent("evt_f", "checkout.session.async_payment_failed", ref, "unpaid"), testWebhookSecret)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.SessionStatusDeclined, env.sessionStatus(t, id))
}

func TestWebhookHandler_Expired(t *testing.T) {
	env := newTestEnv(t)
	id, ref := env.bookInstant(t)

	rec := env.postWebhook(t, checkoutEvent("evt_x", "checkout.session.expired", ref, "unpaid"), testWebhookSecret)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.SessionStatusDeclined, env.sessionStatus(t, id))
}

func TestWebhookHandler_RejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	id, ref := env.bookInstant(t)

	rec := env.postWebhook(t, checkoutEvent("evt_forged", "checkout.session.completed", ref, "paid"), "whsec_wrong")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, entity.SessionStatusPending, env.sessionStatus(t, id))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader([]byte(`{}`)))
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_IgnoresOtherEvents(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postWebhook(t, checkoutEvent("evt_other", "customer.created", "cus_1", ""), testWebhookSecret)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookHandler_MockCheckout(t *testing.T) {
	env := newTestEnv(t)
	id, ref := env.bookInstant(t)

	rec, _ := env.do(t, http.MethodPost, "/mock-checkout/"+ref+"/refund", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/mock-checkout/"+ref+"/pay", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, entity.SessionStatusConfirmed, env.sessionStatus(t, id))
}
