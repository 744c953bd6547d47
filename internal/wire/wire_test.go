package wire

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flexsession/internal/data/repository"
	"flexsession/internal/events"
	"flexsession/internal/gateway"
	"flexsession/internal/usecase"
	"flexsession/pkg/middleware"
	"flexsession/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const jwtSecret = "test-secret"

var now = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	claims := middleware.Claims{
		Role:  role,
		Email: role + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

func newApp(t *testing.T) *App {
	t.Helper()
	config := &utils.Config{
		JWT:     utils.JWTConfig{Secret: jwtSecret},
		Payment: utils.PaymentConfig{Gateway: "mock", Currency: "usd", Timeout: time.Second},
		Worker:  utils.WorkerConfig{AutoCompleteAfter: 72 * time.Hour, BatchSize: 10},
	}
	return Wiring(repository.NewMemoryRepository(), gateway.NewMockGateway(nil), events.NoopPublisher{},
		config, zap.NewNop(), usecase.WithClock(func() time.Time { return now }))
}

func call(t *testing.T, app *App, method, path, bearer string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	var res map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	return rec.Code, res
}

func TestWiring_BookingFlow(t *testing.T) {
	app := newApp(t)
	engineer := token(t, uuid.New(), "ENGINEER")
	artist := token(t, uuid.New(), "ARTIST")

	code, _ := call(t, app, http.MethodPut, "/api/engineers/me/rates", engineer, map[string]any{"hourly_rate": 12000, "rush_rate": 18000})
	require.Equal(t, http.StatusOK, code)

	start := now.Add(10 * time.Hour)
	code, res := call(t, app, http.MethodPost, "/api/availability", engineer, map[string]any{
		"start_at":  start.Format(time.RFC3339),
		"end_at":    start.Add(2 * time.Hour).Format(time.RFC3339),
		"task_type": "MASTER_QC",
	})
	require.Equal(t, http.StatusCreated, code)
	slotID := res["data"].(map[string]any)["id"].(string)

	code, res = call(t, app, http.MethodPost, "/api/sessions", artist, map[string]any{"slot_id": slotID})
	require.Equal(t, http.StatusCreated, code)
	session := res["data"].(map[string]any)["session"].(map[string]any)
	assert.EqualValues(t, 36000, session["price_minor"])

	code, _ = call(t, app, http.MethodGet, "/api/sessions/"+session["id"].(string), artist, nil)
	assert.Equal(t, http.StatusOK, code)

	ref := "mock_cs_" + session["id"].(string)
	code, _ = call(t, app, http.MethodPost, "/mock-checkout/"+ref+"/pay", "", nil)
	require.Equal(t, http.StatusOK, code)

	code, res = call(t, app, http.MethodGet, "/api/user/sessions", artist, nil)
	require.Equal(t, http.StatusOK, code)
	items := res["data"].(map[string]any)["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "CONFIRMED", items[0].(map[string]any)["status"])
}

func TestWiring_RouteGuards(t *testing.T) {
	app := newApp(t)
	artist := token(t, uuid.New(), "ARTIST")
	engineer := token(t, uuid.New(), "ENGINEER")

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		code   int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"availability is public", http.MethodGet, "/api/availability", "", http.StatusOK},
		{"booking needs a token", http.MethodPost, "/api/sessions", "", http.StatusUnauthorized},
		{"engineer cannot book", http.MethodPost, "/api/sessions", engineer, http.StatusForbidden},
		{"artist cannot publish", http.MethodPost, "/api/availability", artist, http.StatusForbidden},
		{"artist cannot unpublish", http.MethodPut, "/api/availability/" + uuid.NewString() + "/unpublish", artist, http.StatusForbidden},
		{"artist cannot set rates", http.MethodPut, "/api/engineers/me/rates", artist, http.StatusForbidden},
		{"forged token", http.MethodGet, "/api/user/sessions", "not.a.jwt", http.StatusUnauthorized},
		{"unknown session", http.MethodGet, "/api/sessions/" + uuid.NewString(), artist, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := call(t, app, tt.method, tt.path, tt.bearer, nil)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestWiring_NoMockCheckoutWithStripe(t *testing.T) {
	config := &utils.Config{Payment: utils.PaymentConfig{Gateway: "stripe"}}
	app := Wiring(repository.NewMemoryRepository(), fakeGateway{}, events.NoopPublisher{}, config, zap.NewNop())

	code, _ := call(t, app, http.MethodPost, "/mock-checkout/mock_cs_x/pay", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

type fakeGateway struct{ gateway.PaymentGateway }
