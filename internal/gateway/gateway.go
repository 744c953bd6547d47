package gateway

import (
	"context"

	"github.com/google/uuid"
)

// PaymentGateway starts and abandons hosted checkouts for instant bookings.
// Capture is reported back asynchronously through the webhook.
type PaymentGateway interface {
	// InitiatePayment opens a checkout for the session amount
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentHandle, error)

	// CancelPayment expires a checkout that was opened but must not be paid
	CancelPayment(ctx context.Context, externalRef string) error

	// Name returns the gateway name
	Name() string
}

// PaymentRequest describes one checkout. Amount is in minor units.
type PaymentRequest struct {
	Amount           int64
	Currency         string
	SessionID        uuid.UUID
	PayeeDisplayName string
	PayerEmail       string
	Description      string
}

// PaymentHandle is what the gateway hands back for a new checkout.
type PaymentHandle struct {
	ExternalRef string
	RedirectURL string
}

// GatewayConfig holds common gateway configuration
type GatewayConfig struct {
	SecretKey string
	// AppURL is the public base URL used to build return links.
	AppURL string
}
