package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// checkoutClient is the subset of the Stripe checkout session API in use.
type checkoutClient interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Expire(id string, params *stripe.CheckoutSessionExpireParams) (*stripe.CheckoutSession, error)
}

// StripeGateway implements PaymentGateway using Stripe Checkout
type StripeGateway struct {
	config  *StripeGatewayConfig
	clients checkoutClient
}

// StripeGatewayConfig holds configuration for Stripe gateway
type StripeGatewayConfig struct {
	SecretKey string
	AppURL    string
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	return &StripeGateway{
		config: config,
		clients: &session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: config.SecretKey,
		},
	}, nil
}

// InitiatePayment creates a Checkout Session in payment mode
func (g *StripeGateway) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentHandle, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("stripe checkout requires a positive amount, got %d", req.Amount)
	}

	returnURL := fmt.Sprintf("%s/sessions/%s", strings.TrimRight(g.config.AppURL, "/"), req.SessionID)

	name := "FlexSession with " + req.PayeeDisplayName
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(req.SessionID.String()),
		SuccessURL:        stripe.String(returnURL + "?checkout=success"),
		CancelURL:         stripe.String(returnURL + "?checkout=canceled"),
		Metadata: map[string]string{
			"session_id": req.SessionID.String(),
		},
	}
	if req.Description != "" {
		params.LineItems[0].PriceData.ProductData.Description = stripe.String(req.Description)
	}
	if req.PayerEmail != "" {
		params.CustomerEmail = stripe.String(req.PayerEmail)
	}
	params.Context = ctx

	cs, err := g.clients.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}

	return &PaymentHandle{
		ExternalRef: cs.ID,
		RedirectURL: cs.URL,
	}, nil
}

// CancelPayment expires an open Checkout Session
func (g *StripeGateway) CancelPayment(ctx context.Context, externalRef string) error {
	if externalRef == "" {
		return fmt.Errorf("external ref is required")
	}

	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	if _, err := g.clients.Expire(externalRef, params); err != nil {
		return fmt.Errorf("expire stripe checkout session %s: %w", externalRef, err)
	}

	return nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}
