package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func TestMockGateway_InitiateAndCancel(t *testing.T) {
	gw := NewMockGateway(&MockGatewayConfig{BaseURL: "https://flex.test/"})
	sessionID := uuid.New()

	handle, err := gw.InitiatePayment(context.Background(), PaymentRequest{
		Amount:    20000,
		Currency:  "usd",
		SessionID: sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, "mock_cs_"+sessionID.String(), handle.ExternalRef)
	assert.Equal(t, "https://flex.test/mock-checkout/"+handle.ExternalRef, handle.RedirectURL)
	assert.Equal(t, 1, gw.OpenCheckouts())

	require.NoError(t, gw.CancelPayment(context.Background(), handle.ExternalRef))
	assert.True(t, gw.Canceled(handle.ExternalRef))
	assert.Equal(t, 0, gw.OpenCheckouts())

	assert.Error(t, gw.CancelPayment(context.Background(), handle.ExternalRef))
}

func TestMockGateway_Failures(t *testing.T) {
	t.Run("configured error", func(t *testing.T) {
		boom := errors.New("card network down")
		gw := NewMockGateway(nil)
		gw.SetInitiateError(boom)

		_, err := gw.InitiatePayment(context.Background(), PaymentRequest{Amount: 1, SessionID: uuid.New()})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, gw.OpenCheckouts())
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		gw := NewMockGateway(nil)
		gw.SetDelay(time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := gw.InitiatePayment(ctx, PaymentRequest{Amount: 1, SessionID: uuid.New()})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestNewPaymentGateway(t *testing.T) {
	gw, err := NewPaymentGateway("", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", gw.Name())

	_, err = NewPaymentGateway("stripe", &GatewayConfig{})
	assert.Error(t, err)

	gw, err = NewPaymentGateway("STRIPE", &GatewayConfig{SecretKey: "sk_test_123", AppURL: "https://flex.test"})
	require.NoError(t, err)
	assert.Equal(t, "stripe", gw.Name())

	_, err = NewPaymentGateway("paypal", nil)
	assert.Error(t, err)
}

type fakeCheckoutClient struct {
	created *stripe.CheckoutSessionParams
	expired string
	err     error
}

func (f *fakeCheckoutClient) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_abc", URL: "https://checkout.stripe.com/c/pay/cs_test_abc"}, nil
}

func (f *fakeCheckoutClient) Expire(id string, params *stripe.CheckoutSessionExpireParams) (*stripe.CheckoutSession, error) {
	f.expired = id
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: id}, nil
}

func TestStripeGateway_InitiatePayment(t *testing.T) {
	fake := &fakeCheckoutClient{}
	gw := &StripeGateway{
		config:  &StripeGatewayConfig{SecretKey: "sk_test", AppURL: "https://flex.test"},
		clients: fake,
	}
	sessionID := uuid.New()

	handle, err := gw.InitiatePayment(context.Background(), PaymentRequest{
		Amount:           36000,
		Currency:         "USD",
		SessionID:        sessionID,
		PayeeDisplayName: "Ada",
		PayerEmail:       "artist@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_abc", handle.ExternalRef)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_abc", handle.RedirectURL)

	params := fake.created
	require.NotNil(t, params)
	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, sessionID.String(), params.Metadata["session_id"])
	assert.Equal(t, "artist@example.com", *params.CustomerEmail)
	assert.Equal(t, "https://flex.test/sessions/"+sessionID.String()+"?checkout=success", *params.SuccessURL)
	require.Len(t, params.LineItems, 1)
	assert.Equal(t, int64(36000), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "usd", *params.LineItems[0].PriceData.Currency)
	assert.Equal(t, "FlexSession with Ada", *params.LineItems[0].PriceData.ProductData.Name)
}

func TestStripeGateway_Errors(t *testing.T) {
	fake := &fakeCheckoutClient{err: errors.New("api down")}
	gw := &StripeGateway{config: &StripeGatewayConfig{SecretKey: "sk_test"}, clients: fake}

	_, err := gw.InitiatePayment(context.Background(), PaymentRequest{Amount: 0, SessionID: uuid.New()})
	assert.Error(t, err)
	assert.Nil(t, fake.created)

	_, err = gw.InitiatePayment(context.Background(), PaymentRequest{Amount: 100, Currency: "usd", SessionID: uuid.New()})
	assert.ErrorContains(t, err, "api down")

	err = gw.CancelPayment(context.Background(), "cs_test_abc")
	assert.ErrorContains(t, err, "api down")
	assert.Equal(t, "cs_test_abc", fake.expired)
}
