package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MockGateway implements PaymentGateway for tests and local development.
// References are derived from the session id, so results are deterministic.
type MockGateway struct {
	config   *MockGatewayConfig
	mu       sync.RWMutex
	open     map[string]PaymentRequest
	canceled map[string]bool
}

// MockGatewayConfig holds configuration for the mock gateway
type MockGatewayConfig struct {
	// BaseURL prefixes the fake checkout redirect
	BaseURL string

	// Delay simulates gateway latency; honours context cancellation
	Delay time.Duration

	// InitiateErr, when set, is returned by every InitiatePayment call
	InitiateErr error

	// CancelErr, when set, is returned by every CancelPayment call
	CancelErr error
}

// DefaultMockGatewayConfig returns default configuration
func DefaultMockGatewayConfig() *MockGatewayConfig {
	return &MockGatewayConfig{
		BaseURL: "http://localhost:8080",
	}
}

// NewMockGateway creates a new mock gateway
func NewMockGateway(config *MockGatewayConfig) *MockGateway {
	if config == nil {
		config = DefaultMockGatewayConfig()
	}

	return &MockGateway{
		config:   config,
		open:     make(map[string]PaymentRequest),
		canceled: make(map[string]bool),
	}
}

func (g *MockGateway) wait(ctx context.Context) error {
	g.mu.RLock()
	delay := g.config.Delay
	g.mu.RUnlock()

	if delay <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// InitiatePayment opens a mock checkout
func (g *MockGateway) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentHandle, error) {
	if req.Amount < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}

	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.config.InitiateErr != nil {
		return nil, g.config.InitiateErr
	}

	ref := "mock_cs_" + req.SessionID.String()
	g.open[ref] = req

	return &PaymentHandle{
		ExternalRef: ref,
		RedirectURL: strings.TrimRight(g.config.BaseURL, "/") + "/mock-checkout/" + ref,
	}, nil
}

// CancelPayment expires a mock checkout
func (g *MockGateway) CancelPayment(ctx context.Context, externalRef string) error {
	if externalRef == "" {
		return fmt.Errorf("external ref is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.config.CancelErr != nil {
		return g.config.CancelErr
	}
	if _, ok := g.open[externalRef]; !ok {
		return fmt.Errorf("checkout not found: %s", externalRef)
	}

	delete(g.open, externalRef)
	g.canceled[externalRef] = true
	return nil
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}

// SetInitiateError makes subsequent InitiatePayment calls fail (nil clears it)
func (g *MockGateway) SetInitiateError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config.InitiateErr = err
}

// SetDelay updates the simulated latency
func (g *MockGateway) SetDelay(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config.Delay = d
}

// OpenCheckouts returns how many checkouts are open
func (g *MockGateway) OpenCheckouts() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.open)
}

// Canceled reports whether the checkout was expired through CancelPayment
func (g *MockGateway) Canceled(externalRef string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.canceled[externalRef]
}
