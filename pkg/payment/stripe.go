// Package payment integrates with the Stripe PaymentIntents API.
//
// The cart snapshot rides inside the intent's metadata so that the money
// side and the order side share one source of truth: whatever was charged
// is exactly what gets materialized into orders at confirmation time.
package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sheapwilliams/lunch/config"
	"github.com/sheapwilliams/lunch/pkg/http"
)

// Intent is the subset of a Stripe PaymentIntent the app cares about.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

// Succeeded reports whether the payment has completed.
func (i Intent) Succeeded() bool { return i.Status == "succeeded" }

// Provider creates and retrieves payment intents.
type Provider interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}

var ErrUnavailable = errors.New("payment: provider unavailable")

// Stripe is the production Provider backed by the Stripe REST API.
type Stripe struct {
	secretKey string
	apiBase   string
}

// NewStripe builds a Stripe provider from configuration. The API base is
// configurable so tests can point it at a local httptest server.
func NewStripe() *Stripe {
	return &Stripe{
		secretKey: config.StripeSecretKey(),
		apiBase:   strings.TrimRight(config.StripeAPIBase(), "/"),
	}
}

// CreateIntent creates a PaymentIntent for amount in minor currency units.
// Each call carries a fresh Idempotency-Key; the client reuses the built
// request (key included) across its retry attempts, so Stripe deduplicates
// network flaps without ever sharing a key between two checkouts.
func (s *Stripe) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	key, err := idempotencyKey()
	if err != nil {
		return nil, fmt.Errorf("payment: idempotency key: %w", err)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	resp, err := http.Post(s.apiBase+"/payment_intents").
		Bearer(s.secretKey).
		Header("Idempotency-Key", key).
		Form(form).
		Timeout(15 * time.Second).
		Retry(3, time.Second).
		WithContext(ctx).
		Send()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := resp.Throw(); err != nil {
		return nil, fmt.Errorf("payment: create intent: %w", err)
	}

	var intent Intent
	if err := resp.JSON(&intent); err != nil {
		return nil, fmt.Errorf("payment: create intent: %w", err)
	}
	return &intent, nil
}

// RetrieveIntent fetches a PaymentIntent by ID.
func (s *Stripe) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	resp, err := http.Get(s.apiBase+"/payment_intents/"+url.PathEscape(id)).
		Bearer(s.secretKey).
		Timeout(15 * time.Second).
		Retry(3, time.Second).
		WithContext(ctx).
		Send()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := resp.Throw(); err != nil {
		return nil, fmt.Errorf("payment: retrieve intent %s: %w", id, err)
	}

	var intent Intent
	if err := resp.JSON(&intent); err != nil {
		return nil, fmt.Errorf("payment: retrieve intent %s: %w", id, err)
	}
	return &intent, nil
}

// idempotencyKey generates a random key unique to one logical create. Two
// checkouts with byte-identical carts must never share a key, or the
// provider would hand the second caller the first caller's intent.
func idempotencyKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "lunch-" + hex.EncodeToString(b), nil
}
