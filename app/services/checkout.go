package services

import (
	"context"
	"encoding/json"
	"math"

	"github.com/sheapwilliams/lunch/app/models"
	"github.com/sheapwilliams/lunch/config"
	"github.com/sheapwilliams/lunch/pkg/collection"
	"github.com/sheapwilliams/lunch/pkg/logger"
	"github.com/sheapwilliams/lunch/pkg/metrics"
	"github.com/sheapwilliams/lunch/pkg/payment"
	"github.com/sheapwilliams/lunch/pkg/session"
)

// Session key holding a payment reference when confirmation arrived before
// the user authenticated. Consumed on the next successful login.
const pendingConfirmationKey = "pending_payment_intent"

// cartMetadataKey is the metadata field the cart snapshot rides in across
// the payment round trip.
const cartMetadataKey = "cart"

// CheckoutService drives the checkout and confirmation state machine.
//
// Checkout snapshots the cart into the payment intent's metadata; that
// snapshot, not the live session cart, is what gets materialized into
// orders at confirmation time. The session cart is advisory and may not
// survive the round trip; the metadata always does.
type CheckoutService struct {
	provider payment.Provider
	cart     *CartService
	orders   *OrderService
}

func NewCheckoutService(provider payment.Provider, cart *CartService, orders *OrderService) *CheckoutService {
	return &CheckoutService{provider: provider, cart: cart, orders: orders}
}

// CheckoutResult hands the client what it needs to complete payment.
type CheckoutResult struct {
	PaymentRef   string  `json:"payment_ref"`
	ClientSecret string  `json:"client_secret"`
	Total        float64 `json:"total"`
	PublicKey    string  `json:"public_key"`
}

// Checkout creates a payment intent for the current cart. The amount is the
// cart total in minor currency units; a cart meal that no longer resolves
// contributes 0. No order rows are touched here.
func (s *CheckoutService) Checkout(ctx context.Context, sess *session.Session, userID uint) (*CheckoutResult, error) {
	cart := s.cart.Snapshot(sess, userID)
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	total := s.cart.Total(cart)
	amount := int64(math.Round(total * 100))

	snapshot, err := json.Marshal(cart)
	if err != nil {
		return nil, err
	}

	intent, err := s.provider.CreateIntent(ctx, amount, config.Currency(), map[string]string{
		cartMetadataKey: string(snapshot),
	})
	if err != nil {
		logger.WithCtx(ctx).Error("checkout: create intent failed", "error", err)
		return nil, err
	}

	metrics.CheckoutsStarted.Inc()
	logger.WithCtx(ctx).Info("checkout: intent created",
		"payment_ref", intent.ID, "amount", amount, "items", len(cart))

	return &CheckoutResult{
		PaymentRef:   intent.ID,
		ClientSecret: intent.ClientSecret,
		Total:        total,
		PublicKey:    config.StripePublicKey(),
	}, nil
}

// Confirm finishes a checkout after the client completed payment out of
// band. Steps, in order:
//
//  1. Retrieve the intent; a provider failure is transient, the user
//     retries.
//  2. Reject intents that have not succeeded.
//  3. Parse the cart snapshot from metadata; missing or malformed
//     metadata is a handled failure, not a fault.
//  4. With no bound user, park the reference in the session and report
//     ErrAuthRequired; login re-enters here.
//  5. If orders already carry this reference, the confirmation is a
//     replay: return the existing receipt without touching the ledger.
//  6. Upsert one order per snapshot entry in a single transaction, then
//     clear the cart and the parked reference.
func (s *CheckoutService) Confirm(ctx context.Context, sess *session.Session, userID uint, ref string) (*ReceiptGroup, error) {
	intent, err := s.provider.RetrieveIntent(ctx, ref)
	if err != nil {
		logger.WithCtx(ctx).Error("confirm: retrieve intent failed", "payment_ref", ref, "error", err)
		metrics.PaymentsConfirmed.WithLabelValues("failed").Inc()
		return nil, err
	}

	if !intent.Succeeded() {
		metrics.PaymentsConfirmed.WithLabelValues("incomplete").Inc()
		return nil, ErrPaymentIncomplete
	}

	cart, err := parseCartMetadata(intent.Metadata)
	if err != nil {
		logger.WithCtx(ctx).Warn("confirm: unusable cart metadata", "payment_ref", ref, "error", err)
		metrics.PaymentsConfirmed.WithLabelValues("failed").Inc()
		return nil, ErrOrderInfoMissing
	}

	if userID == 0 {
		sess.Set(pendingConfirmationKey, ref)
		return nil, ErrAuthRequired
	}

	// Replay guard: a reference that already produced orders is never
	// materialized twice.
	count, err := s.orders.orders.CountByPaymentRef(ref)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		metrics.PaymentsConfirmed.WithLabelValues("replay").Inc()
		logger.WithCtx(ctx).Info("confirm: replay detected", "payment_ref", ref)
		return s.orders.Receipt(userID, ref)
	}

	orders, err := s.orders.writeCart(userID, cart, &ref)
	if err != nil {
		metrics.PaymentsConfirmed.WithLabelValues("failed").Inc()
		return nil, err
	}

	s.cart.Clear(sess, userID)
	sess.Delete(pendingConfirmationKey)

	metrics.PaymentsConfirmed.WithLabelValues("confirmed").Inc()
	logger.WithCtx(ctx).Info("confirm: orders materialized",
		"payment_ref", ref, "user_id", userID, "orders", len(orders))

	return &ReceiptGroup{
		PaymentRef: ref,
		Orders:     orders,
		Total:      collection.Sum(orders, func(o models.Order) float64 { return o.Price }),
	}, nil
}

// PendingConfirmation returns the parked payment reference, if any.
func PendingConfirmation(sess *session.Session) (string, bool) {
	ref, ok := sess.GetString(pendingConfirmationKey)
	return ref, ok && ref != ""
}

// parseCartMetadata extracts the date → meal snapshot from intent metadata.
func parseCartMetadata(metadata map[string]string) (map[string]string, error) {
	raw, ok := metadata[cartMetadataKey]
	if !ok || raw == "" {
		return nil, ErrOrderInfoMissing
	}

	var cart map[string]string
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, ErrOrderInfoMissing
	}
	return cart, nil
}
