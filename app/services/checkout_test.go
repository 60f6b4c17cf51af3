package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sheapwilliams/lunch/app/services"
	"github.com/sheapwilliams/lunch/pkg/payment"
	"github.com/sheapwilliams/lunch/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider scripts payment intents in memory. CreateIntent records the
// request and returns an intent in requires_payment_method; tests flip the
// status to simulate the client completing payment out of band.
type fakeProvider struct {
	intents     map[string]*payment.Intent
	created     int
	createErr   error
	retrieveErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{intents: map[string]*payment.Intent{}}
}

func (f *fakeProvider) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	intent := &payment.Intent{
		ID:           "pi_test_1",
		ClientSecret: "pi_test_1_secret",
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     currency,
		Metadata:     metadata,
	}
	f.intents[intent.ID] = intent
	return intent, nil
}

func (f *fakeProvider) RetrieveIntent(_ context.Context, id string) (*payment.Intent, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	intent, ok := f.intents[id]
	if !ok {
		return nil, payment.ErrUnavailable
	}
	return intent, nil
}

func (f *fakeProvider) succeed(id string) { f.intents[id].Status = "succeeded" }

type checkoutFixture struct {
	*orderFixture
	provider *fakeProvider
	checkout *services.CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	base := newOrderFixture(t)
	provider := newFakeProvider()
	return &checkoutFixture{
		orderFixture: base,
		provider:     provider,
		checkout:     services.NewCheckoutService(provider, base.cart, base.orders),
	}
}

func TestCheckoutCreatesIntentFromCart(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.cart.Apply(f.sess, f.user.ID, []services.Selection{{Date: "2026-03-02", Meal: "Turkey Club"}})

	result, err := f.checkout.Checkout(ctx, f.sess, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_test_1", result.PaymentRef)
	assert.Equal(t, "pi_test_1_secret", result.ClientSecret)
	assert.Equal(t, 9.0, result.Total)

	intent := f.provider.intents["pi_test_1"]
	assert.Equal(t, int64(900), intent.Amount, "amount is the total in minor units")

	var cart map[string]string
	require.NoError(t, json.Unmarshal([]byte(intent.Metadata["cart"]), &cart))
	assert.Equal(t, map[string]string{"2026-03-02": "Turkey Club"}, cart)

	persisted, err := f.orders.ListForUser(f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, persisted, "checkout alone writes no orders")
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)
	_, err := f.checkout.Checkout(context.Background(), f.sess, f.user.ID)
	assert.ErrorIs(t, err, services.ErrEmptyCart)
	assert.Zero(t, f.provider.created)
}

func TestCheckoutProviderFailure(t *testing.T) {
	f := newCheckoutFixture(t)
	f.provider.createErr = payment.ErrUnavailable

	f.cart.Apply(f.sess, f.user.ID, []services.Selection{{Date: "2026-03-02", Meal: "Turkey Club"}})

	_, err := f.checkout.Checkout(context.Background(), f.sess, f.user.ID)
	assert.ErrorIs(t, err, payment.ErrUnavailable)
}

func TestConfirmMaterializesOrders(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.cart.Apply(f.sess, f.user.ID, []services.Selection{
		{Date: "2026-03-02", Meal: "Turkey Club"},
		{Date: "2026-03-03", Meal: "Chicken Caesar Salad"},
	})
	result, err := f.checkout.Checkout(ctx, f.sess, f.user.ID)
	require.NoError(t, err)
	f.provider.succeed(result.PaymentRef)

	receipt, err := f.checkout.Confirm(ctx, f.sess, f.user.ID, result.PaymentRef)
	require.NoError(t, err)
	assert.Equal(t, result.PaymentRef, receipt.PaymentRef)
	require.Len(t, receipt.Orders, 2)
	assert.Equal(t, 18.5, receipt.Total)
	for _, o := range receipt.Orders {
		require.NotNil(t, o.PaymentRef)
		assert.Equal(t, result.PaymentRef, *o.PaymentRef)
	}

	assert.Empty(t, f.cart.Snapshot(f.sess, f.user.ID), "cart clears after confirmation")
	_, pending := services.PendingConfirmation(f.sess)
	assert.False(t, pending)
}

func TestConfirmBeforePaymentSucceeds(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.cart.Apply(f.sess, f.user.ID, []services.Selection{{Date: "2026-03-02", Meal: "Turkey Club"}})
	result, err := f.checkout.Checkout(ctx, f.sess, f.user.ID)
	require.NoError(t, err)

	_, err = f.checkout.Confirm(ctx, f.sess, f.user.ID, result.PaymentRef)
	assert.ErrorIs(t, err, services.ErrPaymentIncomplete)

	persisted, listErr := f.orders.ListForUser(f.user.ID)
	require.NoError(t, listErr)
	assert.Empty(t, persisted)
}

func TestConfirmWithoutUserParksReference(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	// An anonymous session carts and pays; the confirmation redirect lands
	// before login.
	f.cart.Apply(f.sess, 0, []services.Selection{{Date: "2026-03-02", Meal: "Turkey Club"}})
	result, err := f.checkout.Checkout(ctx, f.sess, 0)
	require.NoError(t, err)
	f.provider.succeed(result.PaymentRef)

	_, err = f.checkout.Confirm(ctx, f.sess, 0, result.PaymentRef)
	assert.ErrorIs(t, err, services.ErrAuthRequired)

	ref, pending := services.PendingConfirmation(f.sess)
	require.True(t, pending)
	assert.Equal(t, result.PaymentRef, ref)

	// Login resumes with the parked reference; orders materialize for the
	// now-bound user.
	receipt, err := f.checkout.Confirm(ctx, f.sess, f.user.ID, ref)
	require.NoError(t, err)
	require.Len(t, receipt.Orders, 1)
	assert.Equal(t, f.user.ID, receipt.Orders[0].UserID)

	_, pending = services.PendingConfirmation(f.sess)
	assert.False(t, pending, "the parked reference is consumed")
}

func TestConfirmIsReplaySafe(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.cart.Apply(f.sess, f.user.ID, []services.Selection{{Date: "2026-03-02", Meal: "Turkey Club"}})
	result, err := f.checkout.Checkout(ctx, f.sess, f.user.ID)
	require.NoError(t, err)
	f.provider.succeed(result.PaymentRef)

	first, err := f.checkout.Confirm(ctx, f.sess, f.user.ID, result.PaymentRef)
	require.NoError(t, err)

	second, err := f.checkout.Confirm(ctx, f.sess, f.user.ID, result.PaymentRef)
	require.NoError(t, err)
	assert.Equal(t, first.PaymentRef, second.PaymentRef)
	assert.Equal(t, first.Total, second.Total)

	persisted, err := f.orders.ListForUser(f.user.ID)
	require.NoError(t, err)
	require.Len(t, persisted, 1, "a replayed confirmation never duplicates orders")
}

func TestConfirmReplayByOtherUser(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.cart.Apply(f.sess, f.user.ID, []services.Selection{{Date: "2026-03-02", Meal: "Turkey Club"}})
	result, err := f.checkout.Checkout(ctx, f.sess, f.user.ID)
	require.NoError(t, err)
	f.provider.succeed(result.PaymentRef)

	_, err = f.checkout.Confirm(ctx, f.sess, f.user.ID, result.PaymentRef)
	require.NoError(t, err)

	// Someone else presenting an already-applied reference gets a not-found,
	// never the owner's orders and never duplicate rows.
	otherSess := session.New(session.DefaultOptions())
	_, err = f.checkout.Confirm(ctx, otherSess, f.user.ID+1, result.PaymentRef)
	assert.ErrorIs(t, err, services.ErrReceiptNotFound)

	persisted, err := f.orders.ListForUser(f.user.ID)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
}

func TestConfirmMissingCartMetadata(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.provider.intents["pi_bare"] = &payment.Intent{ID: "pi_bare", Status: "succeeded"}
	_, err := f.checkout.Confirm(ctx, f.sess, f.user.ID, "pi_bare")
	assert.ErrorIs(t, err, services.ErrOrderInfoMissing)

	f.provider.intents["pi_garbled"] = &payment.Intent{
		ID: "pi_garbled", Status: "succeeded",
		Metadata: map[string]string{"cart": "{not json"},
	}
	_, err = f.checkout.Confirm(ctx, f.sess, f.user.ID, "pi_garbled")
	assert.ErrorIs(t, err, services.ErrOrderInfoMissing)
}

func TestConfirmProviderFailurePropagates(t *testing.T) {
	f := newCheckoutFixture(t)
	f.provider.retrieveErr = payment.ErrUnavailable

	_, err := f.checkout.Confirm(context.Background(), f.sess, f.user.ID, "pi_whatever")
	assert.ErrorIs(t, err, payment.ErrUnavailable)
}
