package services_test

import (
	"testing"
	"time"

	"github.com/sheapwilliams/lunch/app/models"
	"github.com/sheapwilliams/lunch/app/services"
	"github.com/sheapwilliams/lunch/pkg/clock"
	"github.com/sheapwilliams/lunch/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMenu() *services.MenuService {
	return services.NewMenuServiceFromMenu(models.Menu{
		DailyOptions: map[string]models.DayMenu{
			"2026-03-02": {Meals: []models.Meal{
				{Name: "Veggie Wrap", Price: 8},
				{Name: "Turkey Club", Price: 9},
			}},
			"2026-03-03": {Meals: []models.Meal{
				{Name: "Chicken Caesar Salad", Price: 9.5},
			}},
		},
	})
}

// openClock pins time well before every test date's cutoff.
func openClock() *clock.Fixed {
	return clock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func newCart(t *testing.T, clk clock.Clock) *services.CartService {
	t.Helper()
	cutoff, err := services.NewCutoffPolicy("America/Denver", "10:30", clk)
	require.NoError(t, err)
	return services.NewCartService(testMenu(), cutoff)
}

func TestCartAddBeforeCutoff(t *testing.T) {
	cart := newCart(t, openClock())
	sess := session.New(session.DefaultOptions())

	rejections := cart.Apply(sess, 1, []services.Selection{
		{Date: "2026-03-02", Meal: "Turkey Club"},
	})

	assert.Empty(t, rejections)
	assert.Equal(t, map[string]string{"2026-03-02": "Turkey Club"}, cart.Snapshot(sess, 1))
	assert.Equal(t, 9.0, cart.Total(cart.Snapshot(sess, 1)))
}

func TestCartAddAfterCutoffRejected(t *testing.T) {
	// Past the 2026-03-02 cutoff but before 2026-03-03's.
	clk := clock.NewFixed(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC))
	cart := newCart(t, clk)
	sess := session.New(session.DefaultOptions())

	rejections := cart.Apply(sess, 1, []services.Selection{
		{Date: "2026-03-02", Meal: "Turkey Club"},
	})

	require.Len(t, rejections, 1)
	assert.Equal(t, "2026-03-02", rejections[0].Date)
	assert.Equal(t, services.ReasonClosed, rejections[0].Reason)
	assert.Empty(t, cart.Snapshot(sess, 1))
}

func TestCartBatchPartialFailure(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC))
	cart := newCart(t, clk)
	sess := session.New(session.DefaultOptions())

	rejections := cart.Apply(sess, 1, []services.Selection{
		{Date: "2026-03-02", Meal: "Turkey Club"},          // closed
		{Date: "2026-03-03", Meal: "Chicken Caesar Salad"}, // fine
		{Date: "2026-03-03", Meal: "Lobster Thermidor"},    // not offered
	})

	require.Len(t, rejections, 2)
	assert.Equal(t, map[string]string{"2026-03-03": "Chicken Caesar Salad"}, cart.Snapshot(sess, 1),
		"valid subset commits even when other pairs fail")
}

func TestCartUnknownMealRejected(t *testing.T) {
	cart := newCart(t, openClock())
	sess := session.New(session.DefaultOptions())

	rejections := cart.Apply(sess, 1, []services.Selection{
		{Date: "2026-03-02", Meal: "Lobster Thermidor"},
	})

	require.Len(t, rejections, 1)
	assert.Equal(t, services.ReasonUnknownMeal, rejections[0].Reason)
	assert.Empty(t, cart.Snapshot(sess, 1))
}

func TestCartSentinelRemovesEntry(t *testing.T) {
	cart := newCart(t, openClock())
	sess := session.New(session.DefaultOptions())

	cart.Apply(sess, 1, []services.Selection{{Date: "2026-03-02", Meal: "Turkey Club"}})
	rejections := cart.Apply(sess, 1, []services.Selection{{Date: "2026-03-02", Meal: services.NoSelection}})

	assert.Empty(t, rejections, "the sentinel is a removal, not an invalid meal")
	assert.Empty(t, cart.Snapshot(sess, 1))
}

func TestCartAddIsIdempotent(t *testing.T) {
	cart := newCart(t, openClock())
	sess := session.New(session.DefaultOptions())

	sel := []services.Selection{{Date: "2026-03-02", Meal: "Turkey Club"}}
	cart.Apply(sess, 1, sel)
	cart.Apply(sess, 1, sel)

	snapshot := cart.Snapshot(sess, 1)
	assert.Len(t, snapshot, 1)
	assert.Equal(t, "Turkey Club", snapshot["2026-03-02"])
}

func TestCartOverwriteSameDate(t *testing.T) {
	cart := newCart(t, openClock())
	sess := session.New(session.DefaultOptions())

	cart.Apply(sess, 1, []services.Selection{{Date: "2026-03-02", Meal: "Turkey Club"}})
	cart.Apply(sess, 1, []services.Selection{{Date: "2026-03-02", Meal: "Veggie Wrap"}})

	assert.Equal(t, map[string]string{"2026-03-02": "Veggie Wrap"}, cart.Snapshot(sess, 1))
}

func TestCartDiscardedWhenOwnerChanges(t *testing.T) {
	cart := newCart(t, openClock())
	sess := session.New(session.DefaultOptions())

	cart.Apply(sess, 1, []services.Selection{{Date: "2026-03-02", Meal: "Turkey Club"}})
	require.NotEmpty(t, cart.Snapshot(sess, 1))

	// A different user on the same session must not inherit the cart.
	assert.Empty(t, cart.Snapshot(sess, 2))

	// Writing as the new user rebinds ownership; the old user's view is
	// now gone too.
	cart.Apply(sess, 2, []services.Selection{{Date: "2026-03-03", Meal: "Chicken Caesar Salad"}})
	assert.Empty(t, cart.Snapshot(sess, 1))
	assert.Equal(t, map[string]string{"2026-03-03": "Chicken Caesar Salad"}, cart.Snapshot(sess, 2))
}

func TestCartRemoveAndClear(t *testing.T) {
	cart := newCart(t, openClock())
	sess := session.New(session.DefaultOptions())

	cart.Apply(sess, 1, []services.Selection{
		{Date: "2026-03-02", Meal: "Turkey Club"},
		{Date: "2026-03-03", Meal: "Chicken Caesar Salad"},
	})

	cart.Remove(sess, 1, "2026-03-02")
	assert.Equal(t, map[string]string{"2026-03-03": "Chicken Caesar Salad"}, cart.Snapshot(sess, 1))

	cart.Remove(sess, 1, "2026-03-02") // absent date is a no-op
	cart.Clear(sess, 1)
	assert.Empty(t, cart.Snapshot(sess, 1))
}

func TestCartTotalUnresolvedMealContributesZero(t *testing.T) {
	cart := newCart(t, openClock())

	total := cart.Total(map[string]string{
		"2026-03-02": "Turkey Club",  // 9
		"2026-03-04": "Ghost Burger", // not on the menu → 0
	})
	assert.Equal(t, 9.0, total)
}
