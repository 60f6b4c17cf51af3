package services_test

import (
	"testing"
	"time"

	"github.com/sheapwilliams/lunch/app/models"
	"github.com/sheapwilliams/lunch/app/repositories"
	"github.com/sheapwilliams/lunch/app/services"
	"github.com/sheapwilliams/lunch/pkg/clock"
	"github.com/sheapwilliams/lunch/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type orderFixture struct {
	db     *gorm.DB
	repo   *repositories.OrderRepository
	cart   *services.CartService
	orders *services.OrderService
	clk    *clock.Fixed
	sess   *session.Session
	user   models.User
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Order{}))

	user := models.User{Username: "alice", Password: "x", Role: "user"}
	require.NoError(t, db.Create(&user).Error)

	clk := openClock()
	cutoff, err := services.NewCutoffPolicy("America/Denver", "10:30", clk)
	require.NoError(t, err)

	menu := testMenu()
	cartSvc := services.NewCartService(menu, cutoff)
	repo := repositories.NewOrderRepository(db)
	orderSvc := services.NewOrderService(repo, cartSvc, menu, cutoff)

	return &orderFixture{
		db:     db,
		repo:   repo,
		cart:   cartSvc,
		orders: orderSvc,
		clk:    clk,
		sess:   session.New(session.DefaultOptions()),
		user:   user,
	}
}

func TestSubmitCartCommitsAndClears(t *testing.T) {
	f := newOrderFixture(t)

	f.cart.Apply(f.sess, f.user.ID, []services.Selection{
		{Date: "2026-03-02", Meal: "Turkey Club"},
	})

	orders, rejections, err := f.orders.SubmitCart(f.sess, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, rejections)
	require.Len(t, orders, 1)
	assert.Equal(t, "Turkey Club", orders[0].MealName)
	assert.Equal(t, 9.0, orders[0].Price)
	assert.Nil(t, orders[0].PaymentRef)

	assert.Empty(t, f.cart.Snapshot(f.sess, f.user.ID), "cart clears on successful submit")

	persisted, err := f.orders.ListForUser(f.user.ID)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
}

func TestSubmitCartEmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	_, _, err := f.orders.SubmitCart(f.sess, f.user.ID)
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

func TestSubmitCartSkipsDatesClosedSinceAdd(t *testing.T) {
	f := newOrderFixture(t)

	f.cart.Apply(f.sess, f.user.ID, []services.Selection{
		{Date: "2026-03-02", Meal: "Turkey Club"},
		{Date: "2026-03-03", Meal: "Chicken Caesar Salad"},
	})

	// The first date's window closes between add and submit.
	f.clk.SetNow(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC))

	orders, rejections, err := f.orders.SubmitCart(f.sess, f.user.ID)
	require.NoError(t, err)
	require.Len(t, rejections, 1)
	assert.Equal(t, "2026-03-02", rejections[0].Date)
	assert.Equal(t, services.ReasonClosed, rejections[0].Reason)
	require.Len(t, orders, 1)
	assert.Equal(t, "2026-03-03", orders[0].Date)
}

func TestSubmitCartReplacesSameDate(t *testing.T) {
	f := newOrderFixture(t)

	f.cart.Apply(f.sess, f.user.ID, []services.Selection{{Date: "2026-03-02", Meal: "Turkey Club"}})
	_, _, err := f.orders.SubmitCart(f.sess, f.user.ID)
	require.NoError(t, err)

	f.cart.Apply(f.sess, f.user.ID, []services.Selection{{Date: "2026-03-02", Meal: "Veggie Wrap"}})
	_, _, err = f.orders.SubmitCart(f.sess, f.user.ID)
	require.NoError(t, err)

	persisted, err := f.orders.ListForUser(f.user.ID)
	require.NoError(t, err)
	require.Len(t, persisted, 1, "re-submission for a date replaces, never duplicates")
	assert.Equal(t, "Veggie Wrap", persisted[0].MealName)
}

func TestDeleteOrder(t *testing.T) {
	f := newOrderFixture(t)

	f.cart.Apply(f.sess, f.user.ID, []services.Selection{{Date: "2026-03-02", Meal: "Turkey Club"}})
	_, _, err := f.orders.SubmitCart(f.sess, f.user.ID)
	require.NoError(t, err)

	removed, err := f.orders.Delete(f.user.ID, "2026-03-02")
	require.NoError(t, err)
	assert.True(t, removed)

	persisted, err := f.orders.ListForUser(f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, persisted)

	removed, err = f.orders.Delete(f.user.ID, "2026-03-02")
	require.NoError(t, err)
	assert.False(t, removed, "deleting an absent order is a soft no-op")
}

func TestReceiptsGroupByPaymentRef(t *testing.T) {
	f := newOrderFixture(t)

	refA, refB := "pi_aaa", "pi_bbb"
	require.NoError(t, f.repo.Upsert(&models.Order{UserID: f.user.ID, Date: "2026-03-02", MealName: "Turkey Club", Price: 9, PaymentRef: &refA}))
	require.NoError(t, f.repo.Upsert(&models.Order{UserID: f.user.ID, Date: "2026-03-03", MealName: "Chicken Caesar Salad", Price: 9.5, PaymentRef: &refA}))
	require.NoError(t, f.repo.Upsert(&models.Order{UserID: f.user.ID, Date: "2026-03-04", MealName: "Beef Tacos", Price: 9, PaymentRef: &refB}))
	require.NoError(t, f.repo.Upsert(&models.Order{UserID: f.user.ID, Date: "2026-03-05", MealName: "Garden Quiche", Price: 8}))

	receipts, err := f.orders.Receipts(f.user.ID)
	require.NoError(t, err)
	require.Len(t, receipts, 2, "unpaid orders do not appear as receipts")

	byRef := map[string]services.ReceiptGroup{}
	for _, r := range receipts {
		byRef[r.PaymentRef] = r
	}
	assert.Len(t, byRef[refA].Orders, 2)
	assert.Equal(t, 18.5, byRef[refA].Total)
	assert.Equal(t, 9.0, byRef[refB].Total)
}

func TestReceiptNotFound(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.orders.Receipt(f.user.ID, "pi_unknown")
	assert.ErrorIs(t, err, services.ErrReceiptNotFound)
}
