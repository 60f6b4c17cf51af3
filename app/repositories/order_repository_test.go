package repositories_test

import (
	"sync"
	"testing"

	"github.com/sheapwilliams/lunch/app/models"
	"github.com/sheapwilliams/lunch/app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection: every sql.Conn against ":memory:" is its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Order{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Password: "x", Role: "user"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	db := testDB(t)
	repo := repositories.NewOrderRepository(db)
	user := seedUser(t, db, "alice")

	require.NoError(t, repo.Upsert(&models.Order{
		UserID: user.ID, Date: "2026-03-02", MealName: "Turkey Club", Price: 9,
	}))
	require.NoError(t, repo.Upsert(&models.Order{
		UserID: user.ID, Date: "2026-03-02", MealName: "Veggie Wrap", Price: 8,
	}))

	orders, err := repo.ListForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1, "at most one order per (user, date)")
	assert.Equal(t, "Veggie Wrap", orders[0].MealName)
	assert.Equal(t, 8.0, orders[0].Price)
}

func TestUpsertDistinctDatesAndUsers(t *testing.T) {
	db := testDB(t)
	repo := repositories.NewOrderRepository(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, repo.Upsert(&models.Order{UserID: alice.ID, Date: "2026-03-02", MealName: "Turkey Club", Price: 9}))
	require.NoError(t, repo.Upsert(&models.Order{UserID: alice.ID, Date: "2026-03-03", MealName: "Chicken Caesar Salad", Price: 9.5}))
	require.NoError(t, repo.Upsert(&models.Order{UserID: bob.ID, Date: "2026-03-02", MealName: "Veggie Wrap", Price: 8}))

	orders, err := repo.ListForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "2026-03-02", orders[0].Date, "ordered by date ascending")
	assert.Equal(t, "2026-03-03", orders[1].Date)
}

func TestConcurrentUpsertsKeepSingleRow(t *testing.T) {
	db := testDB(t)
	repo := repositories.NewOrderRepository(db)
	user := seedUser(t, db, "alice")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// SQLite may report busy under contention; the invariant under
			// test is the final row count, not per-call success.
			_ = repo.Upsert(&models.Order{
				UserID: user.ID, Date: "2026-03-02", MealName: "Turkey Club", Price: 9,
			})
		}()
	}
	wg.Wait()

	var count int64
	require.NoError(t, db.Model(&models.Order{}).
		Where("user_id = ? AND date = ?", user.ID, "2026-03-02").
		Count(&count).Error)
	assert.Equal(t, int64(1), count, "the unique index must hold under concurrency")
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	repo := repositories.NewOrderRepository(db)
	user := seedUser(t, db, "alice")

	require.NoError(t, repo.Upsert(&models.Order{UserID: user.ID, Date: "2026-03-02", MealName: "Turkey Club", Price: 9}))
	require.NoError(t, repo.Delete(user.ID, "2026-03-02"))

	orders, err := repo.ListForUser(user.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	// Absent row is a benign no-op.
	assert.NoError(t, repo.Delete(user.ID, "2026-03-02"))
}

func TestPaymentRefQueries(t *testing.T) {
	db := testDB(t)
	repo := repositories.NewOrderRepository(db)
	user := seedUser(t, db, "alice")

	ref := "pi_123"
	require.NoError(t, repo.Upsert(&models.Order{UserID: user.ID, Date: "2026-03-02", MealName: "Turkey Club", Price: 9, PaymentRef: &ref}))
	require.NoError(t, repo.Upsert(&models.Order{UserID: user.ID, Date: "2026-03-03", MealName: "Chicken Caesar Salad", Price: 9.5, PaymentRef: &ref}))
	require.NoError(t, repo.Upsert(&models.Order{UserID: user.ID, Date: "2026-03-04", MealName: "Beef Tacos", Price: 9}))

	count, err := repo.CountByPaymentRef(ref)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	orders, err := repo.FindByPaymentRef(user.ID, ref)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "2026-03-02", orders[0].Date)

	count, err = repo.CountByPaymentRef("pi_unknown")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestForDatePreloadsUsers(t *testing.T) {
	db := testDB(t)
	repo := repositories.NewOrderRepository(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, repo.Upsert(&models.Order{UserID: alice.ID, Date: "2026-03-02", MealName: "Turkey Club", Price: 9}))
	require.NoError(t, repo.Upsert(&models.Order{UserID: bob.ID, Date: "2026-03-02", MealName: "Turkey Club", Price: 9}))
	require.NoError(t, repo.Upsert(&models.Order{UserID: bob.ID, Date: "2026-03-03", MealName: "Veggie Wrap", Price: 8}))

	orders, err := repo.ForDate("2026-03-02")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "alice", orders[0].User.Username)
	assert.Equal(t, "bob", orders[1].User.Username)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	db := testDB(t)
	repo := repositories.NewOrderRepository(db)
	user := seedUser(t, db, "alice")

	err := repo.Transaction(func(tx *repositories.OrderRepository) error {
		if err := tx.Upsert(&models.Order{UserID: user.ID, Date: "2026-03-02", MealName: "Turkey Club", Price: 9}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	orders, listErr := repo.ListForUser(user.ID)
	require.NoError(t, listErr)
	assert.Empty(t, orders, "failed transaction must leave no partial writes")
}
