package repositories

import (
	"github.com/sheapwilliams/lunch/app/models"
	"github.com/sheapwilliams/lunch/pkg/metrics"
	"github.com/sheapwilliams/lunch/pkg/orm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository handles database operations for Order.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Upsert writes an order, replacing any existing order for the same
// (user, date) pair. The replacement happens inside the database via an
// ON CONFLICT clause, so concurrent submissions for the same slot cannot
// produce two rows; the last writer wins.
func (r *OrderRepository) Upsert(order *models.Order) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"meal_name", "price", "payment_ref", "updated_at",
		}),
	}).Create(order).Error
	if err == nil {
		metrics.OrdersWritten.Inc()
	}
	return err
}

// Delete removes the user's order for the given date, if any.
func (r *OrderRepository) Delete(userID uint, date string) error {
	return r.db.Where("user_id = ? AND date = ?", userID, date).
		Delete(&models.Order{}).Error
}

// ListForUser returns all of a user's orders, soonest date first.
func (r *OrderRepository) ListForUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := orm.Wrap(r.db).
		Model(&models.Order{}).
		Where("user_id = ?", userID).
		Order("date asc").
		Get(&orders)
	return orders, err
}

// FindByPaymentRef returns the orders materialized from one payment,
// soonest date first.
func (r *OrderRepository) FindByPaymentRef(userID uint, ref string) ([]models.Order, error) {
	var orders []models.Order
	err := orm.Wrap(r.db).
		Model(&models.Order{}).
		Where("user_id = ? AND payment_ref = ?", userID, ref).
		Order("date asc").
		Get(&orders)
	return orders, err
}

// CountByPaymentRef reports how many orders reference a payment. Used as
// the replay guard: a payment that already produced orders is never
// materialized twice.
func (r *OrderRepository) CountByPaymentRef(ref string) (int64, error) {
	var count int64
	err := orm.Wrap(r.db).
		Model(&models.Order{}).
		Where("payment_ref = ?", ref).
		Count(&count)
	return count, err
}

// ForDate returns every order placed for one service date, with the owning
// users preloaded. Feeds the kitchen report.
func (r *OrderRepository) ForDate(date string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("User").
		Where("date = ?", date).
		Order("id asc").
		Find(&orders).Error
	return orders, err
}

// Transaction runs fn with a repository bound to a database transaction.
func (r *OrderRepository) Transaction(fn func(tx *OrderRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewOrderRepository(tx))
	})
}
