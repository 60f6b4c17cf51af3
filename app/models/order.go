package models

import "gorm.io/gorm"

// Order is one meal ordered by one user for one service date.
//
// The composite unique index enforces at most one order per user per date:
// re-ordering for the same date replaces the meal instead of adding a second
// row. Date is the ISO calendar day ("2006-01-02") in the restaurant's
// timezone.
type Order struct {
	gorm.Model
	UserID     uint    `gorm:"not null;uniqueIndex:idx_user_date" json:"user_id"`
	Date       string  `gorm:"size:10;not null;uniqueIndex:idx_user_date" json:"date"`
	MealName   string  `gorm:"size:255;not null" json:"meal_name"`
	Price      float64 `gorm:"not null" json:"price"`
	PaymentRef *string `gorm:"size:255;index" json:"payment_ref,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
