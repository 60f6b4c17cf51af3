package models

import "gorm.io/gorm"

// User is an account that can place lunch orders.
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;size:255;not null" json:"username"`
	Password string `gorm:"size:255;not null" json:"-"` // bcrypt hash, never serialised
	Role     string `gorm:"size:50;default:user" json:"role"`
}
