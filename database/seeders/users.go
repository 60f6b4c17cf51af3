package seeders

import (
	"errors"

	"github.com/sheapwilliams/lunch/app/models"
	"github.com/sheapwilliams/lunch/pkg/auth"
	"gorm.io/gorm"
)

func init() {
	Register("users", SeedUsers)
}

// SeedUsers creates a local admin and a demo user. Idempotent: existing
// usernames are left alone.
func SeedUsers(db *gorm.DB) error {
	seed := []struct {
		username string
		password string
		role     string
	}{
		{"admin", "change-me-now", "admin"},
		{"demo", "demo-password", "user"},
	}

	for _, s := range seed {
		var existing models.User
		err := db.Where("username = ?", s.username).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := auth.HashPassword(s.password)
		if err != nil {
			return err
		}
		user := models.User{Username: s.username, Password: hash, Role: s.role}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
	}
	return nil
}
