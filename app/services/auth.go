package services

import (
	"errors"

	"github.com/sheapwilliams/lunch/app/models"
	"github.com/sheapwilliams/lunch/app/repositories"
	"github.com/sheapwilliams/lunch/pkg/auth"
	"gorm.io/gorm"
)

// AuthService handles registration and login.
type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(users *repositories.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *AuthService) Register(username, password string) (models.User, error) {
	if _, err := s.users.FindByUsername(username); err == nil {
		return models.User{}, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{Username: username, Password: hash, Role: "user"}
	if err := s.users.Create(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Login verifies credentials and returns the user with a signed API token.
func (s *AuthService) Login(username, password string) (models.User, string, error) {
	user, err := s.users.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", err
	}

	if !auth.CheckPassword(user.Password, password) {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}
