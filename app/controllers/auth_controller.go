package controllers

import (
	"errors"
	"net/http"

	"github.com/sheapwilliams/lunch/app/services"
	"github.com/sheapwilliams/lunch/pkg/ctx"
	"github.com/sheapwilliams/lunch/pkg/logger"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type registerInput struct {
	Username string `json:"username" validate:"required,alpha_dash,min=2,max=80"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register creates a new account.
func (a *AuthController) Register(c *ctx.Context) {
	var in registerInput
	if !c.BindJSON(&in) {
		return
	}

	user, err := a.auth.Register(in.Username, in.Password)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			c.Error(http.StatusConflict, "Username already taken")
			return
		}
		c.Error(http.StatusInternalServerError, "Could not create account")
		return
	}

	c.Created(user)
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates, binds the user to the session, and, when a payment
// confirmation was parked before login, points the client straight back at
// the confirmation endpoint so the interrupted checkout resumes.
func (a *AuthController) Login(c *ctx.Context) {
	var in loginInput
	if !c.BindJSON(&in) {
		return
	}

	user, token, err := a.auth.Login(in.Username, in.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.Unauthorized("Invalid username or password")
			return
		}
		c.Error(http.StatusInternalServerError, "Login failed")
		return
	}

	sess := c.Session()
	sess.Set("user_id", user.ID)
	sess.Set("role", user.Role)

	data := map[string]interface{}{
		"user":  user,
		"token": token,
	}
	if ref, ok := services.PendingConfirmation(sess); ok {
		data["redirect"] = "/api/checkout/confirmation?payment_intent=" + ref
	}

	if err := c.SaveSession(); err != nil {
		logger.WithCtx(c.Context()).Error("login: save session", "error", err)
		c.Error(http.StatusInternalServerError, "Login failed")
		return
	}

	c.Success(data)
}

// Logout destroys the session.
func (a *AuthController) Logout(c *ctx.Context) {
	sess := c.Session()
	sess.Invalidate()
	if err := c.SaveSession(); err != nil {
		c.Error(http.StatusInternalServerError, "Logout failed")
		return
	}
	c.SuccessMessage("Logged out")
}
