package services

import "errors"

var (
	// ErrEmptyCart: checkout or submit attempted with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrAuthRequired: payment confirmation arrived on a session with no
	// bound user. Not a failure; the caller redirects to login and the
	// confirmation resumes afterwards.
	ErrAuthRequired = errors.New("authentication required")

	// ErrPaymentIncomplete: the provider reports the payment has not
	// succeeded.
	ErrPaymentIncomplete = errors.New("payment not completed")

	// ErrOrderInfoMissing: the payment's metadata carries no usable cart
	// snapshot.
	ErrOrderInfoMissing = errors.New("order information not found")

	// ErrReceiptNotFound: no orders exist for the requested payment
	// reference.
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrInvalidCredentials: login with an unknown username or wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUsernameTaken: registration with an existing username.
	ErrUsernameTaken = errors.New("username already taken")
)
