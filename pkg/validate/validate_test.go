package validate_test

import (
	"testing"

	"github.com/sheapwilliams/lunch/pkg/validate"
	"github.com/stretchr/testify/assert"
)

type loginInput struct {
	Username string `json:"username" validate:"required,alpha_dash,min=2,max=80"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestStructRequired(t *testing.T) {
	errs := validate.Struct(loginInput{})
	assert.True(t, validate.HasErrors(errs))
	assert.Contains(t, errs["username"], "required")
	assert.Contains(t, errs["password"], "required")
}

func TestStructValidInput(t *testing.T) {
	errs := validate.Struct(loginInput{Username: "alice_b", Password: "long-enough"})
	assert.False(t, validate.HasErrors(errs))
}

func TestStructAlphaDash(t *testing.T) {
	errs := validate.Struct(loginInput{Username: "alice b!", Password: "long-enough"})
	assert.Contains(t, errs["username"], "letters, numbers, dashes and underscores")
}

func TestStructMinLength(t *testing.T) {
	errs := validate.Struct(loginInput{Username: "alice", Password: "short"})
	assert.Contains(t, errs["password"], "at least 8 characters")
}

func TestStructFirstFailingRuleWins(t *testing.T) {
	// "!" violates both alpha_dash and min=2; only alpha_dash reports.
	errs := validate.Struct(loginInput{Username: "!", Password: "long-enough"})
	assert.Contains(t, errs["username"], "letters")
}

func TestStructDateRule(t *testing.T) {
	type input struct {
		Date string `json:"date" validate:"required,date"`
	}

	assert.False(t, validate.HasErrors(validate.Struct(input{Date: "2026-03-02"})))
	assert.True(t, validate.HasErrors(validate.Struct(input{Date: "03/02/2026"})))
	assert.True(t, validate.HasErrors(validate.Struct(input{Date: "2026-02-30"})))
}

func TestStructNullableSkipsWhenEmpty(t *testing.T) {
	type input struct {
		Note string `json:"note" validate:"nullable,min=5"`
	}

	assert.False(t, validate.HasErrors(validate.Struct(input{})))
	assert.True(t, validate.HasErrors(validate.Struct(input{Note: "hey"})))
	assert.False(t, validate.HasErrors(validate.Struct(input{Note: "hello there"})))
}

func TestStructInRule(t *testing.T) {
	type input struct {
		Role string `json:"role" validate:"required,in=user|admin"`
	}

	assert.False(t, validate.HasErrors(validate.Struct(input{Role: "admin"})))
	errs := validate.Struct(input{Role: "superuser"})
	assert.Contains(t, errs["role"], "invalid")
}

func TestStructNumericBounds(t *testing.T) {
	type input struct {
		Qty int `json:"qty" validate:"min=1,max=10"`
	}

	assert.True(t, validate.HasErrors(validate.Struct(input{Qty: 0})))
	assert.False(t, validate.HasErrors(validate.Struct(input{Qty: 5})))
	assert.True(t, validate.HasErrors(validate.Struct(input{Qty: 11})))
}

func TestStructAcceptsPointer(t *testing.T) {
	errs := validate.Struct(&loginInput{Username: "alice", Password: "long-enough"})
	assert.False(t, validate.HasErrors(errs))
}
