package errors

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Username        string `validate:"required,username"`
	Password        string `validate:"required,min=8"`
	PasswordConfirm string `validate:"required,eqfield=Password"`
}

type selectionForm struct {
	DyslexiaType string `validate:"required,dyslexia_type"`
	Choice       string `validate:"lesson_choice"`
}

func newRejectingValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	reject := func(validator.FieldLevel) bool { return false }
	for _, tag := range []string{"dyslexia_type", "lesson_choice", "username"} {
		require.NoError(t, v.RegisterValidation(tag, reject))
	}
	return v
}

func TestToValidationErrors_DomainMessages(t *testing.T) {
	v := newRejectingValidator(t)

	errs := ToValidationErrors(v.Struct(selectionForm{DyslexiaType: "Reading trouble", Choice: "D"}))
	require.Len(t, errs, 2)
	assert.Equal(t, []string{"DyslexiaType", "Choice"}, errs.Fields())

	assert.Equal(t, "dyslexia_type", errs[0].Rule)
	assert.Equal(t, "must be one of the listed dyslexia types", errs[0].Message)
	assert.Equal(t, "Reading trouble", errs[0].Value)

	assert.Equal(t, "lesson_choice", errs[1].Rule)
	assert.Equal(t, "must be A, B or C", errs[1].Message)
}

func TestToValidationErrors_SignupMessages(t *testing.T) {
	v := newRejectingValidator(t)

	errs := ToValidationErrors(v.Struct(signupForm{
		Username:        "bad name!",
		Password:        "longenough",
		PasswordConfirm: "different1",
	}))
	require.Len(t, errs, 2)

	assert.Equal(t, "Username", errs[0].Field)
	assert.Equal(t, "may contain only letters, digits and @.+-_", errs[0].Message)

	assert.Equal(t, "PasswordConfirm", errs[1].Field)
	assert.Equal(t, "eqfield", errs[1].Rule)
	assert.Equal(t, "must match password", errs[1].Message)
	assert.Nil(t, errs[1].Value, "passwords are never echoed back")
}

func TestToValidationErrors_RequiredAndMin(t *testing.T) {
	v := newRejectingValidator(t)

	errs := ToValidationErrors(v.Struct(signupForm{Password: "short"}))
	require.Len(t, errs, 3)
	assert.Equal(t, "is required", errs[0].Message)
	assert.Equal(t, "must be at least 8", errs[1].Message)
	assert.Equal(t, "is required", errs[2].Message)
}

func TestToValidationErrors_IgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, ToValidationErrors(errors.New("database is down")))
	assert.Nil(t, ToValidationErrors(nil))
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *NewValidationError("dyslexia_type", "is required", nil))
	assert.Equal(t, "validation failed: dyslexia_type is required", errs.Error())

	errs = append(errs, *NewValidationError("age", "must be at most 150", 200))
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())

	single := NewValidationError("password1", "could not be hashed", nil)
	assert.Equal(t, "validation error on field 'password1': could not be hashed", single.Error())
}
