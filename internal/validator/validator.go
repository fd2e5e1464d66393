package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps a validator.Validate with the service's custom rules registered.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates s and converts failures to ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Engine exposes the underlying validate instance for gin's binding.
func (v *Validator) Engine() *validator.Validate {
	return v.structValidator
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("dyslexia_type", validateDyslexiaType)
	validate.RegisterValidation("user_role", validateUserRole)
	validate.RegisterValidation("lesson_choice", validateLessonChoice)
	validate.RegisterValidation("username", validateUsername)

	// Form requests report the form field name, JSON requests the json name.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

func validateDyslexiaType(fl validator.FieldLevel) bool {
	_, err := models.ParseSubtype(fl.Field().String())
	return err == nil
}

func validateUserRole(fl validator.FieldLevel) bool {
	_, err := models.ParseRole(fl.Field().String())
	return err == nil
}

func validateLessonChoice(fl validator.FieldLevel) bool {
	switch strings.ToUpper(fl.Field().String()) {
	case "A", "B", "C":
		return true
	default:
		return false
	}
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}
