package handler

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"inkwell/internal/errors"
)

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns the request validator installed on the echo instance.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements echo.Validator interface. Failures are reported as
// validation errors naming the first offending field.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.NewValidationError(err.Error())
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return errors.NewValidationError(field + " is required")
	case "email":
		return errors.NewValidationError(field + " must be a valid email")
	default:
		return errors.NewValidationError(fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
	}
}
