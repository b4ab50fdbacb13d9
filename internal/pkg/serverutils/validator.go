package serverutils

import (
	"fmt"
	"strings"

	"clinical-assist-be/internal/pkg/errs"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation and converts the first failure
// into the validation error type the error handler knows how to render.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return errs.Validation("", "invalid request body")
	}

	fe := validationErrors[0]
	field := strings.ToLower(fe.Field())
	return errs.Validation(field, fmt.Sprintf("failed on the '%s' rule", fe.Tag()))
}
