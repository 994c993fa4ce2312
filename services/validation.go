package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"ecom-admin/auth"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name, the name callers sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput checks the validate tags of input. The first failing field is reported
// as ErrInvalidInput.
func validateInput(ctx context.Context, input interface{}) error {
	err := validate.StructCtx(ctx, input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, fe.Field())
	case "email":
		return fmt.Errorf("%w: %s must be a valid email address", ErrInvalidInput, fe.Field())
	case "min":
		if fe.Param() == "1" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidInput, fe.Field())
		}
		return fmt.Errorf("%w: %s must be at least %s characters", ErrInvalidInput, fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%w: %s is invalid", ErrInvalidInput, fe.Field())
	}
}

// normalizeEmail is applied before every lookup and write so uniqueness is case and
// whitespace insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func normalizedEmail(s *string) *string {
	if s == nil {
		return nil
	}
	v := normalizeEmail(*s)
	return &v
}

// writeError maps a failed insert or update. A unique violation can only come from the email
// index, which a concurrent writer took between the lookup and the write.
func writeError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	return auth.DataAccess(err)
}
