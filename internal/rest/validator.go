package rest

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/monargent/monargent/internal/domainerr"
	"github.com/monargent/monargent/pkg/money"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("category_type", validateCategoryType)
	_ = v.RegisterValidation("frequency", validateFrequency)
	_ = v.RegisterValidation("amount", validateAmount)
	return v
}

// Validate checks v against its validate tags and reports the failed fields
// as a validation error.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return domainerr.Validation("%v", err)
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, describe(fe))
	}
	return domainerr.Validation("%s", strings.Join(messages, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "transaction_type", "category_type":
		return fmt.Sprintf("%s must be income or expense, got %q", fe.Field(), fe.Value())
	case "frequency":
		return fmt.Sprintf("%s must be weekly, monthly, quarterly, yearly or custom, got %q", fe.Field(), fe.Value())
	case "amount":
		return fmt.Sprintf("%s must be a positive amount, got %q", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
}

// Legacy credit/debit spellings are accepted.
func validateTransactionType(fl validator.FieldLevel) bool {
	_, err := money.ParseTransactionType(fl.Field().String())
	return err == nil
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateFrequency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "weekly", "monthly", "quarterly", "yearly", "custom":
		return true
	}
	return false
}

func validateAmount(fl validator.FieldLevel) bool {
	_, err := money.ParseAmount(fl.Field().String())
	return err == nil
}
