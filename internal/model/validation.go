package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their wire name so messages line up with form inputs.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		// Compare money as numbers.
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})

		validate = v
	})
	return validate
}

// Validate checks a form struct against its validate tags and returns a
// *common.ValidationError listing every offending field.
func Validate(form any) error {
	err := validatorInstance().Struct(form)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("failed to validate form: %w", err)
	}

	out := &common.ValidationError{Fields: make(map[string]string, len(ve))}
	for _, fe := range ve {
		out.Fields[fe.Field()] = messageForTag(fe.Tag(), fe.Param())
	}
	return out
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must be at most " + param + " characters"
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be " + param + " or greater"
	case "lte":
		return "must be " + param + " or less"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "http_url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

// ValidateCreate validates a new order, including that the amount paid
// does not exceed the total cost.
func ValidateCreate(c OrderCreate) error {
	if err := Validate(c); err != nil {
		return err
	}
	return checkAmountPaid(c.CostPerItem, c.Quantity, c.AmountPaid)
}

// ValidateUpdate validates an edit of current. The amount-paid rule is checked
// against the record as it would look after the update.
func ValidateUpdate(current Order, u OrderUpdate) error {
	if u.IsEmpty() {
		return common.ErrNoChanges
	}
	if err := Validate(u); err != nil {
		return err
	}
	merged := u.ApplyTo(current)
	return checkAmountPaid(merged.CostPerItem, merged.Quantity, merged.AmountPaid)
}

// ValidateBulkUpdate validates the update applied to every selected record.
// Cross-field rules are left to the server since each record differs.
func ValidateBulkUpdate(u OrderUpdate) error {
	if u.IsEmpty() {
		return common.NewUserError("Please select at least one field to update", common.ErrNoChanges)
	}
	return Validate(u)
}

func checkAmountPaid(costPerItem decimal.Decimal, quantity int, amountPaid decimal.Decimal) error {
	total := costPerItem.Mul(decimal.NewFromInt(int64(quantity)))
	if amountPaid.GreaterThan(total) {
		return common.NewValidationError("amount_paid", "cannot exceed total cost")
	}
	return nil
}
