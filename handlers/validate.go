package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"quotedesk/services"
)

var validate = newValidator()

// newValidator registers the quote-specific tags:
//
//	decimal  a non-negative number as typed by a user ("1 200,50")
//	percent  a decimal in 0..100
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("decimal", isDecimal); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("percent", isPercent); err != nil {
		panic(err)
	}
	return v
}

func isDecimal(fl validator.FieldLevel) bool {
	d, err := services.ParseUserDecimal(fl.FieldName(), fl.Field().String())
	return err == nil && !d.IsNegative()
}

func isPercent(fl validator.FieldLevel) bool {
	d, err := services.ParseUserDecimal(fl.FieldName(), fl.Field().String())
	return err == nil && !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100))
}

// validateRequest checks struct tags and reports the first failure as a
// validation error naming the JSON field.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return services.Validation(err.Error())
	}

	fe := fieldErrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "decimal":
		msg = "must be a non-negative number"
	case "percent":
		msg = "must be a percentage between 0 and 100"
	case "min":
		msg = "must be at least " + fe.Param()
	case "max":
		msg = "must be at most " + fe.Param()
	case "oneof":
		msg = "must be one of: " + fe.Param()
	case "datetime":
		msg = "must be a date in DD.MM.YYYY format"
	default:
		msg = "failed the " + fe.Tag() + " check"
	}
	return services.Validation(msg).WithField(fe.Field())
}
