package services

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

var maxPrice = decimal.RequireFromString("9999.99")

// validatePrice enforces 0 < price <= 9999.99 with at most two decimals.
func validatePrice(field string, price decimal.Decimal) error {
	switch {
	case !price.IsPositive():
		return invalid(field, "price must be greater than zero")
	case price.GreaterThan(maxPrice):
		return invalid(field, "price must not exceed 9999.99")
	case !price.Equal(price.Round(2)):
		return invalid(field, "price must have at most two decimal places")
	}
	return nil
}
