package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
	ErrInvalidColor    = errors.New("invalid color")
	ErrInvalidIDFormat = errors.New("invalid ID format")
)

// Validation constants
const (
	MaxNameLength   = 255
	MinNameLength   = 1
	MaxNoteLength   = 2000
	MaxFaceAmount   = "1000000000000" // 1 trillion
	MaxDeltaPercent = "1000"
)

// Valid currency codes (ISO 4217) the desk trades.
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "CAD": true, "CHF": true, "AUD": true,
	"PEN": true, "COP": true, "CLP": true, "ARS": true,
	"BOB": true, "BRL": true, "MXN": true, "VES": true,
	"UYU": true, "PYG": true, "DOP": true, "GTQ": true,
}

var (
	colorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	ulidRegex  = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
)

// ValidateName validates a display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}

	return nil
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a supported ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateFaceAmount validates a transaction face amount. Zero is allowed
// while a form is being completed.
func ValidateFaceAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxFaceAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxFaceAmount)
	}

	return nil
}

// ValidateDelta bounds the manual adjustment percentage.
func ValidateDelta(delta decimal.Decimal) error {
	limit, _ := decimal.NewFromString(MaxDeltaPercent)
	if delta.Abs().GreaterThan(limit) {
		return fmt.Errorf("%w: manual percentage must be within ±%s", ErrInvalidPercentage, MaxDeltaPercent)
	}
	return nil
}

// ValidateColor accepts #RGB and #RRGGBB hex colors.
func ValidateColor(color string) error {
	if !colorRegex.MatchString(strings.TrimSpace(color)) {
		return fmt.Errorf("%w: %q is not a hex color", ErrInvalidColor, color)
	}
	return nil
}

// ValidateID checks that id looks like a ULID.
func ValidateID(id string) error {
	if !ulidRegex.MatchString(strings.ToUpper(id)) {
		return fmt.Errorf("%w: %q", ErrInvalidIDFormat, id)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
