package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const moneyPrecision = 2

// Money is an exact amount of a single currency held as integer minor units
// (cents). It is immutable: every operation returns a new value.
type Money struct {
	cents    int64
	currency Currency
}

type SerializedMoney struct {
	Cents      int64   `json:"cents"`
	Currency   string  `json:"currency"`
	FloatValue float64 `json:"floatValue"`
}

// NewMoneyFromString parses a non-negative decimal amount. Digits beyond two
// decimal places are rounded half away from zero.
func NewMoneyFromString(amount string, currencyCode string) (Money, error) {
	if strings.TrimSpace(currencyCode) == "" {
		return Money{}, fmt.Errorf("%w: currency must not be empty", ErrInvalidArgument)
	}

	if strings.TrimSpace(amount) == "" {
		return Money{}, fmt.Errorf("%w: amount must not be an empty string", ErrInvalidArgument)
	}

	currency, err := ParseCurrency(currencyCode)
	if err != nil {
		return Money{}, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: invalid amount %q", ErrInvalidArgument, amount)
	}

	return NewMoneyFromDecimal(d, currency)
}

func NewMoneyFromDecimal(d decimal.Decimal, currency Currency) (Money, error) {
	if _, ok := availableCurrencies[currency]; !ok {
		return Money{}, fmt.Errorf("%w: unsupported currency %q", ErrInvalidArgument, currency)
	}

	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidArgument)
	}

	cents := d.Round(moneyPrecision).Shift(moneyPrecision).IntPart()
	return Money{cents: cents, currency: currency}, nil
}

// NewMoneyFromCents restores a value from its authoritative minor-unit
// representation (cache payloads, database rows).
func NewMoneyFromCents(cents int64, currency Currency) (Money, error) {
	if _, ok := availableCurrencies[currency]; !ok {
		return Money{}, fmt.Errorf("%w: unsupported currency %q", ErrInvalidArgument, currency)
	}

	if cents < 0 {
		return Money{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidArgument)
	}

	return Money{cents: cents, currency: currency}, nil
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Currency() Currency {
	return m.currency
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.cents, -moneyPrecision)
}

func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: parameter's currency must be %s, got %s", ErrCurrencyMismatch, m.currency, other.currency)
	}

	return Money{cents: m.cents + other.cents, currency: m.currency}, nil
}

// Mul scales the amount by a quantity, rounding the result half away from
// zero to two decimals.
func (m Money) Mul(quantity decimal.Decimal) Money {
	cents := m.Decimal().Mul(quantity).Round(moneyPrecision).Shift(moneyPrecision).IntPart()
	return Money{cents: cents, currency: m.currency}
}

// Divide splits the amount by divisor. Inexact results are rounded half away
// from zero to two decimals, so Divide is not reversible by Mul: 1.00 / 3 is
// 0.33 and 0.33 * 3 is 0.99.
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, fmt.Errorf("%w: division by zero", ErrInvalidArgument)
	}

	cents := m.Decimal().Div(divisor).Round(moneyPrecision).Shift(moneyPrecision).IntPart()
	return Money{cents: cents, currency: m.currency}, nil
}

// Serialize exposes the money for transport. Cents is the authoritative
// representation, FloatValue is for display only.
func (m Money) Serialize() SerializedMoney {
	return SerializedMoney{
		Cents:      m.cents,
		Currency:   string(m.currency),
		FloatValue: m.Decimal().InexactFloat64(),
	}
}
