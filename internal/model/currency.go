package model

import "fmt"

// Currency is a closed set. Codes outside of it are rejected at the boundary
// by ParseCurrency, so Money never carries an unknown currency.
type Currency string

const (
	ARS    Currency = "ARS"
	USD    Currency = "USD"
	USDMEP Currency = "USD_MEP"
	EUR    Currency = "EUR"
)

var availableCurrencies = map[Currency]struct{}{
	ARS:    {},
	USD:    {},
	USDMEP: {},
	EUR:    {},
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if _, ok := availableCurrencies[c]; !ok {
		return "", fmt.Errorf("%w: unsupported currency %q", ErrInvalidArgument, s)
	}
	return c, nil
}

func (c Currency) String() string {
	return string(c)
}
