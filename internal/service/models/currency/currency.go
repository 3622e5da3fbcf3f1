package currency

import (
	"database/sql/driver"
	"errors"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyINR Currency = "INR"
)

// CurrencyDefault is used when the client omits the currency.
const CurrencyDefault = CurrencyUSD

var ErrInvalidCurrency = errors.New("invalid currency")

func (c Currency) String() string {
	return string(c)
}

func (c Currency) Value() (driver.Value, error) {
	return c.String(), nil
}

// ParseCurrency accepts any 3-letter uppercase ISO 4217 code.
// An empty string parses to the default currency.
func ParseCurrency(s string) (Currency, error) {
	if s == "" {
		return CurrencyDefault, nil
	}
	if len(s) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}

	return Currency(s), nil
}
