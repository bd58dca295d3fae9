package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned by ParseAmount for input that is not a number.
var ErrInvalidAmount = errors.New("kasa/core: invalid amount")

// ParseAmount converts a client-supplied amount into a decimal. This is the
// only place client input becomes money; the registry never parses strings.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// FormatAmount renders a balance with exactly two fractional digits, the
// format used both on the wire and in the persisted snapshot.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
