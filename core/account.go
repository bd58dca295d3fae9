package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Account represents one entry of the bank's registry. Login is the unique
// identifier; Password and Nickname are stored as given by the client.
type Account struct {
	// Login uniquely identifies the account across the whole registry.
	Login string

	// Password is kept in clear text, exactly as received.
	Password string

	// Nickname is the display name shown by the list command.
	Nickname string

	// Balance is the current funds. Committed balances always carry exactly
	// two fractional digits.
	Balance decimal.Decimal
}

// String.
func (a *Account) String() string {
	return fmt.Sprintf("Account{login: %s, nickname: %s, balance: %s}", a.Login, a.Nickname, FormatAmount(a.Balance))
}
