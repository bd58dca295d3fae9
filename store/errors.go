package store

import "errors"

var (
	ErrNotFound           = errors.New("kasa/store: account not found")
	ErrInvalidCredentials = errors.New("kasa/store: invalid login or password")
	ErrDuplicateLogin     = errors.New("kasa/store: login already in use")
	ErrInsufficientFunds  = errors.New("kasa/store: insufficient funds")
	ErrRecipientNotFound  = errors.New("kasa/store: recipient not found")
)
