package store

import (
	"fmt"

	"kasa/core"
)

// Inspect prints the account table without passwords.
func (store *AccountStore) Inspect() {
	accounts := store.Accounts()

	fmt.Printf("\nACCOUNTS\n")
	fmt.Printf("%-5s %-15s %-15s %-12s\n", "ID", "Login", "Nickname", "Balance")
	for i, account := range accounts {
		fmt.Printf("%-5d %-15.15s %-15.15s %-12s\n", i+1, account.Login, account.Nickname, core.FormatAmount(account.Balance))
	}
	fmt.Printf("\ntotal accounts: %d\n", len(accounts))
}

// InspectFull prints the account table with every field, passwords included.
func (store *AccountStore) InspectFull() {
	accounts := store.Accounts()

	fmt.Printf("\nACCOUNTS\n")
	fmt.Printf("%-5s %-15s %-15s %-15s %-12s\n", "ID", "Login", "Password", "Nickname", "Balance")
	for i, account := range accounts {
		fmt.Printf("%-5d %-15.15s %-15.15s %-15.15s %-12s\n", i+1, account.Login, account.Password, account.Nickname, core.FormatAmount(account.Balance))
	}
	fmt.Printf("\ntotal accounts: %d\n", len(accounts))
}
