package store

import (
	"log"

	"github.com/shopspring/decimal"

	"kasa/core"
)

// New allocates an AccountStore and populates it from backend. A missing or
// partially unreadable snapshot is the backend's concern; New only fails when
// the backend itself does.
func (store *AccountStore) New(backend Backend) (*AccountStore, error) {
	accounts, err := backend.Load()
	if err != nil {
		log.Printf("failed to load account snapshot: %v", err)
		return nil, err
	}

	store.backend = backend
	store.accounts = make([]core.Account, 0, len(accounts))
	store.index = make(map[string]int, len(accounts))
	for _, account := range accounts {
		if _, exists := store.index[account.Login]; exists {
			log.Printf("skipping duplicate login %q in snapshot", account.Login)
			continue
		}
		store.index[account.Login] = len(store.accounts)
		store.accounts = append(store.accounts, account)
	}

	return store, nil
}

// persistLocked writes the full snapshot through the backend. Callers hold
// the mutex and roll their mutation back on error, so a client never sees
// success for a change that was not durably written.
func (store *AccountStore) persistLocked() error {
	snapshot := make([]core.Account, len(store.accounts))
	copy(snapshot, store.accounts)
	if err := store.backend.Save(snapshot); err != nil {
		log.Printf("failed to persist account snapshot: %v", err)
		return err
	}
	return nil
}

// Find resolves a login to a copy of its account, or ErrNotFound.
func (store *AccountStore) Find(login string) (core.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	i, ok := store.index[login]
	if !ok {
		return core.Account{}, ErrNotFound
	}
	return store.accounts[i], nil
}

// Authenticate checks login and password for an exact match and returns a
// copy of the matching account.
func (store *AccountStore) Authenticate(login, password string) (core.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	i, ok := store.index[login]
	if !ok || store.accounts[i].Password != password {
		return core.Account{}, ErrInvalidCredentials
	}
	return store.accounts[i], nil
}

// Register appends a new account and persists the snapshot. The existence
// check, the append and the write happen under one lock hold, so two racing
// registrations with the same login cannot both succeed.
func (store *AccountStore) Register(login, password, nickname string, balance decimal.Decimal) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.index[login]; exists {
		return ErrDuplicateLogin
	}

	store.index[login] = len(store.accounts)
	store.accounts = append(store.accounts, core.Account{
		Login:    login,
		Password: password,
		Nickname: nickname,
		Balance:  balance.Round(2),
	})

	if err := store.persistLocked(); err != nil {
		store.accounts = store.accounts[:len(store.accounts)-1]
		delete(store.index, login)
		return err
	}
	return nil
}

// Balance returns the current balance for login.
func (store *AccountStore) Balance(login string) (decimal.Decimal, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	i, ok := store.index[login]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	return store.accounts[i].Balance, nil
}

// Deposit adds amount to login's balance unconditionally and returns the new
// balance. Amount validation is the session's job, not the registry's.
func (store *AccountStore) Deposit(login string, amount decimal.Decimal) (decimal.Decimal, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	i, ok := store.index[login]
	if !ok {
		return decimal.Zero, ErrNotFound
	}

	prev := store.accounts[i].Balance
	store.accounts[i].Balance = prev.Add(amount).Round(2)
	if err := store.persistLocked(); err != nil {
		store.accounts[i].Balance = prev
		return decimal.Zero, err
	}
	return store.accounts[i].Balance, nil
}

// Withdraw subtracts amount from login's balance and returns the new balance.
// The sufficiency check and the update share the lock hold, so a concurrent
// withdrawal cannot pass the check against a stale balance.
func (store *AccountStore) Withdraw(login string, amount decimal.Decimal) (decimal.Decimal, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	i, ok := store.index[login]
	if !ok {
		return decimal.Zero, ErrNotFound
	}

	prev := store.accounts[i].Balance
	if amount.GreaterThan(prev) {
		return decimal.Zero, ErrInsufficientFunds
	}
	store.accounts[i].Balance = prev.Sub(amount).Round(2)
	if err := store.persistLocked(); err != nil {
		store.accounts[i].Balance = prev
		return decimal.Zero, err
	}
	return store.accounts[i].Balance, nil
}

// Transfer debits fromLogin and credits toLogin as one atomic unit and
// returns the sender's new balance. No other operation can observe a state
// where only one side has been updated; the snapshot is written once, after
// both balances moved.
func (store *AccountStore) Transfer(fromLogin, toLogin string, amount decimal.Decimal) (decimal.Decimal, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	from, ok := store.index[fromLogin]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	to, ok := store.index[toLogin]
	if !ok {
		return decimal.Zero, ErrRecipientNotFound
	}

	prevFrom := store.accounts[from].Balance
	prevTo := store.accounts[to].Balance
	if amount.GreaterThan(prevFrom) {
		return decimal.Zero, ErrInsufficientFunds
	}

	// A self-transfer debits and credits the same balance; nothing moves.
	if from == to {
		return prevFrom, nil
	}

	store.accounts[from].Balance = prevFrom.Sub(amount).Round(2)
	store.accounts[to].Balance = prevTo.Add(amount).Round(2)
	if err := store.persistLocked(); err != nil {
		store.accounts[from].Balance = prevFrom
		store.accounts[to].Balance = prevTo
		return decimal.Zero, err
	}
	return store.accounts[from].Balance, nil
}

// Nicknames returns every account's nickname in arrival order.
func (store *AccountStore) Nicknames() []string {
	store.mu.Lock()
	defer store.mu.Unlock()

	nicknames := make([]string, len(store.accounts))
	for i, account := range store.accounts {
		nicknames[i] = account.Nickname
	}
	return nicknames
}

// Accounts returns a copy of the registry in arrival order.
func (store *AccountStore) Accounts() []core.Account {
	store.mu.Lock()
	defer store.mu.Unlock()

	accounts := make([]core.Account, len(store.accounts))
	copy(accounts, store.accounts)
	return accounts
}

// Len returns the number of registered accounts.
func (store *AccountStore) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.accounts)
}
