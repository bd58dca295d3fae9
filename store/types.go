package store

import (
	"sync"

	"kasa/core"
)

// Backend loads and saves full snapshots of the account registry. Save
// replaces the previous snapshot entirely; order of the slice is arrival
// order and must survive a Load round-trip.
type Backend interface {
	Load() ([]core.Account, error)
	Save(accounts []core.Account) error
}

// AccountStore is the shared registry of accounts. All operations take the
// store's single mutex, so concurrent sessions observe a serializable view:
// every check-then-mutate sequence (duplicate login, balance sufficiency,
// both legs of a transfer) runs inside one lock hold, and the snapshot is
// persisted before the lock is released.
type AccountStore struct {
	// mu guards accounts and index, and serializes backend writes.
	mu sync.Mutex

	// accounts in arrival order: load order, then registration order.
	// Nothing ever removes or reorders entries.
	accounts []core.Account

	// index maps login to the account's position in accounts.
	index map[string]int

	// backend receives a full snapshot after every successful mutation.
	backend Backend
}
