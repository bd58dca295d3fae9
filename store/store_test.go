package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"kasa/core"
	"kasa/store"
)

// newFileStore spins up a registry over a flat snapshot in a temp directory.
func newFileStore(t *testing.T) (*store.AccountStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "baza.txt")
	accounts, err := new(store.AccountStore).New(new(store.FileBackend).New(path))
	if err != nil {
		t.Fatal(err)
	}
	return accounts, path
}

func amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := core.ParseAmount(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestRegisterAndAuthenticate(t *testing.T) {
	accounts, _ := newFileStore(t)

	// Register.
	if err := accounts.Register("alice", "pw", "Alice", amount(t, "100.00")); err != nil {
		t.Fatal(err)
	}

	// Duplicate login.
	if err := accounts.Register("alice", "other", "Alice2", amount(t, "0")); err != store.ErrDuplicateLogin {
		t.Fatalf("expected ErrDuplicateLogin, got %v", err)
	}

	// Authenticate.
	account, err := accounts.Authenticate("alice", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if account.Nickname != "Alice" || core.FormatAmount(account.Balance) != "100.00" {
		t.Fatalf("unexpected account: %s", account.String())
	}

	// Wrong password, unknown login.
	if _, err := accounts.Authenticate("alice", "nope"); err != store.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := accounts.Authenticate("nobody", "pw"); err != store.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// Find.
	if _, err := accounts.Find("alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := accounts.Find("nobody"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentRegistrationsSameLogin(t *testing.T) {
	accounts, _ := newFileStore(t)

	const racers = 16
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- accounts.Register("bob", "pw", "Bob", decimal.Zero)
		}()
	}
	wg.Wait()
	close(results)

	var ok, dup int
	for err := range results {
		switch err {
		case nil:
			ok++
		case store.ErrDuplicateLogin:
			dup++
		default:
			t.Fatal(err)
		}
	}
	if ok != 1 || dup != racers-1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d duplicates", ok, dup)
	}
	if accounts.Len() != 1 {
		t.Fatalf("expected 1 account, got %d", accounts.Len())
	}
}

func TestConcurrentDepositsAndWithdrawals(t *testing.T) {
	accounts, _ := newFileStore(t)
	if err := accounts.Register("alice", "pw", "Alice", amount(t, "100.00")); err != nil {
		t.Fatal(err)
	}

	// 40 deposits of 2.50 and 40 withdrawals of 1.25 interleaved across
	// goroutines: final balance must be 100 + 40*2.50 - 40*1.25 = 150.00.
	const n = 40
	deposit := amount(t, "2.50")
	withdrawal := amount(t, "1.25")
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := accounts.Deposit("alice", deposit); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := accounts.Withdraw("alice", withdrawal); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	balance, err := accounts.Balance("alice")
	if err != nil {
		t.Fatal(err)
	}
	if core.FormatAmount(balance) != "150.00" {
		t.Fatalf("expected 150.00, got %s", core.FormatAmount(balance))
	}
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	accounts, _ := newFileStore(t)
	if err := accounts.Register("alice", "pw", "Alice", amount(t, "10.00")); err != nil {
		t.Fatal(err)
	}

	if _, err := accounts.Withdraw("alice", amount(t, "10.01")); err != store.ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	balance, err := accounts.Balance("alice")
	if err != nil {
		t.Fatal(err)
	}
	if core.FormatAmount(balance) != "10.00" {
		t.Fatalf("balance changed on failed withdrawal: %s", core.FormatAmount(balance))
	}
}

func TestTransfer(t *testing.T) {
	accounts, _ := newFileStore(t)
	if err := accounts.Register("alice", "pw", "Alice", amount(t, "150.00")); err != nil {
		t.Fatal(err)
	}
	if err := accounts.Register("bob", "pw", "Bob", amount(t, "0.00")); err != nil {
		t.Fatal(err)
	}

	// Unknown recipient.
	if _, err := accounts.Transfer("alice", "carol", amount(t, "10")); err != store.ErrRecipientNotFound {
		t.Fatalf("expected ErrRecipientNotFound, got %v", err)
	}

	// Insufficient funds leaves both balances unchanged.
	if _, err := accounts.Transfer("alice", "bob", amount(t, "200")); err != store.ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if balance, _ := accounts.Balance("alice"); core.FormatAmount(balance) != "150.00" {
		t.Fatalf("sender balance changed: %s", core.FormatAmount(balance))
	}
	if balance, _ := accounts.Balance("bob"); core.FormatAmount(balance) != "0.00" {
		t.Fatalf("recipient balance changed: %s", core.FormatAmount(balance))
	}

	// Successful transfer.
	balance, err := accounts.Transfer("alice", "bob", amount(t, "50"))
	if err != nil {
		t.Fatal(err)
	}
	if core.FormatAmount(balance) != "100.00" {
		t.Fatalf("expected sender balance 100.00, got %s", core.FormatAmount(balance))
	}
	if balance, _ := accounts.Balance("bob"); core.FormatAmount(balance) != "50.00" {
		t.Fatalf("expected recipient balance 50.00, got %s", core.FormatAmount(balance))
	}
}

func TestConcurrentTransfersConserveTotal(t *testing.T) {
	accounts, _ := newFileStore(t)
	if err := accounts.Register("alice", "pw", "Alice", amount(t, "500.00")); err != nil {
		t.Fatal(err)
	}
	if err := accounts.Register("bob", "pw", "Bob", amount(t, "500.00")); err != nil {
		t.Fatal(err)
	}

	// Transfers racing in both directions; some fail on funds, none may mint
	// or destroy money.
	amounts := make([]decimal.Decimal, 50)
	for i := range amounts {
		amounts[i] = amount(t, strconv.Itoa(i+1))
	}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			accounts.Transfer("alice", "bob", amounts[i])
		}(i)
		go func(i int) {
			defer wg.Done()
			accounts.Transfer("bob", "alice", amounts[i])
		}(i)
	}
	wg.Wait()

	aliceBalance, _ := accounts.Balance("alice")
	bobBalance, _ := accounts.Balance("bob")
	if aliceBalance.IsNegative() || bobBalance.IsNegative() {
		t.Fatalf("negative balance: alice=%s bob=%s", core.FormatAmount(aliceBalance), core.FormatAmount(bobBalance))
	}
	if total := aliceBalance.Add(bobBalance); core.FormatAmount(total) != "1000.00" {
		t.Fatalf("total changed: %s", core.FormatAmount(total))
	}
}

func TestSnapshotReload(t *testing.T) {
	accounts, path := newFileStore(t)
	if err := accounts.Register("alice", "pw", "Alice", amount(t, "100.00")); err != nil {
		t.Fatal(err)
	}
	if err := accounts.Register("bob", "pw2", "Bob", amount(t, "0.00")); err != nil {
		t.Fatal(err)
	}
	if _, err := accounts.Deposit("alice", amount(t, "50")); err != nil {
		t.Fatal(err)
	}

	// Reload from the same file and compare field by field.
	reloaded, err := new(store.AccountStore).New(new(store.FileBackend).New(path))
	if err != nil {
		t.Fatal(err)
	}

	before := accounts.Accounts()
	after := reloaded.Accounts()
	if len(before) != len(after) {
		t.Fatalf("expected %d accounts after reload, got %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Login != after[i].Login ||
			before[i].Password != after[i].Password ||
			before[i].Nickname != after[i].Nickname ||
			!before[i].Balance.Equal(after[i].Balance) {
			t.Fatalf("account %d differs after reload: %s vs %s", i, before[i].String(), after[i].String())
		}
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baza.txt")
	data := "alice,pw,Alice,100.00\n" +
		"broken line\n" +
		"carol,pw,Carol,not-a-number\n" +
		"alice,other,Dup,5.00\n" +
		"bob,pw2,Bob,0.00\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	accounts, err := new(store.AccountStore).New(new(store.FileBackend).New(path))
	if err != nil {
		t.Fatal(err)
	}
	if accounts.Len() != 2 {
		t.Fatalf("expected 2 accounts, got %d", accounts.Len())
	}
	if nicknames := accounts.Nicknames(); nicknames[0] != "Alice" || nicknames[1] != "Bob" {
		t.Fatalf("unexpected nicknames: %v", nicknames)
	}
}

func TestCommaFieldsSurviveRoundTrip(t *testing.T) {
	accounts, path := newFileStore(t)
	if err := accounts.Register("alice", "pw", "Alice, the First", amount(t, "1.00")); err != nil {
		t.Fatal(err)
	}

	reloaded, err := new(store.AccountStore).New(new(store.FileBackend).New(path))
	if err != nil {
		t.Fatal(err)
	}
	if nicknames := reloaded.Nicknames(); len(nicknames) != 1 || nicknames[0] != "Alice, the First" {
		t.Fatalf("nickname corrupted by snapshot: %v", nicknames)
	}
}

// brokenBackend wraps a real backend and fails every Save while fail is set.
type brokenBackend struct {
	inner store.Backend
	fail  bool
}

func (b *brokenBackend) Load() ([]core.Account, error) { return b.inner.Load() }

func (b *brokenBackend) Save(accounts []core.Account) error {
	if b.fail {
		return errors.New("disk full")
	}
	return b.inner.Save(accounts)
}

func TestFailedPersistRollsBackMutation(t *testing.T) {
	backend := &brokenBackend{inner: new(store.FileBackend).New(filepath.Join(t.TempDir(), "baza.txt"))}
	accounts, err := new(store.AccountStore).New(backend)
	if err != nil {
		t.Fatal(err)
	}
	if err := accounts.Register("alice", "pw", "Alice", amount(t, "100.00")); err != nil {
		t.Fatal(err)
	}
	if err := accounts.Register("bob", "pw", "Bob", amount(t, "50.00")); err != nil {
		t.Fatal(err)
	}

	backend.fail = true

	// Register: the account must not survive the failed write.
	if err := accounts.Register("carol", "pw", "Carol", amount(t, "10.00")); err == nil {
		t.Fatal("expected register to fail when the snapshot write fails")
	}
	if accounts.Len() != 2 {
		t.Fatalf("expected 2 accounts after rollback, got %d", accounts.Len())
	}
	if _, err := accounts.Find("carol"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound for rolled-back account, got %v", err)
	}

	// Deposit, withdraw, transfer: balances must stay put.
	if _, err := accounts.Deposit("alice", amount(t, "10")); err == nil {
		t.Fatal("expected deposit to fail when the snapshot write fails")
	}
	if _, err := accounts.Withdraw("alice", amount(t, "10")); err == nil {
		t.Fatal("expected withdrawal to fail when the snapshot write fails")
	}
	if _, err := accounts.Transfer("alice", "bob", amount(t, "10")); err == nil {
		t.Fatal("expected transfer to fail when the snapshot write fails")
	}
	if balance, _ := accounts.Balance("alice"); core.FormatAmount(balance) != "100.00" {
		t.Fatalf("alice's balance changed on failed persist: %s", core.FormatAmount(balance))
	}
	if balance, _ := accounts.Balance("bob"); core.FormatAmount(balance) != "50.00" {
		t.Fatalf("bob's balance changed on failed persist: %s", core.FormatAmount(balance))
	}

	// Registering carol again after the backend recovers must succeed: the
	// rolled-back attempt left no index entry behind.
	backend.fail = false
	if err := accounts.Register("carol", "pw", "Carol", amount(t, "10.00")); err != nil {
		t.Fatal(err)
	}
	if _, err := accounts.Deposit("alice", amount(t, "10")); err != nil {
		t.Fatal(err)
	}
	if balance, _ := accounts.Balance("alice"); core.FormatAmount(balance) != "110.00" {
		t.Fatalf("expected 110.00 after recovery, got %s", core.FormatAmount(balance))
	}
}

func TestSqliteBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "kasa.db")

	backend, err := new(store.SqliteBackend).New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()

	accounts, err := new(store.AccountStore).New(backend)
	if err != nil {
		t.Fatal(err)
	}
	if err := accounts.Register("alice", "pw", "Alice", amount(t, "100.00")); err != nil {
		t.Fatal(err)
	}
	if _, err := accounts.Transfer("alice", "alice", amount(t, "10")); err != nil {
		t.Fatal(err)
	}
	if err := accounts.Register("bob", "pw2", "Bob", amount(t, "25.50")); err != nil {
		t.Fatal(err)
	}

	// Reload through a fresh connection.
	reopened, err := new(store.SqliteBackend).New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	reloaded, err := new(store.AccountStore).New(reopened)
	if err != nil {
		t.Fatal(err)
	}
	before := accounts.Accounts()
	after := reloaded.Accounts()
	if len(after) != len(before) {
		t.Fatalf("expected %d accounts after reload, got %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Login != after[i].Login ||
			before[i].Password != after[i].Password ||
			before[i].Nickname != after[i].Nickname ||
			!before[i].Balance.Equal(after[i].Balance) {
			t.Fatalf("account %d differs after reload: %s vs %s", i, before[i].String(), after[i].String())
		}
	}
}
