package store

import (
	"database/sql"
	"log"

	_ "modernc.org/sqlite"

	"kasa/core"
)

// SqliteBackend keeps the registry snapshot in a local SQLite database.
// Save and Load follow the same full-snapshot contract as FileBackend; the
// Account table is replaced wholesale inside one transaction per write.
type SqliteBackend struct {
	// db represents an active database connection. Used for creating
	// transactions on each operation.
	db *sql.DB
}

// New allocates a SqliteBackend for the database at dbPath and initializes
// the schema.
func (b *SqliteBackend) New(dbPath string) (*SqliteBackend, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		log.Printf("failed to open database: %v", err)
		return nil, err
	}
	b.db = db

	if err := b.createTables(); err != nil {
		log.Printf("failed to create account database schema: %v", err)
		return nil, err
	}
	return b, nil
}

// createTables creates the database schema for the account snapshot.
// Only creates the table if it doesn't previously exist.
func (b *SqliteBackend) createTables() error {
	// Begin a transaction.
	tx, err := b.db.Begin()
	if err != nil {
		log.Printf("failed to initiate transaction: %v", err)
		return err
	}
	defer tx.Rollback()

	table := `CREATE TABLE IF NOT EXISTS Account (
	-- keys
	id 		INTEGER PRIMARY KEY AUTOINCREMENT,
	login TEXT UNIQUE NOT NULL,

	-- Account
	password TEXT NOT NULL,
	nickname TEXT NOT NULL,
	balance  TEXT NOT NULL
	);`
	if _, err := tx.Exec(table); err != nil {
		return err
	}

	return tx.Commit()
}

// Load reads every account ordered by id, so arrival order survives reloads.
// Rows with an unparseable balance are skipped and logged.
func (b *SqliteBackend) Load() ([]core.Account, error) {
	// Begin a transaction.
	tx, err := b.db.Begin()
	if err != nil {
		log.Printf("failed to initiate transaction: %v", err)
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT login, password, nickname, balance FROM Account ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var login, password, nickname, balanceStr string
		if err := rows.Scan(&login, &password, &nickname, &balanceStr); err != nil {
			return nil, err
		}

		balance, err := core.ParseAmount(balanceStr)
		if err != nil {
			log.Printf("skipping account row for %q: bad balance %q", login, balanceStr)
			continue
		}

		accounts = append(accounts, core.Account{
			Login:    login,
			Password: password,
			Nickname: nickname,
			Balance:  balance.Round(2),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accounts, tx.Commit()
}

// Save replaces the Account table with the given snapshot in one transaction.
func (b *SqliteBackend) Save(accounts []core.Account) error {
	// Begin a transaction.
	tx, err := b.db.Begin()
	if err != nil {
		log.Printf("failed to initiate transaction: %v", err)
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM Account`); err != nil {
		return err
	}

	stmt := `INSERT INTO Account (login, password, nickname, balance) VALUES (?, ?, ?, ?);`
	for _, account := range accounts {
		_, err := tx.Exec(stmt, account.Login, account.Password, account.Nickname, core.FormatAmount(account.Balance))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Close releases the database connection.
func (b *SqliteBackend) Close() error {
	return b.db.Close()
}
