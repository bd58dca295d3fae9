package store

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// GetKasaDir returns the directory holding kasa's data files, creating it if
// needed.
func GetKasaDir() (string, error) {
	// Get user's home directory.
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("failed to get home directory: %v", err)
		return "", err
	}

	// Set kasa directory.
	kasa := filepath.Join(home, "Documents", "kasa-cli")

	// Create if don't exist.
	err = os.MkdirAll(kasa, 0755) // rwx r-x r-x
	if err != nil {
		log.Printf("failed to create kasa directory: %v", err)
		return "", err
	}

	return kasa, nil
}

// openDatabase.
func openDatabase(dbPath string) (*sql.DB, error) {
	// Open database connection.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		log.Printf("failed to open database at %s: %v", dbPath, err)
		return nil, err
	}

	// Configure SQLite.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Enable WAL mode
		"PRAGMA busy_timeout=5000",  // Wait up to 5 seconds when database is locked
		"PRAGMA synchronous=NORMAL", // Balance between safety and speed
		"PRAGMA foreign_keys=ON",    // Enable foreign key constraints
		"PRAGMA temp_store=MEMORY",  // Store temp tables and indices in memory
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			log.Printf("failed to set pragma %s: %v", pragma, err)
			return nil, err
		}
	}

	return db, nil
}
