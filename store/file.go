package store

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"path/filepath"

	"kasa/core"
)

// FileBackend keeps the registry as a flat text snapshot, one CSV record per
// account: login,password,nickname,balance. Fields without commas produce the
// legacy unquoted layout byte for byte; fields with commas get CSV quoting
// instead of corrupting the file.
type FileBackend struct {
	// path of the snapshot file.
	path string
}

// New allocates a FileBackend for path.
func (b *FileBackend) New(path string) *FileBackend {
	b.path = path
	return b
}

// Load reads the snapshot, creating an empty file when none exists.
// Malformed lines are skipped and logged rather than failing startup.
func (b *FileBackend) Load() ([]core.Account, error) {
	file, err := os.Open(b.path)
	if os.IsNotExist(err) {
		empty, err := os.OpenFile(b.path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("failed to create snapshot file %s: %v", b.path, err)
			return nil, err
		}
		empty.Close()
		return nil, nil
	} else if err != nil {
		log.Printf("failed to open snapshot file %s: %v", b.path, err)
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var accounts []core.Account
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			log.Printf("skipping malformed snapshot line: %v", err)
			continue
		}
		if len(record) != 4 {
			log.Printf("skipping snapshot line with %d fields (want 4)", len(record))
			continue
		}

		balance, err := core.ParseAmount(record[3])
		if err != nil {
			log.Printf("skipping snapshot line for %q: bad balance %q", record[0], record[3])
			continue
		}

		accounts = append(accounts, core.Account{
			Login:    record[0],
			Password: record[1],
			Nickname: record[2],
			Balance:  balance.Round(2),
		})
	}

	return accounts, nil
}

// Save overwrites the snapshot with every account, writing to a temp file in
// the same directory and renaming over the original so a crashed write
// leaves the previous snapshot intact.
func (b *FileBackend) Save(accounts []core.Account) error {
	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, ".kasa-snapshot-*")
	if err != nil {
		log.Printf("failed to create temp snapshot in %s: %v", dir, err)
		return err
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	for _, account := range accounts {
		record := []string{account.Login, account.Password, account.Nickname, core.FormatAmount(account.Balance)}
		if err := writer.Write(record); err != nil {
			tmp.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), b.path)
}
