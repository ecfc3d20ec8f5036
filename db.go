package podpacker

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ChunkDB is a catalog of the chunks written by each bank, keyed by the
// SHA-1 of the level file each one was packed from.
type ChunkDB struct {
	db *sql.DB
}

// Entry is a single packed level in the catalog
type Entry struct {
	Bank     string
	Position int
	Name     string
	SHA1     string
	Clutter  int
	Chunk    []byte
}

// NewChunkDB opens or creates the catalog stored in file
func NewChunkDB(file string) (*ChunkDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS bank (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS chunk (bank_id INTEGER NOT NULL, position INTEGER NOT NULL, name TEXT NOT NULL, sha1 TEXT NOT NULL, clutter INTEGER NOT NULL, chunk BLOB NOT NULL, PRIMARY KEY(bank_id, position), FOREIGN KEY(bank_id) REFERENCES bank(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &ChunkDB{
		db: db,
	}, nil
}

// Close closes the catalog
func (db *ChunkDB) Close() error {
	return db.db.Close()
}

func (db *ChunkDB) addBank(tx *sql.Tx, name string) (int64, error) {
	var id int64
	switch err := tx.QueryRow("SELECT id FROM bank WHERE name = ?", name).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := tx.Exec("INSERT INTO bank (name) VALUES (?)", name)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

func (db *ChunkDB) replace(tx *sql.Tx, bank string, b *Batch) error {
	if len(b.Levels) != len(b.Records) {
		return fmt.Errorf("%d levels but %d records", len(b.Levels), len(b.Records))
	}

	id, err := db.addBank(tx, bank)
	if err != nil {
		return err
	}

	if _, err = tx.Exec("DELETE FROM chunk WHERE bank_id = ?", id); err != nil {
		return err
	}

	for i, l := range b.Levels {
		if _, err = tx.Exec("INSERT INTO chunk (bank_id, position, name, sha1, clutter, chunk) VALUES (?, ?, ?, ?, ?, ?)", id, i, l.Name, l.SHA1, l.Clutter, b.Records[i]); err != nil {
			return err
		}
	}

	return nil
}

// Replace swaps the recorded contents of bank for the batch b
func (db *ChunkDB) Replace(bank string, b *Batch) error {
	return db.ReplaceBanks([]string{bank}, []*Batch{b})
}

// ReplaceBanks swaps the recorded contents of each bank for the batch at
// the same index in a single transaction, so either every bank is updated
// or none are.
func (db *ChunkDB) ReplaceBanks(banks []string, batches []*Batch) error {
	if len(banks) != len(batches) {
		return fmt.Errorf("chunkdb: %d banks but %d batches", len(banks), len(batches))
	}

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, bank := range banks {
		if err := db.replace(tx, bank, batches[i]); err != nil {
			return fmt.Errorf("chunkdb: bank %s: %w", bank, err)
		}
	}

	return tx.Commit()
}

// List returns the chunks recorded for bank in output order. If bank is
// empty every bank is listed.
func (db *ChunkDB) List(bank string) ([]Entry, error) {
	rows, err := db.db.Query("SELECT b.name, c.position, c.name, c.sha1, c.clutter, c.chunk FROM chunk AS c JOIN bank AS b ON c.bank_id = b.id WHERE ? = '' OR b.name = ? ORDER BY b.name, c.position", bank, bank)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Bank, &e.Position, &e.Name, &e.SHA1, &e.Clutter, &e.Chunk); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// FindChunkBySHA1 returns the most recently recorded chunk packed from a
// level file with the given SHA-1, or nil if there isn't one.
func (db *ChunkDB) FindChunkBySHA1(sha string) ([]byte, error) {
	var chunk []byte
	switch err := db.db.QueryRow("SELECT chunk FROM chunk WHERE sha1 = ? ORDER BY rowid DESC LIMIT 1", sha).Scan(&chunk); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return chunk, nil
	default:
		return nil, err
	}
}
