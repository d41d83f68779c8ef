// Package sqlstore keeps a store in a SQLite table.
//
// Tables:
//
//	<table>(key, data)       PRIMARY KEY (key)
//	hoard_meta(name, codec)  PRIMARY KEY (name)
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/bitfsorg/hoard-go/codec"
	"github.com/bitfsorg/hoard-go/store"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidTable indicates a table name that is not a plain identifier.
var ErrInvalidTable = errors.New("sqlstore: invalid table name")

// Store is a store.Store over one SQLite table.
type Store struct {
	db    *sql.DB
	table string
	codec codec.Codec
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Coded = (*Store)(nil)
)

// Open opens or creates the database at path and the store in table. A new
// table records codecName; an existing one keeps its recorded codec.
func Open(path, table, codecName string) (*Store, error) {
	if !tableName.MatchString(table) || table == "hoard_meta" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	if codecName == "" {
		codecName = codec.Default
	}
	if _, err := codec.Get(codecName); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	stmts := []string{
		"PRAGMA journal_mode=WAL",
		`CREATE TABLE IF NOT EXISTS hoard_meta (
			name TEXT PRIMARY KEY,
			codec TEXT NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			key TEXT PRIMARY KEY,
			data BLOB
		)`, table),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %w", store.ErrStorageFault, err)
		}
	}

	if _, err := db.Exec(
		"INSERT INTO hoard_meta (name, codec) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		table, codecName,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", store.ErrStorageFault, err)
	}
	if err := db.QueryRow("SELECT codec FROM hoard_meta WHERE name = ?", table).Scan(&codecName); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", store.ErrStorageFault, err)
	}

	c, err := codec.Get(codecName)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, table: table, codec: c}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Codec returns the codec recorded for the table.
func (s *Store) Codec() codec.Codec { return s.codec }

// LoadRaw selects the row for key.
func (s *Store) LoadRaw(key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(fmt.Sprintf("SELECT data FROM %q WHERE key = ?", s.table), key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: select %q: %w", store.ErrStorageFault, key, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// StoreRaw inserts or replaces the row for key.
func (s *Store) StoreRaw(key string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.Exec(
		fmt.Sprintf(`INSERT INTO %q (key, data) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data`, s.table),
		key, data,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert %q: %w", store.ErrStorageFault, key, err)
	}
	return nil
}

// Delete removes the row for key.
func (s *Store) Delete(key string) error {
	res, err := s.db.Exec(fmt.Sprintf("DELETE FROM %q WHERE key = ?", s.table), key)
	if err != nil {
		return fmt.Errorf("%w: delete %q: %w", store.ErrStorageFault, key, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	return nil
}

// Contains reports whether a row exists for key.
func (s *Store) Contains(key string) (bool, error) {
	var one int
	err := s.db.QueryRow(fmt.Sprintf("SELECT 1 FROM %q WHERE key = ?", s.table), key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: select %q: %w", store.ErrStorageFault, key, err)
	}
	return true, nil
}

// Keys reads the key column in one query when iteration starts.
func (s *Store) Keys() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		keys, err := s.keySlice()
		if err != nil {
			yield("", fmt.Errorf("%w: list keys: %w", store.ErrStorageFault, err))
			return
		}
		for _, k := range keys {
			if !yield(k, nil) {
				return
			}
		}
	}
}

func (s *Store) keySlice() ([]string, error) {
	rows, err := s.db.Query(fmt.Sprintf("SELECT key FROM %q ORDER BY key", s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
