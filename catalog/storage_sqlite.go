package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	dialectSQLite = "sqlite3"

	tableCollections = "collections"
	colName          = "name"
	colData          = "data"
	colUpdatedAt     = "updated_at"
)

// SQLiteStorage persists collections as rows of a single SQLite table.
type SQLiteStorage struct {
	db      *sqlx.DB
	builder goqu.DialectWrapper
}

// NewSQLiteStorage opens (or creates) the SQLite database at dbPath and
// applies schema migrations.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStorage{db: db, builder: goqu.Dialect(dialectSQLite)}, nil
}

// Close closes the DB.
func (s *SQLiteStorage) Close() error { return s.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.Get(&current, `SELECT value FROM meta WHERE key='schema_version';`)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS collections (
            name TEXT PRIMARY KEY,
            data TEXT NOT NULL,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Storage
// ---------------------------------------------------------------------------

func (s *SQLiteStorage) Load(collection string) ([]byte, bool, error) {
	query, args, err := s.builder.
		From(tableCollections).
		Select(colData).
		Where(goqu.C(colName).Eq(collection)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build load query: %w", err)
	}

	var data string
	err = s.db.Get(&data, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", collection, err)
	}
	return []byte(data), true, nil
}

func (s *SQLiteStorage) Save(collection string, data []byte) error {
	return s.SaveBatch(map[string][]byte{collection: data})
}

// SaveBatch upserts every collection in one transaction.
func (s *SQLiteStorage) SaveBatch(collections map[string][]byte) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now().UTC()
	for _, name := range names {
		if err := s.upsert(tx, name, string(collections[name]), now); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) upsert(tx *sqlx.Tx, name, data string, at time.Time) error {
	update, args, err := s.builder.
		Update(tableCollections).
		Set(goqu.Record{colData: data, colUpdatedAt: at}).
		Where(goqu.C(colName).Eq(name)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}
	res, err := tx.Exec(update, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	insert, args, err := s.builder.
		Insert(tableCollections).
		Rows(goqu.Record{colName: name, colData: data, colUpdatedAt: at}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}
	_, err = tx.Exec(insert, args...)
	return err
}

// Collections lists the stored collection names with their last write time.
func (s *SQLiteStorage) Collections() (map[string]time.Time, error) {
	query, args, err := s.builder.
		From(tableCollections).
		Select(colName, colUpdatedAt).
		Order(goqu.C(colName).Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Name      string    `db:"name"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		out[r.Name] = r.UpdatedAt
	}
	return out, nil
}
