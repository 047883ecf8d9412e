package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/refcrawl/internal/cache"
)

// FileName is the name of the database file inside the cache directory.
const FileName = "refcrawl.db"

// PageDB is a cache.Provider that stores page records in SQLite.
type PageDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures PageDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a PageDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*PageDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The crawl is single-writer; one connection keeps SQLite happy.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pdb := &PageDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := pdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pdb, nil
}

// Close closes the database connection.
func (pdb *PageDB) Close() error {
	return pdb.db.Close()
}

// Path returns the database file path.
func (pdb *PageDB) Path() string {
	return pdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (pdb *PageDB) createTables() error {
	schema := `
	-- One row per cached URL, keyed like the file cache
	CREATE TABLE IF NOT EXISTS pages (
		key TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		content TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := pdb.db.ExecContext(context.Background(), schema)
	return err
}

// Entry returns the entry for url. The row is read by Entry.Load.
func (pdb *PageDB) Entry(url string) (cache.Entry, error) {
	return &pageEntry{
		db:  pdb,
		key: cache.Key(url),
		url: url,
	}, nil
}

// loadRecord returns the stored record for key, or nil if there is none.
func (pdb *PageDB) loadRecord(ctx context.Context, key string) (*cache.Record, error) {
	query := `SELECT url, content FROM pages WHERE key = ?`

	var rec cache.Record
	var content sql.NullString

	err := pdb.db.QueryRowContext(ctx, query, key).Scan(&rec.URL, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if content.Valid {
		rec.Content = &content.String
	}
	return &rec, nil
}

// saveRecord inserts or replaces the record stored under key.
func (pdb *PageDB) saveRecord(ctx context.Context, key string, rec cache.Record) error {
	query := `
	INSERT INTO pages (key, url, content)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		url = excluded.url,
		content = excluded.content,
		updated_at = CURRENT_TIMESTAMP
	`

	var content sql.NullString
	if rec.Content != nil {
		content = sql.NullString{String: *rec.Content, Valid: true}
	}

	_, err := pdb.db.ExecContext(ctx, query, key, rec.URL, content)
	return err
}

// pageEntry is a cache.Entry backed by a row of the pages table.
type pageEntry struct {
	cache.Fields

	db  *PageDB
	key string
	url string
}

// Load reads the row for the entry. A missing row leaves the entry empty.
func (e *pageEntry) Load() error {
	if e.Loaded() {
		return nil
	}

	rec, err := e.db.loadRecord(context.Background(), e.key)
	if err != nil {
		return &cache.StorageError{Op: "load", Path: e.db.dbPath + "#" + e.key, Err: err}
	}
	if rec == nil {
		e.Initialize(e.url)
		return nil
	}

	e.Populate(*rec)
	return nil
}

// Save upserts the row if the entry is dirty.
func (e *pageEntry) Save() error {
	if !e.Dirty() {
		return nil
	}

	if err := e.db.saveRecord(context.Background(), e.key, e.Record()); err != nil {
		return &cache.StorageError{Op: "save", Path: e.db.dbPath + "#" + e.key, Err: err}
	}

	e.MarkClean()
	return nil
}

var (
	_ cache.Provider = (*PageDB)(nil)
	_ cache.Entry    = (*pageEntry)(nil)
)
