package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS listings (
	locator TEXT PRIMARY KEY,
	content BLOB NOT NULL,
	mtime   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS assets (
	id      TEXT PRIMARY KEY,
	locator TEXT NOT NULL,
	folder  TEXT NOT NULL,
	name    TEXT NOT NULL,
	label   TEXT NOT NULL,
	tags    JSON NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assets_label ON assets(label);
`

// SQLite serves listings exported by SQLiteWriter. Locators are the listing
// locators they were exported under.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Stat implements Source.
func (s *SQLite) Stat(ctx context.Context, locator string) (Info, error) {
	var size, mtime int64
	err := s.db.QueryRowContext(ctx,
		"SELECT length(content), mtime FROM listings WHERE locator = ?", locator).Scan(&size, &mtime)
	if errors.Is(err, sql.ErrNoRows) {
		if s.isFolder(ctx, locator) {
			return Info{Locator: locator, Dir: true}, nil
		}
		return Info{}, fmt.Errorf("%w: %s", ErrNotExist, locator)
	}
	if err != nil {
		return Info{}, fmt.Errorf("stat %s: %w", locator, err)
	}
	return Info{Locator: locator, Size: size, ModTime: time.Unix(0, mtime)}, nil
}

func (s *SQLite) isFolder(ctx context.Context, locator string) bool {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM listings WHERE substr(locator, 1, ?) = ?",
		len(locator)+1, locator+"/").Scan(&n)
	return err == nil && n > 0
}

// Read implements Source.
func (s *SQLite) Read(ctx context.Context, locator string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT content FROM listings WHERE locator = ?", locator).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, locator)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", locator, err)
	}
	return content, nil
}

// ListDirs implements DirLister by deriving immediate child folders from the
// stored listing locators.
func (s *SQLite) ListDirs(ctx context.Context, locator string) ([]string, error) {
	prefix := strings.TrimSuffix(locator, "/") + "/"
	rows, err := s.db.QueryContext(ctx,
		"SELECT locator FROM listings WHERE substr(locator, 1, ?) = ?", len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", locator, err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	seen := map[string]struct{}{}
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rest := loc[len(prefix):]
		if i := strings.Index(rest, "/"); i > 0 {
			seen[prefix+rest[:i]] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs, nil
}

// ExportedAsset is one row of the assets table.
type ExportedAsset struct {
	Locator string
	Folder  string
	Name    string
	Label   string
	Tags    []string
}

// SQLiteWriter exports listings and a flat asset table in one transaction.
type SQLiteWriter struct {
	mu      sync.Mutex
	db      *sql.DB
	tx      *sql.Tx
	listing *sql.Stmt
	asset   *sql.Stmt
}

func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA synchronous = OFF"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &SQLiteWriter{db: db}
	if w.tx, err = db.Begin(); err != nil {
		_ = db.Close()
		return nil, err
	}
	w.listing, err = w.tx.Prepare("INSERT OR REPLACE INTO listings (locator, content, mtime) VALUES (?, ?, ?)")
	if err != nil {
		_ = w.tx.Rollback()
		_ = db.Close()
		return nil, fmt.Errorf("prepare listings insert: %w", err)
	}
	w.asset, err = w.tx.Prepare("INSERT OR REPLACE INTO assets (id, locator, folder, name, label, tags) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		_ = w.tx.Rollback()
		_ = db.Close()
		return nil, fmt.Errorf("prepare assets insert: %w", err)
	}
	return w, nil
}

// PutListing stores the raw listing content under its locator.
func (w *SQLiteWriter) PutListing(locator string, content []byte, modTime time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.listing.Exec(locator, content, modTime.UnixNano()); err != nil {
		return fmt.Errorf("insert listing %s: %w", locator, err)
	}
	return nil
}

// PutAsset stores one asset row. The row ID is a name-based UUID of the
// locator, so re-exports keep the same IDs.
func (w *SQLiteWriter) PutAsset(a ExportedAsset) error {
	tags, err := json.Marshal(a.Tags)
	if err != nil {
		return err
	}
	if a.Tags == nil {
		tags = []byte("[]")
	}
	id := AssetID(a.Locator)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.asset.Exec(id.String(), a.Locator, a.Folder, a.Name, a.Label, string(tags)); err != nil {
		return fmt.Errorf("insert asset %s: %w", a.Locator, err)
	}
	return nil
}

// Close commits the export.
func (w *SQLiteWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.listing.Close()
	_ = w.asset.Close()
	if err := w.tx.Commit(); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("commit export: %w", err)
	}
	return w.db.Close()
}

// AssetID is the stable export identifier of an asset locator.
func AssetID(locator string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(locator))
}
