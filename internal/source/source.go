// Package source provides the "stat then read" access to folder listings
// used by traversal. Implementations exist for local and in-memory
// filesystems, S3 buckets and SQLite catalogs, plus a badger-backed cache
// that can sit in front of any of them.
package source

import (
	"context"
	"errors"
	"time"
)

// ErrNotExist is returned by Stat and Read for a missing listing.
var ErrNotExist = errors.New("listing does not exist")

// Info describes a listing resource.
type Info struct {
	Locator string
	Size    int64
	ModTime time.Time
	Dir     bool
}

// Source fetches listing resources by locator.
type Source interface {
	Stat(ctx context.Context, locator string) (Info, error)
	Read(ctx context.Context, locator string) ([]byte, error)
}

// DirLister is implemented by sources that can enumerate child folders.
// Traversal only recurses into children when the source implements it.
type DirLister interface {
	ListDirs(ctx context.Context, locator string) ([]string, error)
}
