package source

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Cached keeps listing content in badger and serves it again as long as the
// inner source reports the same size and modification time. Stat always
// goes to the inner source so the cache never hides a changed listing.
type Cached struct {
	inner Source
	db    *badger.DB
	owned bool

	mu    sync.Mutex
	stats map[string]Info
}

// OpenCache opens (or creates) a badger cache in dir. An empty dir keeps
// the cache in memory.
func OpenCache(inner Source, dir string) (*Cached, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	c := NewCached(inner, db)
	c.owned = true
	return c, nil
}

// NewCached wraps inner with an existing badger database.
func NewCached(inner Source, db *badger.DB) *Cached {
	return &Cached{inner: inner, db: db, stats: make(map[string]Info)}
}

func (c *Cached) Close() error {
	if c.owned {
		return c.db.Close()
	}
	return nil
}

// Stat implements Source.
func (c *Cached) Stat(ctx context.Context, locator string) (Info, error) {
	info, err := c.inner.Stat(ctx, locator)
	c.mu.Lock()
	if err == nil {
		c.stats[locator] = info
	} else {
		delete(c.stats, locator)
	}
	c.mu.Unlock()
	return info, err
}

// Read implements Source.
func (c *Cached) Read(ctx context.Context, locator string) ([]byte, error) {
	c.mu.Lock()
	info, ok := c.stats[locator]
	c.mu.Unlock()
	if !ok {
		var err error
		if info, err = c.Stat(ctx, locator); err != nil {
			return nil, err
		}
	}

	if data, hit := c.get(locator, info); hit {
		return data, nil
	}

	data, err := c.inner.Read(ctx, locator)
	if err != nil {
		return nil, err
	}
	if err := c.put(locator, info, data); err != nil {
		return nil, err
	}
	return data, nil
}

// ListDirs forwards to the inner source when it can list folders.
func (c *Cached) ListDirs(ctx context.Context, locator string) ([]string, error) {
	lister, ok := c.inner.(DirLister)
	if !ok {
		return nil, nil
	}
	return lister.ListDirs(ctx, locator)
}

const stampLen = 16

func cacheKey(locator string) []byte {
	return []byte("listing:" + locator)
}

func (c *Cached) get(locator string, info Info) ([]byte, bool) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(locator))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) < stampLen {
				return badger.ErrKeyNotFound
			}
			size := int64(binary.BigEndian.Uint64(val[:8]))
			mtime := int64(binary.BigEndian.Uint64(val[8:stampLen]))
			if size != info.Size || mtime != info.ModTime.UnixNano() {
				return badger.ErrKeyNotFound
			}
			data = append([]byte(nil), val[stampLen:]...)
			return nil
		})
	})
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Cached) put(locator string, info Info, data []byte) error {
	val := make([]byte, stampLen+len(data))
	binary.BigEndian.PutUint64(val[:8], uint64(info.Size))
	binary.BigEndian.PutUint64(val[8:stampLen], uint64(info.ModTime.UnixNano()))
	copy(val[stampLen:], data)
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(locator), val)
	})
	if err != nil {
		return fmt.Errorf("cache %s: %w", locator, err)
	}
	return nil
}
