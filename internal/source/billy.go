package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
)

// Billy serves listings from a billy filesystem. Locators are paths inside
// that filesystem.
type Billy struct {
	fs billy.Filesystem
}

func NewBilly(fs billy.Filesystem) *Billy {
	return &Billy{fs: fs}
}

// NewLocal serves the host filesystem below root ("/" for absolute locators).
func NewLocal(root string) *Billy {
	return NewBilly(osfs.New(root))
}

// NewMemory serves an empty in-memory filesystem; use FS to populate it.
func NewMemory() *Billy {
	return NewBilly(memfs.New())
}

// FS exposes the underlying filesystem.
func (b *Billy) FS() billy.Filesystem {
	return b.fs
}

// Stat implements Source.
func (b *Billy) Stat(ctx context.Context, locator string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	fi, err := b.fs.Stat(locator)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Info{}, fmt.Errorf("%w: %s", ErrNotExist, locator)
		}
		return Info{}, fmt.Errorf("stat %s: %w", locator, err)
	}
	return Info{
		Locator: locator,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		Dir:     fi.IsDir(),
	}, nil
}

// Read implements Source.
func (b *Billy) Read(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := b.fs.Open(locator)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, locator)
		}
		return nil, fmt.Errorf("open %s: %w", locator, err)
	}
	defer func() { _ = f.Close() }() // read-only

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", locator, err)
	}
	return data, nil
}

// ListDirs implements DirLister. Hidden directories are skipped.
func (b *Billy) ListDirs(ctx context.Context, locator string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := b.fs.ReadDir(locator)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, locator)
		}
		return nil, fmt.Errorf("readdir %s: %w", locator, err)
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dirs = append(dirs, b.fs.Join(locator, e.Name()))
	}
	slices.Sort(dirs)
	return dirs, nil
}

// WriteFile is a helper for fixtures and exports.
func (b *Billy) WriteFile(locator string, data []byte) error {
	if dir := locatorDir(locator); dir != "" {
		if err := b.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	f, err := b.fs.Create(locator)
	if err != nil {
		return fmt.Errorf("create %s: %w", locator, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", locator, err)
	}
	return f.Close()
}

func locatorDir(locator string) string {
	i := strings.LastIndex(locator, "/")
	if i <= 0 {
		return ""
	}
	return locator[:i]
}
