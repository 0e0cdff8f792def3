package source

import (
	"errors"
	"fmt"
	"io"
)

// Kinds accepted by Open.
const (
	KindLocal  = "local"
	KindMemory = "memory"
	KindS3     = "s3"
	KindSQLite = "sqlite"
)

// Options selects and configures a source.
type Options struct {
	Kind       string    `yaml:"kind"`
	LocalRoot  string    `yaml:"local_root"`
	S3         S3Options `yaml:"s3"`
	SQLitePath string    `yaml:"sqlite_path"`
	CacheDir   string    `yaml:"cache_dir"`
	Cache      bool      `yaml:"cache"`
}

type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i].Close())
	}
	return errors.Join(errs...)
}

// Open builds the source described by opts. The returned closer releases
// any database handles and must be called when the catalog is discarded.
func Open(opts Options) (Source, io.Closer, error) {
	var (
		src Source
		cl  closers
	)
	switch opts.Kind {
	case KindLocal, "":
		root := opts.LocalRoot
		if root == "" {
			root = "/"
		}
		src = NewLocal(root)
	case KindMemory:
		src = NewMemory()
	case KindS3:
		s3, err := NewS3(opts.S3)
		if err != nil {
			return nil, nil, err
		}
		src = s3
	case KindSQLite:
		db, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		src = db
		cl = append(cl, db)
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", opts.Kind)
	}

	if opts.Cache || opts.CacheDir != "" {
		cached, err := OpenCache(src, opts.CacheDir)
		if err != nil {
			_ = cl.Close()
			return nil, nil, err
		}
		src = cached
		cl = append(cl, cached)
	}
	return src, cl, nil
}
