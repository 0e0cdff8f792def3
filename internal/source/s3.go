package source

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options configures an S3 source.
type S3Options struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Secure    bool   `yaml:"secure"`
}

// S3 serves listings stored as objects. Locators are object keys; a folder
// is a key prefix.
type S3 struct {
	client *minio.Client
	bucket string
}

func NewS3(opts S3Options) (*S3, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 source: bucket is required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client %s: %w", opts.Endpoint, err)
	}
	return &S3{client: client, bucket: opts.Bucket}, nil
}

func objectKey(locator string) string {
	return strings.TrimPrefix(locator, "/")
}

func (s *S3) notExist(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Stat implements Source.
func (s *S3) Stat(ctx context.Context, locator string) (Info, error) {
	key := objectKey(locator)
	obj, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if s.notExist(err) {
			return Info{}, fmt.Errorf("%w: s3://%s/%s", ErrNotExist, s.bucket, key)
		}
		return Info{}, fmt.Errorf("stat s3://%s/%s: %w", s.bucket, key, err)
	}
	return Info{
		Locator: locator,
		Size:    obj.Size,
		ModTime: obj.LastModified,
		Dir:     strings.HasSuffix(obj.Key, "/"),
	}, nil
}

// Read implements Source.
func (s *S3) Read(ctx context.Context, locator string) ([]byte, error) {
	key := objectKey(locator)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer func() { _ = obj.Close() }() // read-only

	data, err := io.ReadAll(obj)
	if err != nil {
		if s.notExist(err) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotExist, s.bucket, key)
		}
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

// ListDirs implements DirLister using the common prefixes below locator.
func (s *S3) ListDirs(ctx context.Context, locator string) ([]string, error) {
	prefix := objectKey(locator)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	// an early return must stop the listing goroutine
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var dirs []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, prefix, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") && obj.Key != prefix {
			dirs = append(dirs, strings.TrimSuffix(obj.Key, "/"))
		}
	}
	slices.Sort(dirs)
	return dirs, nil
}
