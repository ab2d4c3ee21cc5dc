package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNotExist is returned by Get for a missing key.
var ErrNotExist = errors.New("storage: object does not exist")

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) // fs returns "file://..." for dev
}

type Options struct {
	Driver   string // fs|minio
	BasePath string // fs root

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// Open returns the BlobStore selected by opts.Driver.
func Open(ctx context.Context, opts Options) (BlobStore, error) {
	switch opts.Driver {
	case "", "fs":
		return NewFSStore(opts.BasePath)
	case "minio":
		return NewMinioStore(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported blob driver: %s", opts.Driver)
	}
}
