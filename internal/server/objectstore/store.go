// Package objectstore brokers access to an S3-compatible bucket. Object
// bytes never transit the rest of the application except on the direct
// upload path.
package objectstore

import (
	"context"
	"io"
	"time"
)

// SignedGetOptions override response headers on a presigned download.
type SignedGetOptions struct {
	ResponseContentType        string
	ResponseContentDisposition string
}

type Store interface {
	// Put streams body into the bucket under key.
	Put(ctx context.Context, key, contentType string, body io.Reader) error

	// SignedPutURL returns a URL a client can PUT object bytes to until it
	// expires.
	SignedPutURL(ctx context.Context, key string, expires time.Duration) (string, error)

	// SignedGetURL returns a URL serving the object until it expires. opts
	// may be nil.
	SignedGetURL(ctx context.Context, key string, expires time.Duration, opts *SignedGetOptions) (string, error)

	Delete(ctx context.Context, key string) error
}
