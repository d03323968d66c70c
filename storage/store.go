package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

type PutResult struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStore keeps draw archives outside the database.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) (*PutResult, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	PublicURL(key string) string
}
