// Package store provides durable key-value document storage for webnerd.
// Documents are opaque blobs written and read whole; there are no
// partial or field-level updates at this layer.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no document exists for the key.
var ErrNotFound = errors.New("document not found")

// DocumentStore is the durable storage collaborator. Document granularity
// only: Write replaces the entire document for a key.
type DocumentStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, doc []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
