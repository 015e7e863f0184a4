package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Store is a durable key-value byte store. Put replaces the whole value
// atomically: a concurrent Get observes either the old bytes or the new
// ones, never a mix.
type Store interface {
	// Get returns ErrNotFound if nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
