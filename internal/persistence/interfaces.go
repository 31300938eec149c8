package persistence

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV.Get for a missing key.
var ErrNotFound = errors.New("persistence: key not found")

// KV is the string-keyed store the history lives in
type KV interface {
	// Get returns the value or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set creates or replaces the value
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Keys lists every key starting with prefix, sorted
	Keys(ctx context.Context, prefix string) ([]string, error)
}
