// Package kv provides the opaque byte store that process state is persisted
// into. Values are read and overwritten whole; there are no partial updates.
package kv

import (
	"context"

	"clarity/pkg/platform/sentinel"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = sentinel.ErrNotFound

// Store is a string-keyed byte store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
