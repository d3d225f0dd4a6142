package snapshot

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("snapshot not found")

// KV is the durable keyed store behind the snapshot Store.
type KV interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error) // ErrNotFound when absent
	Delete(ctx context.Context, key string) error        // absent keys are not an error
}
