package port

import "context"

type KeyValueStore interface {
	// Get returns the whole value stored under key; ok is false when the key is absent
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set replaces the whole value stored under key
	Set(ctx context.Context, key string, value []byte) error
}

type IdempotencyRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a key so the same request can be retried
	ReleaseIdempotency(ctx context.Context, key string) error
}
