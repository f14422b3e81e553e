package store

import "context"

// Store persists small pieces of client-side state: the session token and
// the cached profile, each under a generic and a scope-qualified key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}
