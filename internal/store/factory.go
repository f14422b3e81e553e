package store

import (
	"context"
	"strings"
)

// NewStore creates a sqlite-backed store when a path is configured,
// otherwise in-memory.
func NewStore(ctx context.Context, path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return NewInMemoryStore(), nil
	}
	return NewSQLiteStore(ctx, path)
}
