package permission

import (
	"context"
)

// Cache stores computed permission sets keyed by (generation, user).
// Clear bumps the generation, which orphans every existing entry at once;
// entries written afterwards under an old generation are never read again.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, userID int64) (*Permissions, error)
	Set(ctx context.Context, gen int64, userID int64, p *Permissions) error
	Clear(ctx context.Context) error
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Generation(context.Context) (int64, error) { return 0, nil }
func (NopCache) Get(context.Context, int64, int64) (*Permissions, error) {
	return nil, ErrCacheMiss
}
func (NopCache) Set(context.Context, int64, int64, *Permissions) error { return nil }
func (NopCache) Clear(context.Context) error                           { return nil }
