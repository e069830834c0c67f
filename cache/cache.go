// Package cache keeps a read-through copy of user carts.
package cache

import (
	"context"
	"errors"

	"github.com/yemenmarket/marketplace-api/models"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	// ErrStale is returned by Set when the cart was invalidated after its
	// version was read.
	ErrStale = errors.New("cache entry is stale")
)

// CartCache stores raw carts (items without prices) keyed by user.
//
// Every Delete bumps the user's version. A reader takes the version before
// loading the cart and hands it to Set, so a fill that raced an invalidation
// is discarded, whichever instance made the invalidation.
type CartCache interface {
	Get(ctx context.Context, userID uint) (*models.Cart, error)
	Version(ctx context.Context, userID uint) (uint64, error)
	Set(ctx context.Context, userID uint, version uint64, cart *models.Cart) error
	Delete(ctx context.Context, userID uint) error
}

// Noop is used when no Redis address is configured; every read misses.
type Noop struct{}

func (Noop) Get(context.Context, uint) (*models.Cart, error) { return nil, ErrCacheMiss }

func (Noop) Version(context.Context, uint) (uint64, error) { return 0, nil }

func (Noop) Set(context.Context, uint, uint64, *models.Cart) error { return nil }

func (Noop) Delete(context.Context, uint) error { return nil }
