package geo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-trip-planner/app/cache"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Geocoder = (*CachedGeocoder)(nil)

// sharedLookupTimeout bounds a collapsed lookup, which outlives any single caller.
const sharedLookupTimeout = 30 * time.Second

// CachedGeocoder memoizes a Geocoder and collapses concurrent identical lookups.
// Misses (ErrNotFound) are not cached. A caller that gives up only abandons
// its own wait; the shared lookup keeps running for the others.
type CachedGeocoder struct {
	next   Geocoder
	store  cache.Store
	ttl    time.Duration
	prefix string
	group  singleflight.Group
	logger *slog.Logger
}

func NewCachedGeocoder(next Geocoder, store cache.Store, prefix string, ttl time.Duration, logger *slog.Logger) *CachedGeocoder {
	return &CachedGeocoder{next: next, store: store, ttl: ttl, prefix: prefix, logger: logger}
}

func (c *CachedGeocoder) Lookup(ctx context.Context, text string) (*types.GeoPoint, error) {
	key := fmt.Sprintf("geo:%s:%s", c.prefix, strings.ToLower(strings.TrimSpace(text)))

	var cached types.GeoPoint
	if err := c.store.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()

		p, err := c.next.Lookup(lookupCtx, text)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(lookupCtx, key, p, c.ttl); err != nil {
			c.logger.WarnContext(lookupCtx, "Failed to cache geocode", slog.String("key", key), slog.Any("error", err))
		}
		return p, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		p := *res.Val.(*types.GeoPoint)
		return &p, nil
	}
}
