package solar

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/i474232898/solar-data-layers/internal/log"
	"github.com/i474232898/solar-data-layers/internal/metrics"
)

// memo looks key up in cache and falls back to load, storing what load
// returns when it succeeds.
func memo[V any](ctx context.Context, cache Cache[V], name, key string, load func() (V, error)) (V, error) {
	if v, err := cache.Get(ctx, key); err == nil {
		metrics.CacheHits.WithLabelValues(name).Inc()
		return v, nil
	}
	metrics.CacheMisses.WithLabelValues(name).Inc()

	v, err := load()
	if err != nil {
		return v, err
	}
	if err := cache.Set(ctx, key, v); err != nil {
		log.Warn("cache store failed", zap.String("cache", name), zap.Error(err))
	}
	return v, nil
}

// CachedGeocoder memoizes resolutions by exact address string, including
// addresses the service could not place. Transport errors are not cached.
type CachedGeocoder struct {
	next  Geocoder
	cache Cache[Resolution]
}

func NewCachedGeocoder(next Geocoder, cache Cache[Resolution]) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: cache}
}

func (g *CachedGeocoder) Resolve(ctx context.Context, address string) (Resolution, error) {
	return memo(ctx, g.cache, "geocode", address, func() (Resolution, error) {
		return g.next.Resolve(ctx, address)
	})
}

// CachedLocator memoizes resource sets by the full request tuple.
type CachedLocator struct {
	next  Locator
	cache Cache[ResourceSet]
}

func NewCachedLocator(next Locator, cache Cache[ResourceSet]) *CachedLocator {
	return &CachedLocator{next: next, cache: cache}
}

func (l *CachedLocator) Locate(ctx context.Context, req LocateRequest) (ResourceSet, error) {
	return memo(ctx, l.cache, "data_layers", req.Key(), func() (ResourceSet, error) {
		return l.next.Locate(ctx, req)
	})
}

// CachedInsights memoizes building-insights payloads by point and quality.
type CachedInsights struct {
	next  InsightsFinder
	cache Cache[json.RawMessage]
}

func NewCachedInsights(next InsightsFinder, cache Cache[json.RawMessage]) *CachedInsights {
	return &CachedInsights{next: next, cache: cache}
}

func (c *CachedInsights) FindClosest(ctx context.Context, p GeoPoint, quality string) (json.RawMessage, error) {
	key := fmt.Sprintf("%s|%s", p, quality)
	return memo(ctx, c.cache, "building_insights", key, func() (json.RawMessage, error) {
		return c.next.FindClosest(ctx, p, quality)
	})
}

// CachedMap memoizes static map images by point.
type CachedMap struct {
	next  MapImager
	cache Cache[MapImage]
}

func NewCachedMap(next MapImager, cache Cache[MapImage]) *CachedMap {
	return &CachedMap{next: next, cache: cache}
}

func (c *CachedMap) Image(ctx context.Context, p GeoPoint) (MapImage, error) {
	return memo(ctx, c.cache, "static_map", p.String(), func() (MapImage, error) {
		return c.next.Image(ctx, p)
	})
}
