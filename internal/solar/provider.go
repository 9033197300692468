package solar

import (
	"context"
	"encoding/json"

	"github.com/i474232898/solar-data-layers/internal/raster"
)

// Geocoder resolves a free-form address. An address the service cannot
// place returns Found=false with a nil error; errors are transport failures.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (Resolution, error)
}

// Locator finds the raster resources around a point.
type Locator interface {
	Locate(ctx context.Context, req LocateRequest) (ResourceSet, error)
}

// Fetcher downloads the raw bytes of a raster reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Decoder opens raster bytes in memory.
type Decoder interface {
	Decode(data []byte) (*raster.Dataset, error)
}

// InsightsFinder returns the building-insights payload closest to a point.
type InsightsFinder interface {
	FindClosest(ctx context.Context, p GeoPoint, quality string) (json.RawMessage, error)
}

// MapImager returns a satellite picture centred on a point.
type MapImager interface {
	Image(ctx context.Context, p GeoPoint) (MapImage, error)
}

// Cache is a key/value memo. Any Get error is a miss.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V) error
}
