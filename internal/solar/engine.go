package solar

import (
	"context"
	"fmt"

	"github.com/i474232898/solar-data-layers/internal/raster"
)

// Engine fetches a raster reference and decodes it in memory. The dataset
// it returns belongs to the caller for the duration of one render.
type Engine struct {
	fetcher Fetcher
	decoder Decoder
}

func NewEngine(fetcher Fetcher, decoder Decoder) *Engine {
	return &Engine{fetcher: fetcher, decoder: decoder}
}

// FetchAndDecode performs one fetch of ref and opens the bytes. Transport
// and status failures wrap ErrFetch; unreadable bytes wrap ErrDecode.
func (e *Engine) FetchAndDecode(ctx context.Context, ref string) (*raster.Dataset, error) {
	data, err := e.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	ds, err := e.decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return ds, nil
}
