package solar

import "errors"

var (
	// ErrResolution means the address did not resolve to a point. Nothing
	// downstream is attempted.
	ErrResolution = errors.New("address could not be resolved")
	// ErrLocate means the data-layers lookup failed.
	ErrLocate = errors.New("data layers lookup failed")
	// ErrFetch means a raster resource answered with a non-success status
	// or could not be reached.
	ErrFetch = errors.New("raster fetch failed")
	// ErrDecode means the fetched bytes are not a readable raster.
	ErrDecode = errors.New("raster decode failed")
	// ErrMissingLayer means the resource set has no URL for a layer.
	ErrMissingLayer = errors.New("layer missing from resource set")
	// ErrRender means a decoded dataset could not be rendered.
	ErrRender = errors.New("layer render failed")
	// ErrNotConfigured means an optional collaborator was not wired in.
	ErrNotConfigured = errors.New("not configured")
)
