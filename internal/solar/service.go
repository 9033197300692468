package solar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/i474232898/solar-data-layers/internal/log"
	"github.com/i474232898/solar-data-layers/internal/metrics"
)

// Outcome classifies what happened to one layer of a query.
type Outcome string

const (
	OutcomeRendered     Outcome = "rendered"
	OutcomeMissing      Outcome = "missing"
	OutcomeFetchFailed  Outcome = "fetch_failed"
	OutcomeDecodeFailed Outcome = "decode_failed"
	OutcomeRenderFailed Outcome = "render_failed"
)

// LayerResult is the result of fetching and rendering one resource layer.
type LayerResult struct {
	Name    LayerName
	Outcome Outcome
	Layers  []RenderableLayer
	Err     error
}

// Report is the result of one address query. Layers follow LayerOrder and
// always hold one entry per layer, whether it rendered or not.
type Report struct {
	Address string
	Point   GeoPoint
	Layers  []LayerResult
}

// LocateDefaults holds the data-layers parameters used for every query.
type LocateDefaults struct {
	RadiusMeters    float64
	View            string
	Quality         string
	PixelSizeMeters float64
}

// DefaultLocate mirrors the Solar API defaults used by the shell.
var DefaultLocate = LocateDefaults{
	RadiusMeters:    50,
	View:            "FULL_LAYERS",
	Quality:         "LOW",
	PixelSizeMeters: 0.5,
}

// Pipeline orchestrates geocoding, resource lookup and per-layer rendering.
// Layers are processed one after another; a failing layer never stops the
// others.
type Pipeline struct {
	geocoder Geocoder
	locator  Locator
	engine   *Engine
	renderer *Renderer
	defaults LocateDefaults

	insights InsightsFinder
	maps     MapImager
	rendered Cache[[]RenderableLayer]
}

// PipelineOption configures optional collaborators.
type PipelineOption func(*Pipeline)

func WithInsights(f InsightsFinder) PipelineOption {
	return func(p *Pipeline) { p.insights = f }
}

func WithMapImager(m MapImager) PipelineOption {
	return func(p *Pipeline) { p.maps = m }
}

// WithRenderCache keeps rendered layers by raster URL so that requests for
// single images of a layer reuse one download and decode.
func WithRenderCache(c Cache[[]RenderableLayer]) PipelineOption {
	return func(p *Pipeline) { p.rendered = c }
}

func WithLocateDefaults(d LocateDefaults) PipelineOption {
	return func(p *Pipeline) { p.defaults = d }
}

// NewPipeline creates a new Pipeline.
func NewPipeline(geocoder Geocoder, locator Locator, engine *Engine, renderer *Renderer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		geocoder: geocoder,
		locator:  locator,
		engine:   engine,
		renderer: renderer,
		defaults: DefaultLocate,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve geocodes address. An unplaceable address or a failed geocoding
// call both return ErrResolution.
func (p *Pipeline) Resolve(ctx context.Context, address string) (GeoPoint, error) {
	res, err := p.geocoder.Resolve(ctx, address)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: %w", ErrResolution, err)
	}
	if !res.Found {
		return GeoPoint{}, fmt.Errorf("%w: status %s", ErrResolution, res.Status)
	}
	return res.Point, nil
}

func (p *Pipeline) locate(ctx context.Context, point GeoPoint) (ResourceSet, error) {
	set, err := p.locator.Locate(ctx, LocateRequest{
		Point:           point,
		RadiusMeters:    p.defaults.RadiusMeters,
		View:            p.defaults.View,
		Quality:         p.defaults.Quality,
		PixelSizeMeters: p.defaults.PixelSizeMeters,
	})
	if err != nil {
		return ResourceSet{}, fmt.Errorf("%w: %w", ErrLocate, err)
	}
	return set, nil
}

// Query resolves address, looks up its resource set and renders every layer
// in LayerOrder. When the address does not resolve, no other call is made
// and ErrResolution is returned.
func (p *Pipeline) Query(ctx context.Context, address string) (*Report, error) {
	point, err := p.Resolve(ctx, address)
	if err != nil {
		log.Info("address not resolved; skipping data layers", zap.String("address", address), zap.Error(err))
		return nil, err
	}

	set, err := p.locate(ctx, point)
	if err != nil {
		return nil, err
	}

	report := &Report{Address: address, Point: point}
	for _, name := range LayerOrder {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Layers = append(report.Layers, p.renderLayer(ctx, set, name))
	}
	return report, nil
}

// Layer renders a single named layer for address.
func (p *Pipeline) Layer(ctx context.Context, address string, name LayerName) ([]RenderableLayer, error) {
	point, err := p.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}
	set, err := p.locate(ctx, point)
	if err != nil {
		return nil, err
	}
	res := p.renderLayer(ctx, set, name)
	return res.Layers, res.Err
}

func (p *Pipeline) renderLayer(ctx context.Context, set ResourceSet, name LayerName) LayerResult {
	res := LayerResult{Name: name}
	defer func() {
		metrics.LayerResults.WithLabelValues(string(name), string(res.Outcome)).Inc()
	}()

	ref, err := set.Lookup(name)
	if err != nil {
		log.Warn("layer not offered for location", zap.String("layer", string(name)))
		res.Outcome, res.Err = OutcomeMissing, err
		return res
	}

	var layers []RenderableLayer
	if p.rendered != nil {
		layers, err = memo(ctx, p.rendered, "rendered_layers", ref, func() ([]RenderableLayer, error) {
			return p.render(ctx, ref, name)
		})
	} else {
		layers, err = p.render(ctx, ref, name)
	}
	switch {
	case errors.Is(err, ErrFetch):
		res.Outcome, res.Err = OutcomeFetchFailed, err
		return res
	case errors.Is(err, ErrDecode):
		res.Outcome, res.Err = OutcomeDecodeFailed, err
		return res
	case err != nil:
		res.Outcome, res.Err = OutcomeRenderFailed, err
		return res
	}

	res.Outcome, res.Layers = OutcomeRendered, layers
	return res
}

// render fetches, decodes and renders one layer.
func (p *Pipeline) render(ctx context.Context, ref string, name LayerName) ([]RenderableLayer, error) {
	ds, err := p.engine.FetchAndDecode(ctx, ref)
	switch {
	case errors.Is(err, ErrFetch):
		log.Warn("failed to fetch layer",
			zap.String("layer", string(name)),
			zap.String("url", redact(ref)),
			zap.Error(err))
		return nil, err
	case err != nil:
		log.Error("failed to decode layer", zap.String("layer", string(name)), zap.Error(err))
		return nil, err
	}

	var layers []RenderableLayer
	if name.Series() {
		for l := range p.renderer.RenderSeries(ds, name.Title()) {
			layers = append(layers, l)
		}
	} else {
		l, err := p.renderer.RenderSingle(ds, name.Title())
		if err != nil {
			log.Error("failed to render layer", zap.String("layer", string(name)), zap.Error(err))
			return nil, err
		}
		layers = []RenderableLayer{l}
	}

	log.Debug("layer rendered", zap.String("layer", string(name)), zap.Int("images", len(layers)))
	return layers, nil
}

// Insights returns the raw building-insights payload for address.
func (p *Pipeline) Insights(ctx context.Context, address string) (json.RawMessage, error) {
	if p.insights == nil {
		return nil, fmt.Errorf("building insights: %w", ErrNotConfigured)
	}
	point, err := p.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}
	return p.insights.FindClosest(ctx, point, p.defaults.Quality)
}

// Map returns the satellite image centred on address.
func (p *Pipeline) Map(ctx context.Context, address string) (MapImage, error) {
	if p.maps == nil {
		return MapImage{}, fmt.Errorf("static map: %w", ErrNotConfigured)
	}
	point, err := p.Resolve(ctx, address)
	if err != nil {
		return MapImage{}, err
	}
	return p.maps.Image(ctx, point)
}

// Warm resolves address and looks up its resource set so both land in the
// memo caches.
func (p *Pipeline) Warm(ctx context.Context, address string) error {
	point, err := p.Resolve(ctx, address)
	if err != nil {
		return err
	}
	_, err = p.locate(ctx, point)
	return err
}

// redact drops the credential from a URL before it is logged.
func redact(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
