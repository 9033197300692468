package raster

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode is returned when bytes cannot be opened as a raster container.
	ErrDecode            = errors.New("raster decode failed")
	ErrNoBands           = errors.New("raster has no bands")
	ErrShape             = errors.New("band dimensions differ")
	ErrBandIndex         = errors.New("band index out of range")
	ErrInsufficientBands = errors.New("not enough bands for an RGB composite")
)

// Layout is the band arrangement of a dataset, decided once when the
// dataset is built.
type Layout int

const (
	// SingleBand holds exactly one band.
	SingleBand Layout = iota + 1
	// RGBComposite holds exactly three bands read as R, G, B.
	RGBComposite
	// BandSeries holds any other number of independent bands.
	BandSeries
)

func (l Layout) String() string {
	switch l {
	case SingleBand:
		return "single-band"
	case RGBComposite:
		return "rgb-composite"
	case BandSeries:
		return "band-series"
	default:
		return "unknown"
	}
}

// LayoutFor maps a band count to its layout.
func LayoutFor(count int) Layout {
	switch count {
	case 1:
		return SingleBand
	case 3:
		return RGBComposite
	default:
		return BandSeries
	}
}

// NoData describes the optional no-data marker of a dataset.
type NoData struct {
	Value float64
	Set   bool
}

// Dataset is a decoded in-memory raster. All bands share the same size.
type Dataset struct {
	width  int
	height int
	bands  []Band
	noData NoData
	layout Layout
}

// Option configures a Dataset.
type Option func(*Dataset)

// WithNoData marks v as the no-data value of every band.
func WithNoData(v float64) Option {
	return func(d *Dataset) {
		d.noData = NoData{Value: v, Set: true}
	}
}

// NewDataset validates bands and builds a dataset from them.
// Bands are addressed 1..len(bands) in the given order.
func NewDataset(bands []Band, opts ...Option) (*Dataset, error) {
	if len(bands) == 0 {
		return nil, ErrNoBands
	}
	w, h := bands[0].Width, bands[0].Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: band 1 is %dx%d", ErrShape, w, h)
	}
	for i, b := range bands {
		if b.Width != w || b.Height != h {
			return nil, fmt.Errorf("%w: band %d is %dx%d, band 1 is %dx%d", ErrShape, i+1, b.Width, b.Height, w, h)
		}
		if len(b.Data) != w*h {
			return nil, fmt.Errorf("%w: band %d holds %d values for %dx%d", ErrShape, i+1, len(b.Data), w, h)
		}
	}

	d := &Dataset{
		width:  w,
		height: h,
		bands:  bands,
		layout: LayoutFor(len(bands)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Count returns the number of bands.
func (d *Dataset) Count() int { return len(d.bands) }

func (d *Dataset) Width() int { return d.width }

func (d *Dataset) Height() int { return d.height }

func (d *Dataset) Layout() Layout { return d.layout }

func (d *Dataset) NoData() NoData { return d.noData }

// Read returns band i (1-based).
func (d *Dataset) Read(i int) (Band, error) {
	if i < 1 || i > len(d.bands) {
		return Band{}, fmt.Errorf("%w: %d not in 1..%d", ErrBandIndex, i, len(d.bands))
	}
	return d.bands[i-1], nil
}

// Composite stacks bands 1, 2 and 3 into an H×W×3 channel-last array.
func (d *Dataset) Composite() (Composite, error) {
	if len(d.bands) < 3 {
		return Composite{}, fmt.Errorf("%w: have %d", ErrInsufficientBands, len(d.bands))
	}
	return Stack(d.bands[0], d.bands[1], d.bands[2])
}
