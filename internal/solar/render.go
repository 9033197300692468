package solar

import (
	"fmt"
	"image"
	"iter"
	"sync/atomic"

	"github.com/i474232898/solar-data-layers/internal/raster"
)

// ArrayKind tells which array of a RenderableLayer is populated.
type ArrayKind int

const (
	// Gray is a single-channel H×W array.
	Gray ArrayKind = iota + 1
	// RGB is an H×W×3 channel-last array.
	RGB
)

func (k ArrayKind) String() string {
	switch k {
	case Gray:
		return "gray"
	case RGB:
		return "rgb"
	default:
		return "unknown"
	}
}

// RenderableLayer is one titled array ready for display.
type RenderableLayer struct {
	Title  string
	Kind   ArrayKind
	Gray   raster.Band
	RGB    raster.Composite
	NoData raster.NoData
}

// Shape returns [H, W] for gray layers and [H, W, 3] for RGB layers.
func (l RenderableLayer) Shape() []int {
	switch l.Kind {
	case Gray:
		h, w := l.Gray.Shape()
		return []int{h, w}
	case RGB:
		h, w, c := l.RGB.Shape()
		return []int{h, w, c}
	default:
		return nil
	}
}

// Image converts the layer to an image. Gray layers are colorized with pal
// (raster.Viridis when nil); RGB layers are shown as true color. No-data
// pixels are transparent in both.
func (l RenderableLayer) Image(pal raster.Palette) image.Image {
	switch l.Kind {
	case RGB:
		return raster.TrueColor(l.RGB, l.NoData)
	default:
		return raster.Colorize(l.Gray, pal, l.NoData)
	}
}

// MonthTitle embeds the 1-based month index in base.
func MonthTitle(base string, month int) string {
	return fmt.Sprintf("%s - Mês %d", base, month)
}

// Renderer turns decoded datasets into renderable layers.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderSingle produces exactly one layer: a true-color composite of bands
// 1..3 when the dataset has more than one band, the lone band otherwise.
func (r *Renderer) RenderSingle(ds *raster.Dataset, title string) (RenderableLayer, error) {
	switch ds.Layout() {
	case raster.SingleBand:
		b, err := ds.Read(1)
		if err != nil {
			return RenderableLayer{}, fmt.Errorf("%w: %w", ErrRender, err)
		}
		return RenderableLayer{Title: title, Kind: Gray, Gray: b, NoData: ds.NoData()}, nil
	case raster.RGBComposite, raster.BandSeries:
		c, err := ds.Composite()
		if err != nil {
			return RenderableLayer{}, fmt.Errorf("%w: %w", ErrRender, err)
		}
		return RenderableLayer{Title: title, Kind: RGB, RGB: c, NoData: ds.NoData()}, nil
	default:
		return RenderableLayer{}, fmt.Errorf("%w: unknown layout %s", ErrRender, ds.Layout())
	}
}

// RenderSeries yields one gray layer per band, band 1 first, titled with the
// band's month index. The sequence is lazy and can be ranged over once; a
// second range yields nothing.
func (r *Renderer) RenderSeries(ds *raster.Dataset, baseTitle string) iter.Seq[RenderableLayer] {
	var used atomic.Bool
	return func(yield func(RenderableLayer) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}
		for i := 1; i <= ds.Count(); i++ {
			b, err := ds.Read(i)
			if err != nil {
				return
			}
			l := RenderableLayer{
				Title:  MonthTitle(baseTitle, i),
				Kind:   Gray,
				Gray:   b,
				NoData: ds.NoData(),
			}
			if !yield(l) {
				return
			}
		}
	}
}
