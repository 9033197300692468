package raster

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Palette is an ordered list of colors, low values first. When used to
// colorize a band, one extra transparent entry is appended for no-data.
type Palette []color.NRGBA

var viridisStops = []color.NRGBA{
	{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
	{R: 0x48, G: 0x28, B: 0x78, A: 0xff},
	{R: 0x3e, G: 0x49, B: 0x89, A: 0xff},
	{R: 0x31, G: 0x68, B: 0x8e, A: 0xff},
	{R: 0x26, G: 0x82, B: 0x8e, A: 0xff},
	{R: 0x1f, G: 0x9e, B: 0x89, A: 0xff},
	{R: 0x35, G: 0xb7, B: 0x79, A: 0xff},
	{R: 0x6e, G: 0xce, B: 0x58, A: 0xff},
	{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
}

// Viridis is the default colormap for single bands, 255 entries.
var Viridis = Interpolate(viridisStops, 255)

// Interpolate expands stops into n evenly spaced colors.
func Interpolate(stops []color.NRGBA, n int) Palette {
	if n <= 0 || len(stops) == 0 {
		return nil
	}
	if len(stops) == 1 || n == 1 {
		p := make(Palette, n)
		for i := range p {
			p[i] = stops[0]
		}
		return p
	}
	p := make(Palette, n)
	segs := float64(len(stops) - 1)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1) * segs
		k := int(t)
		if k >= len(stops)-1 {
			k = len(stops) - 2
		}
		f := t - float64(k)
		a, b := stops[k], stops[k+1]
		p[i] = color.NRGBA{
			R: lerp(a.R, b.R, f),
			G: lerp(a.G, b.G, f),
			B: lerp(a.B, b.B, f),
			A: 0xff,
		}
	}
	return p
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

func valid(v float64, nd NoData) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return !(nd.Set && v == nd.Value)
}

// ValueRange returns the min and max of the valid values of b.
// ok is false when b holds no valid value.
func ValueRange(b Band, nd NoData) (lo, hi float64, ok bool) {
	return validRange(b.Data, nd)
}

func validRange(data []float64, nd NoData) (lo, hi float64, ok bool) {
	vals := make([]float64, 0, len(data))
	for _, v := range data {
		if valid(v, nd) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, 0, false
	}
	return floats.Min(vals), floats.Max(vals), true
}

// Colorize maps b linearly from its valid min..max onto pal. The mapping is
// monotonic: a larger value never gets a lower palette index. No-data pixels
// use the transparent entry at index len(pal).
func Colorize(b Band, pal Palette, nd NoData) *image.Paletted {
	if len(pal) == 0 {
		pal = Viridis
	}
	if len(pal) > 255 {
		pal = pal[:255]
	}
	cp := make(color.Palette, 0, len(pal)+1)
	for _, c := range pal {
		cp = append(cp, c)
	}
	transparent := uint8(len(pal))
	cp = append(cp, color.NRGBA{})

	img := image.NewPaletted(image.Rect(0, 0, b.Width, b.Height), cp)
	lo, hi, ok := ValueRange(b, nd)
	span := hi - lo
	top := float64(len(pal) - 1)

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			v := b.At(x, y)
			off := img.PixOffset(x, y)
			if !ok || !valid(v, nd) {
				img.Pix[off] = transparent
				continue
			}
			var idx float64
			if span > 0 {
				idx = math.Floor((v - lo) / span * top)
			}
			img.Pix[off] = uint8(idx)
		}
	}
	return img
}

// TrueColor renders a composite as an RGB image. Values in 0..1 are
// scaled by 255 and whole numbers in 0..255 are kept as they are; any other
// range is stretched linearly from its valid min..max onto 0..255, so a
// larger value never gets a lower intensity. A pixel with a no-data or NaN
// channel is transparent.
func TrueColor(c Composite, nd NoData) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))

	offset, scale := 0.0, 1.0
	lo, hi, ok := validRange(c.Pix, nd)
	switch {
	case !ok:
	case lo >= 0 && hi <= 1:
		scale = 255
	case lo >= 0 && hi <= 255 && wholeNumbers(c.Pix, nd):
	case hi > lo:
		offset, scale = lo, 255/(hi-lo)
	default:
		offset = lo
	}

	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			off := img.PixOffset(x, y)
			if !validPixel(c, x, y, nd) {
				continue
			}
			for ch := 0; ch < 3; ch++ {
				img.Pix[off+ch] = clamp8((c.At(x, y, ch) - offset) * scale)
			}
			img.Pix[off+3] = 0xff
		}
	}
	return img
}

func validPixel(c Composite, x, y int, nd NoData) bool {
	for ch := 0; ch < 3; ch++ {
		if !valid(c.At(x, y, ch), nd) {
			return false
		}
	}
	return true
}

func wholeNumbers(data []float64, nd NoData) bool {
	for _, v := range data {
		if valid(v, nd) && v != math.Trunc(v) {
			return false
		}
	}
	return true
}

func clamp8(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}
