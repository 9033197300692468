package raster

import (
	"bytes"
	"image/png"
	"math"
	"sort"
	"testing"
)

func TestViridisHasExpectedEnds(t *testing.T) {
	if len(Viridis) != 255 {
		t.Fatalf("expected 255 colors, got %d", len(Viridis))
	}
	if Viridis[0] != viridisStops[0] {
		t.Errorf("first color %v, want %v", Viridis[0], viridisStops[0])
	}
	if Viridis[254] != viridisStops[len(viridisStops)-1] {
		t.Errorf("last color %v, want %v", Viridis[254], viridisStops[len(viridisStops)-1])
	}
}

func TestColorizeIsMonotonic(t *testing.T) {
	data := []float64{3.5, -2, 900, 12, 12, 0, 44.25, 7, 1e4, 600, -1, 250}
	b, err := NewBand(4, 3, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img := Colorize(b, Viridis, NoData{})

	type px struct {
		v   float64
		idx uint8
	}
	var pxs []px
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			pxs = append(pxs, px{v: b.At(x, y), idx: img.ColorIndexAt(x, y)})
		}
	}
	sort.Slice(pxs, func(i, j int) bool { return pxs[i].v < pxs[j].v })
	for i := 1; i < len(pxs); i++ {
		if pxs[i].idx < pxs[i-1].idx {
			t.Fatalf("value %v got index %d below value %v at index %d", pxs[i].v, pxs[i].idx, pxs[i-1].v, pxs[i-1].idx)
		}
	}
	if pxs[0].idx != 0 {
		t.Errorf("minimum should map to index 0, got %d", pxs[0].idx)
	}
	if pxs[len(pxs)-1].idx != 254 {
		t.Errorf("maximum should map to index 254, got %d", pxs[len(pxs)-1].idx)
	}
}

func TestColorizeMasksNoData(t *testing.T) {
	b, _ := NewBand(2, 2, []float64{-9999, 1, math.NaN(), 2})
	img := Colorize(b, Viridis, NoData{Value: -9999, Set: true})

	if img.ColorIndexAt(0, 0) != 255 {
		t.Errorf("no-data pixel should be transparent, got index %d", img.ColorIndexAt(0, 0))
	}
	if img.ColorIndexAt(0, 1) != 255 {
		t.Errorf("NaN pixel should be transparent, got index %d", img.ColorIndexAt(0, 1))
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Errorf("expected alpha 0, got %d", a)
	}
	if img.ColorIndexAt(1, 0) != 0 || img.ColorIndexAt(1, 1) != 254 {
		t.Errorf("valid pixels should span the palette, got %d and %d", img.ColorIndexAt(1, 0), img.ColorIndexAt(1, 1))
	}
}

func TestColorizeFlatBand(t *testing.T) {
	b, _ := NewBand(2, 1, []float64{5, 5})
	img := Colorize(b, Viridis, NoData{})
	if img.ColorIndexAt(0, 0) != 0 || img.ColorIndexAt(1, 0) != 0 {
		t.Fatalf("flat band should map to index 0")
	}
}

func TestTrueColorScalesUnitRange(t *testing.T) {
	r, _ := NewBand(1, 1, []float64{1})
	g, _ := NewBand(1, 1, []float64{0.5})
	b, _ := NewBand(1, 1, []float64{0})
	c, err := Stack(r, g, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img := TrueColor(c, NoData{})
	got := img.NRGBAAt(0, 0)
	if got.R != 255 || got.G != 128 || got.B != 0 || got.A != 255 {
		t.Fatalf("unexpected pixel %+v", got)
	}
}

func TestTrueColorKeepsByteRange(t *testing.T) {
	r, _ := NewBand(2, 1, []float64{12, 0})
	g, _ := NewBand(2, 1, []float64{200, 4})
	b, _ := NewBand(2, 1, []float64{255, 90})
	c, _ := Stack(r, g, b)
	img := TrueColor(c, NoData{})

	if p := img.NRGBAAt(0, 0); p.R != 12 || p.G != 200 || p.B != 255 {
		t.Errorf("unexpected pixel %+v", p)
	}
	if p := img.NRGBAAt(1, 0); p.R != 0 || p.G != 4 || p.B != 90 {
		t.Errorf("unexpected pixel %+v", p)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	back, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	if back.Bounds().Dx() != 2 || back.Bounds().Dy() != 1 {
		t.Fatalf("unexpected bounds %v", back.Bounds())
	}
}

func TestTrueColorStretchesWideRangeMonotonically(t *testing.T) {
	vals := []float64{300, 900, 1800}
	r, _ := NewBand(3, 1, vals)
	g, _ := NewBand(3, 1, vals)
	b, _ := NewBand(3, 1, vals)
	c, _ := Stack(r, g, b)
	img := TrueColor(c, NoData{})

	prev := -1
	for x := range vals {
		p := img.NRGBAAt(x, 0)
		if int(p.R) <= prev {
			t.Fatalf("value %v rendered to R=%d, not above previous %d", vals[x], p.R, prev)
		}
		prev = int(p.R)
	}
	if lo, hi := img.NRGBAAt(0, 0).R, img.NRGBAAt(2, 0).R; lo != 0 || hi != 255 {
		t.Fatalf("expected full 0..255 stretch, got %d..%d", lo, hi)
	}
}

func TestTrueColorNegativeAndFractionalValues(t *testing.T) {
	r, _ := NewBand(3, 1, []float64{-4, 2.5, 12.75})
	g, _ := NewBand(3, 1, []float64{0, 0, 0})
	b, _ := NewBand(3, 1, []float64{0, 0, 0})
	c, _ := Stack(r, g, b)
	img := TrueColor(c, NoData{})

	a, m, z := img.NRGBAAt(0, 0).R, img.NRGBAAt(1, 0).R, img.NRGBAAt(2, 0).R
	if !(a < m && m < z) {
		t.Fatalf("expected increasing intensities, got %d %d %d", a, m, z)
	}
}

func TestTrueColorNoDataIsTransparent(t *testing.T) {
	r, _ := NewBand(2, 1, []float64{-9999, 1500})
	g, _ := NewBand(2, 1, []float64{10, 700})
	b, _ := NewBand(2, 1, []float64{20, 40})
	c, _ := Stack(r, g, b)
	img := TrueColor(c, NoData{Value: -9999, Set: true})

	if p := img.NRGBAAt(0, 0); p.A != 0 {
		t.Errorf("no-data pixel should be transparent, got %+v", p)
	}
	if p := img.NRGBAAt(1, 0); p.A != 0xff || p.R != 255 {
		t.Errorf("unexpected valid pixel %+v", p)
	}
}
