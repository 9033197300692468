package raster

import "fmt"

// Band is a single 2-D channel stored row-major: Data[y*Width+x].
type Band struct {
	Width  int
	Height int
	Data   []float64
}

// NewBand wraps data as a width×height band.
func NewBand(width, height int, data []float64) (Band, error) {
	if width <= 0 || height <= 0 {
		return Band{}, fmt.Errorf("%w: %dx%d", ErrShape, width, height)
	}
	if len(data) != width*height {
		return Band{}, fmt.Errorf("%w: %d values for %dx%d", ErrShape, len(data), width, height)
	}
	return Band{Width: width, Height: height, Data: data}, nil
}

// Shape returns (H, W).
func (b Band) Shape() (int, int) {
	return b.Height, b.Width
}

func (b Band) At(x, y int) float64 {
	return b.Data[y*b.Width+x]
}

// Composite is an H×W×3 array with channels last: Pix[(y*Width+x)*3+c].
type Composite struct {
	Width  int
	Height int
	Pix    []float64
}

// Stack interleaves three equally sized bands as channels 0, 1 and 2.
func Stack(r, g, b Band) (Composite, error) {
	if r.Width != g.Width || r.Width != b.Width || r.Height != g.Height || r.Height != b.Height {
		return Composite{}, ErrShape
	}
	n := r.Width * r.Height
	pix := make([]float64, n*3)
	for i := 0; i < n; i++ {
		pix[i*3] = r.Data[i]
		pix[i*3+1] = g.Data[i]
		pix[i*3+2] = b.Data[i]
	}
	return Composite{Width: r.Width, Height: r.Height, Pix: pix}, nil
}

// Shape returns (H, W, 3).
func (c Composite) Shape() (int, int, int) {
	return c.Height, c.Width, 3
}

func (c Composite) At(x, y, ch int) float64 {
	return c.Pix[(y*c.Width+x)*3+ch]
}

// Channel extracts channel ch as a band.
func (c Composite) Channel(ch int) Band {
	n := c.Width * c.Height
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = c.Pix[i*3+ch]
	}
	return Band{Width: c.Width, Height: c.Height, Data: data}
}
