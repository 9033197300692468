// Package geotiff opens GeoTIFF bytes with GDAL without touching the disk.
package geotiff

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/solar-data-layers/internal/log"
	"github.com/i474232898/solar-data-layers/internal/raster"
)

const vsiPrefix = "solarmem://"

// memFiles serves registered byte buffers to GDAL through a VSI handler.
type memFiles struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func (m *memFiles) lookup(key string) ([]byte, bool) {
	key = strings.TrimPrefix(key, vsiPrefix)
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.files[key]
	return b, ok
}

func (m *memFiles) ReadAt(key string, buf []byte, off int64) (int, error) {
	b, ok := m.lookup(key)
	if !ok {
		return 0, fmt.Errorf("%s: no such in-memory file", key)
	}
	if off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(buf, b[off:])
	if n < len(buf) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memFiles) Size(key string) (int64, error) {
	b, ok := m.lookup(key)
	if !ok {
		return 0, fmt.Errorf("%s: no such in-memory file", key)
	}
	return int64(len(b)), nil
}

func (m *memFiles) put(data []byte) string {
	key := uuid.NewString() + ".tif"
	m.mu.Lock()
	m.files[key] = data
	m.mu.Unlock()
	return key
}

func (m *memFiles) drop(key string) {
	m.mu.Lock()
	delete(m.files, key)
	m.mu.Unlock()
}

var (
	registerOnce sync.Once
	registerErr  error
	sharedFiles  = &memFiles{files: map[string][]byte{}}
)

// Decoder turns GeoTIFF bytes into a raster.Dataset.
type Decoder struct {
	files  *memFiles
	logTag string
}

// NewDecoder registers GDAL drivers and the in-memory file handler.
// It is safe to call more than once.
func NewDecoder() (*Decoder, error) {
	registerOnce.Do(func() {
		godal.RegisterAll()
		registerErr = godal.RegisterVSIHandler(vsiPrefix, sharedFiles)
	})
	if registerErr != nil {
		return nil, fmt.Errorf("register vsi handler: %w", registerErr)
	}
	return &Decoder{files: sharedFiles, logTag: "geotiff: "}, nil
}

// Decode opens data as a raster container and reads every band as float64.
// Any failure to open or read is reported as raster.ErrDecode.
func (d *Decoder) Decode(data []byte) (*raster.Dataset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", raster.ErrDecode)
	}

	key := d.files.put(data)
	defer d.files.drop(key)

	ds, err := godal.Open(vsiPrefix+key, godal.RasterOnly())
	if err != nil {
		log.Error(d.logTag+"open raster failed", zap.Int("bytes", len(data)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", raster.ErrDecode, err)
	}
	defer ds.Close()

	gbands := ds.Bands()
	if len(gbands) == 0 {
		return nil, fmt.Errorf("%w: %v", raster.ErrDecode, raster.ErrNoBands)
	}

	var opts []raster.Option
	bands := make([]raster.Band, 0, len(gbands))
	for i, gb := range gbands {
		st := gb.Structure()
		buf := make([]float64, st.SizeX*st.SizeY)
		if err := gb.Read(0, 0, buf, st.SizeX, st.SizeY); err != nil {
			log.Error(d.logTag+"read band failed", zap.Int("band", i+1), zap.Error(err))
			return nil, fmt.Errorf("%w: band %d: %v", raster.ErrDecode, i+1, err)
		}
		b, err := raster.NewBand(st.SizeX, st.SizeY, buf)
		if err != nil {
			return nil, fmt.Errorf("%w: band %d: %v", raster.ErrDecode, i+1, err)
		}
		bands = append(bands, b)

		if i == 0 {
			if nd, ok := gb.NoData(); ok {
				opts = append(opts, raster.WithNoData(nd))
			}
		}
	}

	out, err := raster.NewDataset(bands, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raster.ErrDecode, err)
	}
	log.Debug(d.logTag+"decoded raster",
		zap.Int("bands", out.Count()),
		zap.Int("width", out.Width()),
		zap.Int("height", out.Height()),
		zap.Stringer("layout", out.Layout()))
	return out, nil
}
