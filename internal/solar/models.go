package solar

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// GeoPoint is a resolved WGS84 coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String formats the point as "lat,lng", the form Google endpoints accept.
func (p GeoPoint) String() string {
	return strconv.FormatFloat(p.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}

// Resolution is the memoizable outcome of geocoding one address.
// Found is false when the service answered but had no usable point.
type Resolution struct {
	Point  GeoPoint `json:"point"`
	Found  bool     `json:"found"`
	Status string   `json:"status"`
}

// LayerName identifies one resource layer of the data-layers response.
type LayerName string

const (
	LayerAnnualFlux  LayerName = "annual-flux"
	LayerMonthlyFlux LayerName = "monthly-flux"
	LayerDSM         LayerName = "dsm"
	LayerRGB         LayerName = "rgb"
	LayerMask        LayerName = "mask"
)

// LayerOrder is the order layers are fetched and rendered in a query.
var LayerOrder = []LayerName{
	LayerAnnualFlux,
	LayerMonthlyFlux,
	LayerDSM,
	LayerRGB,
	LayerMask,
}

var layerTitles = map[LayerName]string{
	LayerAnnualFlux:  "Fluxo Anual",
	LayerMonthlyFlux: "Fluxo Solar Mensal",
	LayerDSM:         "Superfície do local digitalizada",
	LayerRGB:         "Camada RGB do local",
	LayerMask:        "Layer de estruturas",
}

// ParseLayerName validates s against the known layers.
func ParseLayerName(s string) (LayerName, error) {
	n := LayerName(s)
	if _, ok := layerTitles[n]; !ok {
		return "", fmt.Errorf("unknown layer %q", s)
	}
	return n, nil
}

// Title is the display caption of the layer. For the monthly series it is
// the base title each month is appended to.
func (n LayerName) Title() string {
	return layerTitles[n]
}

// Series reports whether the layer renders one image per band.
func (n LayerName) Series() bool {
	return n == LayerMonthlyFlux
}

// LocateRequest parameterizes a data-layers lookup.
type LocateRequest struct {
	Point           GeoPoint
	RadiusMeters    float64
	View            string
	Quality         string
	PixelSizeMeters float64
}

// Key returns a canonical memoization key covering every parameter.
func (r LocateRequest) Key() string {
	return fmt.Sprintf("%s|%g|%s|%s|%g", r.Point, r.RadiusMeters, r.View, r.Quality, r.PixelSizeMeters)
}

// ResourceSet maps layer names to fetchable raster URLs.
type ResourceSet struct {
	URLs map[LayerName]string `json:"urls"`
	// Raw is the untouched service payload.
	Raw json.RawMessage `json:"raw,omitempty"`
	// Message explains an error payload the service answered with instead
	// of layers, e.g. no imagery for the location.
	Message string `json:"message,omitempty"`
}

// Lookup returns the URL of a layer or ErrMissingLayer.
func (r ResourceSet) Lookup(name LayerName) (string, error) {
	u, ok := r.URLs[name]
	if !ok || u == "" {
		if r.Message != "" {
			return "", fmt.Errorf("%w: %s: %s", ErrMissingLayer, name, r.Message)
		}
		return "", fmt.Errorf("%w: %s", ErrMissingLayer, name)
	}
	return u, nil
}

// MapImage is an encoded satellite image for display.
type MapImage struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}
