package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/solar-data-layers/internal/raster"
	"github.com/i474232898/solar-data-layers/internal/solar"
)

type stubGeocoder struct{}

func (stubGeocoder) Resolve(_ context.Context, address string) (solar.Resolution, error) {
	if address == "nowhere" {
		return solar.Resolution{Status: "ZERO_RESULTS"}, nil
	}
	return solar.Resolution{Point: solar.GeoPoint{Latitude: 37.42, Longitude: -122.08}, Found: true, Status: "OK"}, nil
}

type stubLocator struct{}

func (stubLocator) Locate(context.Context, solar.LocateRequest) (solar.ResourceSet, error) {
	return solar.ResourceSet{URLs: map[solar.LayerName]string{
		solar.LayerAnnualFlux:  "https://r.test/3",
		solar.LayerMonthlyFlux: "https://r.test/12",
		solar.LayerDSM:         "https://r.test/1",
		solar.LayerRGB:         "https://r.test/down",
	}}, nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	if ref == "https://r.test/down" {
		return nil, errors.New("unexpected status code: 503")
	}
	return []byte(ref[len("https://r.test/"):]), nil
}

// stubDecoder reads the band count from the payload.
type stubDecoder struct{}

func (stubDecoder) Decode(data []byte) (*raster.Dataset, error) {
	n := 0
	for _, ch := range data {
		n = n*10 + int(ch-'0')
	}
	bands := make([]raster.Band, n)
	for i := range bands {
		b, err := raster.NewBand(4, 3, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, float64(i)})
		if err != nil {
			return nil, err
		}
		bands[i] = b
	}
	return raster.NewDataset(bands)
}

type stubInsights struct{}

func (stubInsights) FindClosest(context.Context, solar.GeoPoint, string) (json.RawMessage, error) {
	return json.RawMessage(`{"name":"buildings/x"}`), nil
}

func newTestApp(opts ...solar.PipelineOption) *fiber.App {
	app := fiber.New()
	p := solar.NewPipeline(stubGeocoder{}, stubLocator{},
		solar.NewEngine(stubFetcher{}, stubDecoder{}), solar.NewRenderer(), opts...)
	RegisterRoutes(app, p)
	return app
}

func get(t *testing.T, app *fiber.App, path string, query url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path+"?"+query.Encode(), nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func addr(a string) url.Values {
	return url.Values{"address": {a}}
}

func TestAddressIsRequired(t *testing.T) {
	app := newTestApp()
	for _, path := range []string{
		"/api/v1/solar/location",
		"/api/v1/solar/layers",
		"/api/v1/solar/layers/dsm/image",
		"/api/v1/solar/insights",
		"/api/v1/solar/map",
	} {
		if resp := get(t, app, path, url.Values{}); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestLocation(t *testing.T) {
	app := newTestApp()

	resp := get(t, app, "/api/v1/solar/location", addr("1600 Amphitheatre Parkway"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var body struct {
		Point solar.GeoPoint `json:"point"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Point.Latitude != 37.42 {
		t.Fatalf("unexpected point %+v", body.Point)
	}

	if resp := get(t, app, "/api/v1/solar/location", addr("nowhere")); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestLayersReport(t *testing.T) {
	resp := get(t, newTestApp(), "/api/v1/solar/layers", addr("1600 Amphitheatre Parkway"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var report reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Layers) != len(solar.LayerOrder) {
		t.Fatalf("expected %d layers, got %d", len(solar.LayerOrder), len(report.Layers))
	}

	want := map[solar.LayerName]struct {
		outcome solar.Outcome
		images  int
	}{
		solar.LayerAnnualFlux:  {solar.OutcomeRendered, 1},
		solar.LayerMonthlyFlux: {solar.OutcomeRendered, 12},
		solar.LayerDSM:         {solar.OutcomeRendered, 1},
		solar.LayerRGB:         {solar.OutcomeFetchFailed, 0},
		solar.LayerMask:        {solar.OutcomeMissing, 0},
	}
	for _, l := range report.Layers {
		w := want[l.Name]
		if l.Outcome != w.outcome || len(l.Images) != w.images {
			t.Errorf("%s: outcome %s with %d images, want %s with %d", l.Name, l.Outcome, len(l.Images), w.outcome, w.images)
		}
	}
	if got := report.Layers[0].Images[0].Shape; len(got) != 3 || got[0] != 3 || got[1] != 4 {
		t.Errorf("annual flux shape %v, want [3 4 3]", got)
	}
}

func TestLayerImagePNG(t *testing.T) {
	app := newTestApp()

	q := addr("1600 Amphitheatre Parkway")
	q.Set("index", "11")
	resp := get(t, app, "/api/v1/solar/layers/monthly-flux/image", q)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("unexpected bounds %v", b)
	}

	q.Set("index", "12")
	if resp := get(t, app, "/api/v1/solar/layers/monthly-flux/image", q); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 for out-of-range index, got %d", resp.StatusCode)
	}
}

func TestLayerImageErrors(t *testing.T) {
	app := newTestApp()
	q := addr("1600 Amphitheatre Parkway")

	cases := map[string]int{
		"/api/v1/solar/layers/solar-potential/image": http.StatusBadRequest,
		"/api/v1/solar/layers/mask/image":            http.StatusNotFound,
		"/api/v1/solar/layers/rgb/image":             http.StatusBadGateway,
	}
	for path, code := range cases {
		if resp := get(t, app, path, q); resp.StatusCode != code {
			t.Errorf("%s: expected status %d, got %d", path, code, resp.StatusCode)
		}
	}

	q.Set("index", "-1")
	if resp := get(t, app, "/api/v1/solar/layers/dsm/image", q); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative index: expected status 400, got %d", resp.StatusCode)
	}
}

func TestInsights(t *testing.T) {
	resp := get(t, newTestApp(), "/api/v1/solar/insights", addr("x"))
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected status 501 without a finder, got %d", resp.StatusCode)
	}

	resp = get(t, newTestApp(solar.WithInsights(stubInsights{})), "/api/v1/solar/insights", addr("x"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"name":"buildings/x"}` {
		t.Fatalf("unexpected body %s", body)
	}
}
