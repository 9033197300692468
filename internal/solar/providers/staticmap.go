package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/solar-data-layers/internal/solar"
)

// StaticMapClient implements solar.MapImager with the Maps Static API.
type StaticMapClient struct {
	apiKey  string
	baseURL string
	zoom    int
	size    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewStaticMapClient(client *http.Client, apiKey string, zoom int, size string, opts ...Option) *StaticMapClient {
	o := buildOptions("https://maps.googleapis.com/maps/api/staticmap", opts)
	return &StaticMapClient{
		apiKey:  apiKey,
		baseURL: o.baseURL,
		zoom:    zoom,
		size:    size,
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newCircuitBreaker("static_map"),
	}
}

// Image fetches a satellite picture centred on pt. Any non-success status
// is an error.
func (p *StaticMapClient) Image(ctx context.Context, pt solar.GeoPoint) (solar.MapImage, error) {
	if p.apiKey == "" {
		return solar.MapImage{}, errNoAPIKey
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("center", pt.String())
		values.Set("zoom", strconv.Itoa(p.zoom))
		values.Set("size", p.size)
		values.Set("maptype", "satellite")
		values.Set("key", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return solar.MapImage{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return solar.MapImage{}, err
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return solar.MapImage{ContentType: ct, Data: data}, nil
}
