package providers

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/solar-data-layers/internal/common"
	"github.com/i474232898/solar-data-layers/internal/log"
)

// GeoTIFFClient implements solar.Fetcher for Solar API raster URLs.
type GeoTIFFClient struct {
	apiKey  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewGeoTIFFClient(client *http.Client, apiKey string, opts ...Option) *GeoTIFFClient {
	o := buildOptions("", opts)
	return &GeoTIFFClient{
		apiKey:  apiKey,
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newCircuitBreaker("geotiff"),
	}
}

// Fetch downloads ref with the credential added as the key query parameter
// and returns the whole body.
func (p *GeoTIFFClient) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if p.apiKey == "" {
		return nil, errNoAPIKey
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("key", p.apiKey)
	u.RawQuery = q.Encode()

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, u.String(), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if common.HasAny(ct, "json", "html", "text/") {
		log.Warn("raster endpoint answered with a document", zap.String("contentType", ct))
	}
	return io.ReadAll(resp.Body)
}
