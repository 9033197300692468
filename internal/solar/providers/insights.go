package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/solar-data-layers/internal/solar"
)

// BuildingInsightsClient implements solar.InsightsFinder with
// buildingInsights:findClosest.
type BuildingInsightsClient struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewBuildingInsightsClient(client *http.Client, apiKey string, opts ...Option) *BuildingInsightsClient {
	o := buildOptions("https://solar.googleapis.com/v1/buildingInsights:findClosest", opts)
	return &BuildingInsightsClient{
		apiKey:  apiKey,
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newCircuitBreaker("building_insights"),
	}
}

// FindClosest returns the service payload untouched.
func (p *BuildingInsightsClient) FindClosest(ctx context.Context, pt solar.GeoPoint, quality string) (json.RawMessage, error) {
	if p.apiKey == "" {
		return nil, errNoAPIKey
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("location.latitude", formatFloat(pt.Latitude))
		values.Set("location.longitude", formatFloat(pt.Longitude))
		values.Set("requiredQuality", quality)
		values.Set("key", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, errors.New("building insights response is not JSON")
	}
	return json.RawMessage(raw), nil
}
