package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/solar-data-layers/internal/log"
	"github.com/i474232898/solar-data-layers/internal/solar"
)

// GoogleGeocoder implements solar.Geocoder with the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewGoogleGeocoder(client *http.Client, apiKey string, opts ...Option) *GoogleGeocoder {
	o := buildOptions("https://maps.googleapis.com/maps/api/geocode/json", opts)
	return &GoogleGeocoder{
		apiKey:  apiKey,
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newCircuitBreaker("geocoding"),
	}
}

// Resolve looks address up and keeps the first result. The address is sent
// as given. A client-error HTTP status or a status other than "OK" yields
// Found=false without an error. 5xx and 429 left after retries are returned
// as errors so a transient outage is never memoized as "not found".
func (p *GoogleGeocoder) Resolve(ctx context.Context, address string) (solar.Resolution, error) {
	if p.apiKey == "" {
		return solar.Resolution{}, errNoAPIKey
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("address", address)
		values.Set("key", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.permanent() {
			log.Warn("geocoding returned non-success status", zap.Int("status", se.Code))
			return solar.Resolution{Status: fmt.Sprintf("HTTP %d", se.Code)}, nil
		}
		return solar.Resolution{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return solar.Resolution{}, fmt.Errorf("decode geocoding response: %w", err)
	}

	if payload.Status != "OK" || len(payload.Results) == 0 {
		return solar.Resolution{Status: payload.Status}, nil
	}

	loc := payload.Results[0].Geometry.Location
	return solar.Resolution{
		Point:  solar.GeoPoint{Latitude: loc.Lat, Longitude: loc.Lng},
		Found:  true,
		Status: payload.Status,
	}, nil
}
