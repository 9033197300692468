package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/solar-data-layers/internal/log"
	"github.com/i474232898/solar-data-layers/internal/solar"
)

// DataLayersClient implements solar.Locator with the Solar API dataLayers:get.
type DataLayersClient struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewDataLayersClient(client *http.Client, apiKey string, opts ...Option) *DataLayersClient {
	o := buildOptions("https://solar.googleapis.com/v1/dataLayers:get", opts)
	return &DataLayersClient{
		apiKey:  apiKey,
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newCircuitBreaker("data_layers"),
	}
}

// Locate returns the layer URLs for req. Fields the service left out are
// simply absent from the set; callers find out through ResourceSet.Lookup.
// A client-error payload, such as NOT_FOUND for a location without
// coverage, comes back as an empty set carrying the service's message.
// Transport failures, 5xx and 429 remain errors.
func (p *DataLayersClient) Locate(ctx context.Context, req solar.LocateRequest) (solar.ResourceSet, error) {
	if p.apiKey == "" {
		return solar.ResourceSet{}, errNoAPIKey
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("location.latitude", formatFloat(req.Point.Latitude))
		values.Set("location.longitude", formatFloat(req.Point.Longitude))
		values.Set("radiusMeters", formatFloat(req.RadiusMeters))
		values.Set("view", req.View)
		values.Set("requiredQuality", req.Quality)
		values.Set("pixelSizeMeters", formatFloat(req.PixelSizeMeters))
		values.Set("key", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.permanent() && len(se.Body) > 0 {
			log.Warn("data layers answered with an error payload",
				zap.Int("status", se.Code),
				zap.String("message", se.Error()))
			return errorPayloadSet(se), nil
		}
		return solar.ResourceSet{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return solar.ResourceSet{}, err
	}

	var payload struct {
		AnnualFluxURL  string `json:"annualFluxUrl"`
		MonthlyFluxURL string `json:"monthlyFluxUrl"`
		DSMURL         string `json:"dsmUrl"`
		RGBURL         string `json:"rgbUrl"`
		MaskURL        string `json:"maskUrl"`
	}

	if err := json.Unmarshal(raw, &payload); err != nil {
		return solar.ResourceSet{}, fmt.Errorf("decode data layers response: %w", err)
	}

	urls := make(map[solar.LayerName]string)
	for name, u := range map[solar.LayerName]string{
		solar.LayerAnnualFlux:  payload.AnnualFluxURL,
		solar.LayerMonthlyFlux: payload.MonthlyFluxURL,
		solar.LayerDSM:         payload.DSMURL,
		solar.LayerRGB:         payload.RGBURL,
		solar.LayerMask:        payload.MaskURL,
	} {
		if u != "" {
			urls[name] = u
		}
	}

	return solar.ResourceSet{URLs: urls, Raw: raw}, nil
}

func errorPayloadSet(se *StatusError) solar.ResourceSet {
	set := solar.ResourceSet{
		URLs:    map[solar.LayerName]string{},
		Message: googleErrorMessage(se.Body),
	}
	if set.Message == "" {
		set.Message = se.Error()
	}
	if json.Valid(se.Body) {
		set.Raw = append(json.RawMessage(nil), se.Body...)
	}
	return set
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
