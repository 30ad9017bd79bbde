// Package forecast reads the NWS cumulative precipitation forecast from
// its ArcGIS feature service, as labeled polygon zones.
package forecast

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jaketajohnson/SnowTelemetry/internal/domain"
)

// Client implements pipeline.ForecastSource against a feature service
// layer's GeoJSON query endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a forecast feature service client. baseURL points at
// the layer, e.g. ".../NDFD_Precipitation_v1/FeatureServer/2".
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Zones queries every forecast polygon with its accumulation label, in
// feed order. Transport failures are SourceUnavailableError; a malformed
// payload is a CollaboratorError carrying the service's diagnostic.
func (c *Client) Zones(ctx context.Context) ([]domain.ForecastZone, error) {
	params := url.Values{
		"where":     {"1=1"},
		"outFields": {"label"},
		"f":         {"geojson"},
	}
	fullURL := c.baseURL + "/query?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.SourceUnavailableError{Source: "forecast", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.CollaboratorError{
			Collaborator: "forecast feature service",
			Err:          fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.SourceUnavailableError{Source: "forecast", Err: err}
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, &domain.CollaboratorError{
			Collaborator: "forecast feature service",
			Err:          fmt.Errorf("decode feature collection: %w", err),
		}
	}

	zones := make([]domain.ForecastZone, 0, len(fc.Features))
	skipped := 0
	for _, f := range fc.Features {
		label, _ := f.Properties["label"].(string)
		mp, ok := asMultiPolygon(f.Geometry)
		if !ok || label == "" {
			skipped++
			continue
		}
		zones = append(zones, domain.ForecastZone{Label: label, Geometry: mp})
	}
	if skipped > 0 {
		c.logger.Warn("forecast features without polygon geometry or label skipped", "skipped", skipped)
	}
	return zones, nil
}

func asMultiPolygon(g orb.Geometry) (orb.MultiPolygon, bool) {
	switch geom := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{geom}, true
	case orb.MultiPolygon:
		return geom, true
	default:
		return nil, false
	}
}
