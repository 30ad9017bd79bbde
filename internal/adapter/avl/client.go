// Package avl reads the vehicle telemetry feed: the AVL vendor's HTTP
// view over recent plow position reports, queryable by age and speed.
package avl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jaketajohnson/SnowTelemetry/internal/domain"
)

// Client implements pipeline.TelemetrySource against the AVL feed's
// JSON endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an AVL feed client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// wirePing mirrors the feed's column names, inherited from the vendor's
// AVL database view.
type wirePing struct {
	UnitName string  `json:"unitName"`
	Datetime string  `json:"datetime"` // RFC 3339
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
	Speed    float64 `json:"spd"`
}

// FetchPings extracts pings matching the window predicate. The predicate
// is pushed to the feed as query parameters; the caller re-filters, so a
// feed that ignores them only costs bandwidth.
func (c *Client) FetchPings(ctx context.Context, window domain.PingWindow) ([]domain.TelemetryPing, error) {
	params := url.Values{
		"max_age_hours": {strconv.Itoa(int(window.MaxAge / time.Hour))},
		"max_speed":     {strconv.FormatFloat(window.MaxSpeed, 'f', -1, 64)},
	}
	fullURL := c.baseURL + "/pings?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.SourceUnavailableError{Source: "avl", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.SourceUnavailableError{
			Source: "avl",
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}

	var wire []wirePing
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode avl response: %w", err)
	}

	pings := make([]domain.TelemetryPing, 0, len(wire))
	skipped := 0
	for _, w := range wire {
		ts, err := time.Parse(time.RFC3339, w.Datetime)
		if err != nil {
			skipped++
			continue
		}
		pings = append(pings, domain.TelemetryPing{
			UnitID:    w.UnitName,
			Timestamp: ts,
			Lon:       w.Lon,
			Lat:       w.Lat,
			Speed:     w.Speed,
		})
	}
	if skipped > 0 {
		c.logger.Warn("pings with unparseable timestamps skipped",
			"window", window.Name, "skipped", skipped)
	}
	return pings, nil
}
