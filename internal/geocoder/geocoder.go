// Package geocoder resolves WGS84 coordinates to three-word addresses through
// the what3words v3 API.
package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/apperr"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/observability"
)

const upstreamName = "what3words"

// Client is the narrow surface the rest of the service needs.
type Client interface {
	ConvertToWords(ctx context.Context, c model.GeoCoordinate, language string) (model.ThreeWordLocation, error)
	HealthCheck(ctx context.Context) bool
}

// HTTPClient implements Client against the what3words REST API.
type HTTPClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(apiKey, baseURL string, httpClient *http.Client, logger *slog.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HTTPClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// ConvertToWords looks up the 3m square containing c. Every failure other
// than an invalid input coordinate is an UpstreamGeocodingFailure.
func (c *HTTPClient) ConvertToWords(ctx context.Context, coord model.GeoCoordinate, language string) (loc model.ThreeWordLocation, err error) {
	if !coord.IsValid() {
		return model.ThreeWordLocation{}, apperr.Errorf(apperr.InvalidCoordinate,
			"coordinate (%g, %g) is outside the WGS84 range", coord.Latitude, coord.Longitude)
	}
	defer func() { observability.ObserveGeocode(err) }()

	params := url.Values{
		"coordinates": {formatLatLng(coord)},
		"format":      {"json"},
	}
	if language != "" {
		params.Set("language", language)
	}

	var body convertResponse
	status, err := c.get(ctx, "convert-to-3wa", params, &body)
	if err != nil {
		return model.ThreeWordLocation{}, err
	}
	if body.Words == "" {
		return model.ThreeWordLocation{}, apperr.Upstream(status, nil, "convert-to-3wa: response carried no words")
	}
	return body.toLocation(), nil
}

// HealthCheck reports whether the API answers an authenticated request.
func (c *HTTPClient) HealthCheck(ctx context.Context) bool {
	var body languagesResponse
	if _, err := c.get(ctx, "available-languages", nil, &body); err != nil {
		c.logger.WarnContext(ctx, "geocoder health check failed", "err", err)
		return false
	}
	return true
}

// get issues a GET to endpoint and decodes a 200 body into out. It returns
// the upstream status (0 when no response arrived).
func (c *HTTPClient) get(ctx context.Context, endpoint string, params url.Values, out any) (int, error) {
	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, apperr.Upstream(0, err, endpoint+": create request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	observability.ObserveUpstreamLatency(upstreamName, endpoint, time.Since(start).Seconds())
	if err != nil {
		return 0, apperr.Upstream(0, err, endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return resp.StatusCode, apperr.Upstream(resp.StatusCode, decodeAPIError(b),
			fmt.Sprintf("%s: status %d", endpoint, resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, apperr.Upstream(resp.StatusCode, err, endpoint+": decode response")
	}
	return resp.StatusCode, nil
}

func formatLatLng(c model.GeoCoordinate) string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// API response types.

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p latLng) coord() model.GeoCoordinate { return model.NewGeoCoordinate(p.Lat, p.Lng) }

type convertResponse struct {
	Country string `json:"country"`
	Square  struct {
		Southwest latLng `json:"southwest"`
		Northeast latLng `json:"northeast"`
	} `json:"square"`
	NearestPlace string `json:"nearestPlace"`
	Coordinates  latLng `json:"coordinates"`
	Words        string `json:"words"`
	Language     string `json:"language"`
	Map          string `json:"map"`
}

func (r convertResponse) toLocation() model.ThreeWordLocation {
	sw, ne := r.Square.Southwest, r.Square.Northeast
	return model.ThreeWordLocation{
		Words:        r.Words,
		Center:       r.Coordinates.coord(),
		CountryCode:  r.Country,
		Square:       model.NewBoundingBox(sw.Lat, sw.Lng, ne.Lat, ne.Lng),
		NearestPlace: r.NearestPlace,
		Language:     r.Language,
		MapURL:       r.Map,
	}
}

type languagesResponse struct {
	Languages []struct {
		Code string `json:"code"`
	} `json:"languages"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Code + ": " + e.Message }

// decodeAPIError extracts {"error":{"code":..,"message":..}}; anything else
// is returned as raw text.
func decodeAPIError(b []byte) error {
	var env struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(b, &env); err == nil && env.Error != nil && env.Error.Code != "" {
		return env.Error
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return nil
	}
	return errors.New(s)
}
