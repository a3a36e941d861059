// Package geocode resolves coordinates to Korean postal addresses through a
// Kakao Local style coord2address endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://dapi.kakao.com"
	defaultTimeout = 5 * time.Second
	coord2Address  = "/v2/local/geo/coord2address.json"
)

// ErrNoAddress is returned when the service answers but has no address for the point.
var ErrNoAddress = errors.New("geocode: no address for coordinates")

// ErrNotConfigured is returned when no API key was supplied.
var ErrNotConfigured = errors.New("geocode: api key not configured")

// Config configures the client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client performs reverse geocoding lookups.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New builds a client; the timeout bounds each lookup end to end.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type addressName struct {
	AddressName string `json:"address_name"`
}

type coord2AddressResponse struct {
	Documents []struct {
		RoadAddress *addressName `json:"road_address"`
		Address     *addressName `json:"address"`
	} `json:"documents"`
}

// Configured reports whether the client has an API key to call with.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ReverseGeocode returns the road-name address of the first match, falling back to the
// lot-number address.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	query := url.Values{}
	query.Set("x", strconv.FormatFloat(lng, 'f', -1, 64))
	query.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))
	endpoint := c.baseURL + coord2Address + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("geocode request: received status %d", resp.StatusCode)
	}

	var payload coord2AddressResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode geocode response: %w", err)
	}
	if len(payload.Documents) == 0 {
		return "", ErrNoAddress
	}

	first := payload.Documents[0]
	if first.RoadAddress != nil && strings.TrimSpace(first.RoadAddress.AddressName) != "" {
		return first.RoadAddress.AddressName, nil
	}
	if first.Address != nil && strings.TrimSpace(first.Address.AddressName) != "" {
		return first.Address.AddressName, nil
	}
	return "", ErrNoAddress
}
