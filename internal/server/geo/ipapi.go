// Package geo resolves client IP addresses to an approximate location.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/logging"
)

// Location holds whatever the lookup could resolve; unknown fields are nil.
type Location struct {
	City      *string
	Region    *string
	Country   *string
	Latitude  *float64
	Longitude *float64
}

// Geolocator never fails: lookups that cannot be completed return an
// empty Location.
type Geolocator interface {
	Locate(ctx context.Context, ip string) Location
}

// IPAPIClient queries the ipapi.co JSON API.
type IPAPIClient struct {
	baseURL string
	client  *http.Client
	logger  logging.Logger
}

func NewIPAPIClient(baseURL string, timeout time.Duration, logger logging.Logger) *IPAPIClient {
	return &IPAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("module", "geo"),
	}
}

type ipapiResponse struct {
	City        *string  `json:"city"`
	Region      *string  `json:"region"`
	CountryName *string  `json:"country_name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

// Locate looks up ip. Private, loopback and unparsable addresses are not
// sent to the remote service.
func (c *IPAPIClient) Locate(ctx context.Context, ip string) Location {
	addr := net.ParseIP(ip)
	if addr == nil || addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return Location{}
	}

	loc, err := c.lookup(ctx, addr.String())
	if err != nil {
		c.logger.Warn(ctx, "geolocation failed", "ip", ip, "error", err)
		return Location{}
	}
	return loc
}

func (c *IPAPIClient) lookup(ctx context.Context, ip string) (Location, error) {
	endpoint := fmt.Sprintf("%s/%s/json/", c.baseURL, url.PathEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Location{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("decode response: %w", err)
	}
	if body.Error {
		return Location{}, fmt.Errorf("ipapi error: %s", body.Reason)
	}

	return Location{
		City:      body.City,
		Region:    body.Region,
		Country:   body.CountryName,
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
	}, nil
}
