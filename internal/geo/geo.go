// Package geo resolves IP addresses to countries. Two resolvers exist: an
// ip-api.com client for online runs and a MaxMind database reader for
// offline ones. Both report failure as a plain error; degrading to the
// "N/A" sentinel is the checker's job, so a lookup failure can never abort
// a scan.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Info describes the country associated with an IP.
type Info struct {
	Code string // ISO two-letter code
	Name string
}

// Resolver looks up geographic information for a single IP address.
type Resolver interface {
	Lookup(ctx context.Context, ip string) (Info, error)
}

// DefaultAPIBaseURL is the free ip-api.com endpoint.
const DefaultAPIBaseURL = "http://ip-api.com"

// apiTimeout keeps geolocation from ever holding up a worker for long.
const apiTimeout = 2 * time.Second

// APIResolver queries ip-api.com for status, country name and country code.
type APIResolver struct {
	BaseURL string
	Client  *http.Client
}

// NewAPIResolver returns a resolver against the public ip-api.com service.
func NewAPIResolver() *APIResolver {
	return &APIResolver{
		BaseURL: DefaultAPIBaseURL,
		Client:  &http.Client{Timeout: apiTimeout},
	}
}

type apiResponse struct {
	Status      string `json:"status"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
}

// Lookup implements Resolver. Any network failure, malformed response or
// non-success status field is an error for the caller to degrade on.
func (r *APIResolver) Lookup(ctx context.Context, ip string) (Info, error) {
	url := fmt.Sprintf("%s/json/%s?fields=status,country,countryCode", r.BaseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Info{}, err
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return Info{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("geo api status %d", resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Info{}, err
	}
	if parsed.Status != "success" {
		return Info{}, fmt.Errorf("geo api reported %q", parsed.Status)
	}
	return Info{Code: parsed.CountryCode, Name: parsed.Country}, nil
}

var errNotInDatabase = errors.New("ip not found in geo database")
