package model

import (
	"encoding/json"
	"fmt"
)

// EndpointRecord is a normalized representation of one proxy descriptor
// parsed from lines such as:
//   tg://proxy?server=1.2.3.4&port=443&secret=ee...
//
// A record only exists when server, port and secret were all extracted;
// the parser never produces half-filled records.
type EndpointRecord struct {
	Server string `json:"server"` // IPv4 or hostname
	Port   int    `json:"port"`
	Secret string `json:"secret"`
	Raw    string `json:"original_url"` // original descriptor, verbatim; dedup + output identity
}

// Addr returns the record in "host:port" form for dialing and logging.
func (r EndpointRecord) Addr() string {
	return fmt.Sprintf("%s:%d", r.Server, r.Port)
}

// AnonymityLevel classifies whether a relay exposes the original client's
// identity to the destination.
type AnonymityLevel int

const (
	AnonymityUnknown     AnonymityLevel = iota // not probed yet
	AnonymityElite                             // no leak headers, single origin address
	AnonymityAnonymous                         // probe failed; functional but unconfirmed
	AnonymityTransparent                       // leaks client identity (Via / X-Forwarded-For / multi-address origin)
)

func (a AnonymityLevel) String() string {
	switch a {
	case AnonymityElite:
		return "elite"
	case AnonymityAnonymous:
		return "anonymous"
	case AnonymityTransparent:
		return "transparent"
	default:
		return "unknown"
	}
}

func (a AnonymityLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// MeasuredProxy is the final result for one endpoint after checking.
// It is built by exactly one worker and published once; nothing mutates it
// afterwards. Ping and Jitter are set together, and only when at least one
// latency sample succeeded (an endpoint with zero successful samples
// produces no MeasuredProxy at all).
type MeasuredProxy struct {
	EndpointRecord

	// Ping is the mean round-trip-to-connect over the successful samples,
	// truncated to whole milliseconds.
	Ping *int `json:"ping"`

	// Jitter is the sample standard deviation over the successful samples
	// in milliseconds, rounded to 2 decimals. Exactly 0 for a single sample.
	Jitter *float64 `json:"jitter"`

	Anonymity AnonymityLevel `json:"anonymity"`

	// CountryCode is the ISO two-letter code, "N/A" when geolocation was
	// requested but degraded, "" when it was not requested at all.
	CountryCode string `json:"country_code,omitempty"`
	CountryName string `json:"country_name,omitempty"`

	// ExternalPings holds one entry per requested tunnel-probe domain.
	// A nil value means the probe was requested but failed; a missing key
	// means it was never requested.
	ExternalPings map[string]*int `json:"external_pings,omitempty"`
}

// ScanStats aggregates summary analytics for an entire run.
type ScanStats struct {
	TotalEndpoints        int     `json:"total_endpoints"`
	HealthyProxies        int     `json:"healthy_proxies"`
	SuccessRatePct        float64 `json:"success_rate_pct"`
	AvgPingMs             float64 `json:"avg_ping_ms"`
	AvgJitterMs           float64 `json:"avg_jitter_ms"`
	TotalProcessingTimeMs int64   `json:"total_processing_time_ms"`
}
