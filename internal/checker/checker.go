package checker

import (
	"context"
	"log/slog"
	"math"
	"net"
	"time"

	"github.com/vafaeim/advanced-proxy-checker/internal/geo"
	"github.com/vafaeim/advanced-proxy-checker/internal/model"
)

// Probe function types. The production wiring uses the package-level probes
// in latency.go / tunnel.go / anonymity.go; tests inject fakes so no real
// sockets are opened.
type (
	SampleFunc    func(ctx context.Context, server string, port int, timeout time.Duration) (int, bool)
	TunnelFunc    func(ctx context.Context, rec model.EndpointRecord, targetHost string, targetPort int, timeout time.Duration) (int, bool)
	AnonymityFunc func(ctx context.Context, rec model.EndpointRecord, timeout time.Duration) model.AnonymityLevel
	ResolveFunc   func(ctx context.Context, host string) (string, error)
)

// Checker runs the full per-endpoint measurement protocol. One Checker is
// shared across all workers; it holds no per-endpoint state, so concurrent
// Check calls need no locking.
type Checker struct {
	Count        int           // latency samples per endpoint, min 1
	Timeout      time.Duration // per-probe timeout
	FetchGeo     bool
	ProbeDomains []string // external domains to tunnel-probe at :443

	Geo geo.Resolver // nil disables geolocation even when FetchGeo is set
	Log *slog.Logger

	// Overridable probes, nil = production implementations.
	Sample    SampleFunc
	Tunnel    TunnelFunc
	Anonymity AnonymityFunc
	Resolve   ResolveFunc
}

// ExternalProbePort is where tunneled probes connect on the target domain.
const ExternalProbePort = 443

// Check measures one endpoint to completion. The returned proxy is nil
// when the endpoint was rejected (zero successful latency samples); the
// completed flag reports whether the protocol ran to its end. A false
// completed means the context was cancelled mid-flight, all partial work
// was discarded, and the nil result says nothing about the endpoint.
//
// Cancellation is cooperative: the context is consulted between discrete
// probe steps, never mid-probe, so a stop takes effect within one timeout
// interval.
func (c *Checker) Check(ctx context.Context, rec model.EndpointRecord) (result *model.MeasuredProxy, completed bool) {
	sample := c.Sample
	if sample == nil {
		sample = SampleLatency
	}

	count := c.Count
	if count < 1 {
		count = 1
	}

	var samples []int
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			return nil, false
		}
		if ms, ok := sample(ctx, rec.Server, rec.Port, c.Timeout); ok {
			samples = append(samples, ms)
		}
	}

	// Sole hard-failure exit: nothing connected, endpoint rejected.
	if len(samples) == 0 {
		return nil, true
	}

	ping := int(mean(samples))
	jitter := roundTo2(stddev(samples))
	result = &model.MeasuredProxy{
		EndpointRecord: rec,
		Ping:           &ping,
		Jitter:         &jitter,
	}

	if ctx.Err() != nil {
		return nil, false
	}
	anonymity := c.Anonymity
	if anonymity == nil {
		anonymity = ProbeAnonymity
	}
	result.Anonymity = anonymity(ctx, rec, c.Timeout)

	if c.FetchGeo && c.Geo != nil {
		if ctx.Err() != nil {
			return nil, false
		}
		c.locate(ctx, result)
	}

	if len(c.ProbeDomains) > 0 {
		tunnel := c.Tunnel
		if tunnel == nil {
			tunnel = SampleTunneled
		}
		result.ExternalPings = make(map[string]*int, len(c.ProbeDomains))
		for _, domain := range c.ProbeDomains {
			if ctx.Err() != nil {
				return nil, false
			}
			if ms, ok := tunnel(ctx, rec, domain, ExternalProbePort, c.Timeout); ok {
				v := ms
				result.ExternalPings[domain] = &v
			} else {
				// Requested but failed: keep the key so callers can tell
				// "not requested" from "no sample".
				result.ExternalPings[domain] = nil
			}
		}
	}

	return result, true
}

// locate resolves the hostname and looks the IP up, degrading silently to
// the "N/A" sentinel. Geolocation is best-effort and never rejects an
// endpoint.
func (c *Checker) locate(ctx context.Context, result *model.MeasuredProxy) {
	resolve := c.Resolve
	if resolve == nil {
		resolve = resolveHost
	}

	ip, err := resolve(ctx, result.Server)
	if err != nil {
		result.CountryCode = "N/A"
		result.CountryName = "Lookup Failed"
		return
	}

	info, err := c.Geo.Lookup(ctx, ip)
	if err != nil {
		if c.Log != nil {
			c.Log.Debug("geo lookup degraded", "server", result.Server, "err", err)
		}
		result.CountryCode = "N/A"
		result.CountryName = "N/A"
		return
	}
	result.CountryCode = info.Code
	result.CountryName = info.Name
}

func resolveHost(ctx context.Context, host string) (string, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", err
	}
	return addrs[0].IP.String(), nil
}

// mean returns the arithmetic mean of the samples.
func mean(samples []int) float64 {
	sum := 0
	for _, s := range samples {
		sum += s
	}
	return float64(sum) / float64(len(samples))
}

// stddev returns the sample standard deviation, 0 for fewer than two
// samples.
func stddev(samples []int) float64 {
	if len(samples) < 2 {
		return 0
	}
	m := mean(samples)
	var sq float64
	for _, s := range samples {
		d := float64(s) - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(samples)-1))
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
