// Package filter is the deterministic post-scan pass: criteria-based
// exclusion, stable ordered sort, truncation. Pure functions over value
// slices; nothing here touches the network or mutates its input.
package filter

import (
	"math"
	"sort"
	"strings"

	"github.com/vafaeim/advanced-proxy-checker/internal/model"
)

// Apply runs the criteria over the proxies in a fixed sequence: max-ping,
// min-ping, secret substring, include-country, exclude-country, stable
// sort, truncate. The exclusion steps commute, so the fixed order is about
// determinism, not semantics.
//
// A record whose relevant field is absent fails any specified bound or
// include list, but passes an exclude list vacuously (an absent country
// cannot be in the excluded set).
func Apply(proxies []model.MeasuredProxy, c model.FilterCriteria) []model.MeasuredProxy {
	out := make([]model.MeasuredProxy, 0, len(proxies))
	out = append(out, proxies...)

	if c.MaxPing != nil {
		out = keep(out, func(p model.MeasuredProxy) bool {
			return p.Ping != nil && *p.Ping <= *c.MaxPing
		})
	}
	if c.MinPing != nil {
		out = keep(out, func(p model.MeasuredProxy) bool {
			return p.Ping != nil && *p.Ping >= *c.MinPing
		})
	}
	if c.SecretContains != "" {
		out = keep(out, func(p model.MeasuredProxy) bool {
			return strings.Contains(p.Secret, c.SecretContains)
		})
	}
	if len(c.IncludeCountries) > 0 {
		allow := codeSet(c.IncludeCountries)
		out = keep(out, func(p model.MeasuredProxy) bool {
			return hasCountry(p) && allow[strings.ToUpper(p.CountryCode)]
		})
	}
	if len(c.ExcludeCountries) > 0 {
		deny := codeSet(c.ExcludeCountries)
		out = keep(out, func(p model.MeasuredProxy) bool {
			return !hasCountry(p) || !deny[strings.ToUpper(p.CountryCode)]
		})
	}

	sortProxies(out, c)

	if c.TopN > 0 && len(out) > c.TopN {
		out = out[:c.TopN]
	}
	return out
}

// sortProxies orders by the chosen field, stable so ties retain input
// order. An absent value sorts as +Inf: last in ascending order, first in
// descending order.
func sortProxies(proxies []model.MeasuredProxy, c model.FilterCriteria) {
	key := pingKey
	if c.SortBy == model.SortByJitter {
		key = jitterKey
	}
	sort.SliceStable(proxies, func(i, j int) bool {
		if c.Descending {
			return key(proxies[i]) > key(proxies[j])
		}
		return key(proxies[i]) < key(proxies[j])
	})
}

func pingKey(p model.MeasuredProxy) float64 {
	if p.Ping == nil {
		return math.Inf(1)
	}
	return float64(*p.Ping)
}

func jitterKey(p model.MeasuredProxy) float64 {
	if p.Jitter == nil {
		return math.Inf(1)
	}
	return *p.Jitter
}

// hasCountry reports whether geolocation produced a usable code. The "N/A"
// sentinel counts as absent.
func hasCountry(p model.MeasuredProxy) bool {
	return p.CountryCode != "" && p.CountryCode != "N/A"
}

func keep(proxies []model.MeasuredProxy, pred func(model.MeasuredProxy) bool) []model.MeasuredProxy {
	kept := proxies[:0]
	for _, p := range proxies {
		if pred(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

func codeSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[strings.ToUpper(c)] = true
	}
	return set
}
