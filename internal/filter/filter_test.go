package filter

import (
	"reflect"
	"testing"

	"github.com/vafaeim/advanced-proxy-checker/internal/model"
)

func proxyWithPing(server string, ping int) model.MeasuredProxy {
	jitter := 0.0
	return model.MeasuredProxy{
		EndpointRecord: model.EndpointRecord{Server: server, Port: 443, Secret: "s"},
		Ping:           &ping,
		Jitter:         &jitter,
	}
}

func proxyNoPing(server string) model.MeasuredProxy {
	return model.MeasuredProxy{
		EndpointRecord: model.EndpointRecord{Server: server, Port: 443, Secret: "s"},
	}
}

func servers(proxies []model.MeasuredProxy) []string {
	out := make([]string, 0, len(proxies))
	for _, p := range proxies {
		out = append(out, p.Server)
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestApply_MaxPingDropsAbsentAndSlow(t *testing.T) {
	in := []model.MeasuredProxy{
		proxyWithPing("a", 30),
		proxyWithPing("b", 80),
		proxyNoPing("c"),
	}
	got := Apply(in, model.FilterCriteria{MaxPing: intPtr(50), SortBy: model.SortByPing})
	if want := []string{"a"}; !reflect.DeepEqual(servers(got), want) {
		t.Fatalf("got %v want %v", servers(got), want)
	}
}

func TestApply_MinPing(t *testing.T) {
	in := []model.MeasuredProxy{
		proxyWithPing("a", 30),
		proxyWithPing("b", 80),
		proxyNoPing("c"),
	}
	got := Apply(in, model.FilterCriteria{MinPing: intPtr(50)})
	if want := []string{"b"}; !reflect.DeepEqual(servers(got), want) {
		t.Fatalf("got %v want %v", servers(got), want)
	}
}

func TestApply_SecretSubstring(t *testing.T) {
	a := proxyWithPing("a", 10)
	a.Secret = "deadbeef"
	b := proxyWithPing("b", 20)
	b.Secret = "cafe"
	got := Apply([]model.MeasuredProxy{a, b}, model.FilterCriteria{SecretContains: "bee"})
	if want := []string{"a"}; !reflect.DeepEqual(servers(got), want) {
		t.Fatalf("got %v want %v", servers(got), want)
	}
}

func TestApply_CountryFilters(t *testing.T) {
	us := proxyWithPing("us", 10)
	us.CountryCode = "US"
	de := proxyWithPing("de", 20)
	de.CountryCode = "DE"
	na := proxyWithPing("na", 30)
	na.CountryCode = "N/A"
	bare := proxyWithPing("bare", 40)

	in := []model.MeasuredProxy{us, de, na, bare}

	// Absent country never satisfies an include list.
	got := Apply(in, model.FilterCriteria{IncludeCountries: []string{"us"}})
	if want := []string{"us"}; !reflect.DeepEqual(servers(got), want) {
		t.Fatalf("include: got %v want %v", servers(got), want)
	}

	// Absent country passes an exclude list vacuously.
	got = Apply(in, model.FilterCriteria{ExcludeCountries: []string{"DE"}})
	if want := []string{"us", "na", "bare"}; !reflect.DeepEqual(servers(got), want) {
		t.Fatalf("exclude: got %v want %v", servers(got), want)
	}
}

func TestApply_OrderIndependentResult(t *testing.T) {
	us := proxyWithPing("us-fast", 40)
	us.CountryCode = "US"
	usSlow := proxyWithPing("us-slow", 200)
	usSlow.CountryCode = "US"
	de := proxyWithPing("de", 50)
	de.CountryCode = "DE"

	in := []model.MeasuredProxy{us, usSlow, de}

	both := Apply(in, model.FilterCriteria{MaxPing: intPtr(100), IncludeCountries: []string{"US"}})
	onlyPing := Apply(Apply(in, model.FilterCriteria{IncludeCountries: []string{"US"}}),
		model.FilterCriteria{MaxPing: intPtr(100)})
	if !reflect.DeepEqual(servers(both), servers(onlyPing)) {
		t.Fatalf("criteria application should commute: %v vs %v", servers(both), servers(onlyPing))
	}
	if want := []string{"us-fast"}; !reflect.DeepEqual(servers(both), want) {
		t.Fatalf("got %v want %v", servers(both), want)
	}
}

func TestApply_SortAscendingUnmeasuredLast(t *testing.T) {
	in := []model.MeasuredProxy{
		proxyNoPing("none"),
		proxyWithPing("slow", 80),
		proxyWithPing("fast", 30),
	}
	got := Apply(in, model.FilterCriteria{SortBy: model.SortByPing})
	if want := []string{"fast", "slow", "none"}; !reflect.DeepEqual(servers(got), want) {
		t.Fatalf("got %v want %v", servers(got), want)
	}
}

// Descending treats the absent value as +Inf as well, which puts
// unmeasured proxies first.
func TestApply_SortDescendingUnmeasuredFirst(t *testing.T) {
	in := []model.MeasuredProxy{
		proxyWithPing("slow", 80),
		proxyNoPing("none"),
		proxyWithPing("fast", 30),
	}
	got := Apply(in, model.FilterCriteria{SortBy: model.SortByPing, Descending: true})
	if want := []string{"none", "slow", "fast"}; !reflect.DeepEqual(servers(got), want) {
		t.Fatalf("got %v want %v", servers(got), want)
	}
}

func TestApply_SortByJitterStableTies(t *testing.T) {
	mk := func(server string, jitter float64) model.MeasuredProxy {
		p := proxyWithPing(server, 50)
		p.Jitter = &jitter
		return p
	}
	in := []model.MeasuredProxy{mk("b", 2.5), mk("a", 1.0), mk("c", 2.5)}
	got := Apply(in, model.FilterCriteria{SortBy: model.SortByJitter})
	// b and c tie on jitter and must keep their input order.
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(servers(got), want) {
		t.Fatalf("got %v want %v", servers(got), want)
	}
}

func TestApply_TopNTruncates(t *testing.T) {
	in := []model.MeasuredProxy{
		proxyWithPing("a", 10),
		proxyWithPing("b", 20),
		proxyWithPing("c", 30),
	}
	got := Apply(in, model.FilterCriteria{SortBy: model.SortByPing, TopN: 2})
	if want := []string{"a", "b"}; !reflect.DeepEqual(servers(got), want) {
		t.Fatalf("got %v want %v", servers(got), want)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := []model.MeasuredProxy{
		proxyWithPing("b", 20),
		proxyWithPing("a", 10),
	}
	Apply(in, model.FilterCriteria{SortBy: model.SortByPing})
	if want := []string{"b", "a"}; !reflect.DeepEqual(servers(in), want) {
		t.Fatalf("input mutated: %v", servers(in))
	}
}
