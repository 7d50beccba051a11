package checker

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/vafaeim/advanced-proxy-checker/internal/model"
)

func TestClassifyAnonymity(t *testing.T) {
	cases := []struct {
		name    string
		origin  string
		headers map[string]string
		want    model.AnonymityLevel
	}{
		{
			name:   "clean single origin",
			origin: "5.6.7.8",
			want:   model.AnonymityElite,
		},
		{
			name:   "multiple origin addresses leak",
			origin: "1.2.3.4, 5.6.7.8",
			want:   model.AnonymityTransparent,
		},
		{
			name:    "via header leaks",
			origin:  "5.6.7.8",
			headers: map[string]string{"Via": "1.1 squid"},
			want:    model.AnonymityTransparent,
		},
		{
			name:    "x-forwarded-for leaks",
			origin:  "5.6.7.8",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:    model.AnonymityTransparent,
		},
		{
			name:    "unrelated headers stay elite",
			origin:  "5.6.7.8",
			headers: map[string]string{"User-Agent": "curl/8.0", "Accept": "*/*"},
			want:    model.AnonymityElite,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyAnonymity(tc.origin, tc.headers); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestSocksHTTPClient_NoKeepAlives(t *testing.T) {
	rec := model.EndpointRecord{Server: "1.2.3.4", Port: 1080, Secret: "s"}
	client, err := socksHTTPClient(rec, time.Second)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("unexpected transport type %T", client.Transport)
	}
	if !transport.DisableKeepAlives {
		t.Fatal("probe transport must not keep idle connections alive")
	}
}

// A failed probe must land on Anonymous; unreachable hosts exercise the
// failure path without needing a live SOCKS5 server.
func TestProbeAnonymity_FailureIsAnonymous(t *testing.T) {
	rec := model.EndpointRecord{Server: "127.0.0.1", Port: 1, Secret: "s"}
	got := ProbeAnonymity(context.Background(), rec, 200*time.Millisecond)
	if got != model.AnonymityAnonymous {
		t.Fatalf("probe failure: got %v want anonymous", got)
	}
	if got == model.AnonymityUnknown {
		t.Fatal("probe must never fail open into unknown")
	}
}
