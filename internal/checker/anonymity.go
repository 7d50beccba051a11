package checker

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/vafaeim/advanced-proxy-checker/internal/model"
)

// EchoURL is the header/origin-echoing service the anonymity probe talks to
// through the candidate. Overridable for tests.
var EchoURL = "https://httpbin.org/get"

// echoResponse matches the fields we care about from the echo service.
type echoResponse struct {
	Origin  string            `json:"origin"`  // what IP the service thinks we are; may be "a, b"
	Headers map[string]string `json:"headers"` // headers seen by the service
}

// ProbeAnonymity issues one HTTP GET through a SOCKS5 tunnel over the
// candidate and classifies the result.
//
// When the probe itself fails the level is Anonymous, not Unknown: the
// endpoint already proved reachable via latency sampling, so "apparently
// functional but unconfirmed" is the honest answer. The probe never fails
// open into Unknown.
func ProbeAnonymity(ctx context.Context, rec model.EndpointRecord, timeout time.Duration) model.AnonymityLevel {
	client, err := socksHTTPClient(rec, timeout)
	if err != nil {
		return model.AnonymityAnonymous
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	echo, err := fetchEcho(ctx, client)
	if err != nil {
		return model.AnonymityAnonymous
	}

	return ClassifyAnonymity(echo.Origin, echo.Headers)
}

// ClassifyAnonymity applies the classification rule to an echo response:
// more than one address in the origin field, or a Via header, or an
// X-Forwarded-For header all mean the relay leaked client identity.
func ClassifyAnonymity(origin string, headers map[string]string) model.AnonymityLevel {
	if strings.Contains(origin, ",") {
		return model.AnonymityTransparent
	}
	if headers["Via"] != "" || headers["X-Forwarded-For"] != "" {
		return model.AnonymityTransparent
	}
	return model.AnonymityElite
}

// socksHTTPClient builds an *http.Client whose TCP connections are
// established through the candidate as a SOCKS5 proxy.
func socksHTTPClient(rec model.EndpointRecord, timeout time.Duration) (*http.Client, error) {
	dialer, err := proxy.SOCKS5("tcp", rec.Addr(), nil, &net.Dialer{
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	// x/net/proxy only exposes Dial, so wrap it for http.Transport.
	dialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		type contextless interface {
			Dial(network, address string) (net.Conn, error)
		}
		if d, ok := dialer.(contextless); ok {
			return d.Dial(network, addr)
		}
		return nil, errors.New("socks5 dialer does not implement Dial")
	}

	// One-shot client per probe: keep-alives would park an idle connection
	// per probed endpoint until the transport is garbage collected.
	transport := &http.Transport{
		DialContext:           dialContext,
		DisableKeepAlives:     true,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport}, nil
}

func fetchEcho(ctx context.Context, client *http.Client) (echoResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, EchoURL, nil)
	if err != nil {
		return echoResponse{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return echoResponse{}, err
	}
	defer resp.Body.Close()

	var parsed echoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return echoResponse{}, err
	}
	return parsed, nil
}
