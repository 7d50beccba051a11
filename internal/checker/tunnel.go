package checker

import (
	"context"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/proxy"

	"github.com/vafaeim/advanced-proxy-checker/internal/model"
)

// SampleTunneled performs one TCP connect-timing probe to an external
// target, routed through the candidate endpoint via a SOCKS5 handshake.
// Timing covers handshake start to confirmed tunnel establishment.
//
// The tunnel connection is closed on every exit path. Any handshake,
// tunnel-refusal or transport failure is reported as (0, false).
func SampleTunneled(ctx context.Context, rec model.EndpointRecord, targetHost string, targetPort int, timeout time.Duration) (int, bool) {
	dialer, err := proxy.SOCKS5("tcp", rec.Addr(), nil, &net.Dialer{
		Timeout: timeout,
	})
	if err != nil {
		return 0, false
	}

	target := net.JoinHostPort(targetHost, strconv.Itoa(targetPort))

	start := time.Now()
	conn, err := dialSocks(ctx, dialer, target, timeout)
	if err != nil {
		return 0, false
	}
	elapsed := time.Since(start)
	conn.Close()

	return int(elapsed.Milliseconds()), true
}

// dialSocks wraps the x/net/proxy dialer with context and timeout handling.
// The dialer only exposes a blocking Dial, so the deadline is emulated by
// dialing in a goroutine and racing it against the context.
func dialSocks(ctx context.Context, dialer proxy.Dialer, target string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type dialResult struct {
		conn net.Conn
		err  error
	}
	done := make(chan dialResult, 1)
	go func() {
		conn, err := dialer.Dial("tcp", target)
		done <- dialResult{conn, err}
	}()

	select {
	case <-ctx.Done():
		// The dial goroutine will eventually finish; make sure its
		// connection does not leak when it does.
		go func() {
			if res := <-done; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case res := <-done:
		return res.conn, res.err
	}
}
