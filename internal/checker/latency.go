package checker

import (
	"context"
	"net"
	"strconv"
	"time"
)

// SampleLatency performs one direct TCP connect-timing probe against
// server:port and returns the elapsed wall-clock time in whole
// milliseconds (floored). The connection is released immediately.
//
// Failure (timeout, resolution failure, refusal, any transport error) is a
// frequent, expected outcome and is reported as (0, false), not an error.
func SampleLatency(ctx context.Context, server string, port int, timeout time.Duration) (int, bool) {
	dialer := net.Dialer{Timeout: timeout}
	addr := net.JoinHostPort(server, strconv.Itoa(port))

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, false
	}
	elapsed := time.Since(start)
	conn.Close()

	return int(elapsed.Milliseconds()), true
}
