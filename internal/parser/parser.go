package parser

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/vafaeim/advanced-proxy-checker/internal/model"
)

// ParseDescriptor parses one raw descriptor line into an EndpointRecord.
//
// Descriptors look like:
//   tg://proxy?server=1.2.3.4&port=443&secret=ee12ab
// The scheme and host part are irrelevant; only the server, port and secret
// query parameters matter. Any other parameter is ignored.
//
// Returns (record, true) only when all three parameters are present and the
// port is a valid integer in 1..65535. Malformed lines return (zero, false)
// so that one bad line never aborts a batch.
func ParseDescriptor(line string) (model.EndpointRecord, bool) {
	cleaned := strings.TrimSpace(line)
	if cleaned == "" {
		return model.EndpointRecord{}, false
	}

	u, err := url.Parse(cleaned)
	if err != nil {
		return model.EndpointRecord{}, false
	}

	q := u.Query()
	server := q.Get("server")
	portStr := q.Get("port")
	secret := q.Get("secret")
	if server == "" || portStr == "" || secret == "" {
		return model.EndpointRecord{}, false
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return model.EndpointRecord{}, false
	}

	return model.EndpointRecord{
		Server: server,
		Port:   port,
		Secret: secret,
		Raw:    cleaned,
	}, true
}

// FromReader reads descriptor lines from r, deduplicates them as raw
// strings, and parses each one. Invalid lines are dropped silently.
func FromReader(r io.Reader) ([]model.EndpointRecord, error) {
	seen := make(map[string]struct{})
	var out []model.EndpointRecord

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}

		if rec, ok := ParseDescriptor(line); ok {
			out = append(out, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return out, nil
}

// FromFile reads and parses a descriptor list from a local file.
func FromFile(path string) ([]model.EndpointRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()
	return FromReader(f)
}
