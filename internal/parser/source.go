package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vafaeim/advanced-proxy-checker/internal/model"
)

// Source is one place to pull raw descriptors from.
type Source struct {
	File  string // local path
	URL   string // http(s) list
	Stdin bool
}

// ErrNoRecords is returned when every configured source together produced
// zero valid endpoint records. It is the only loader condition worth
// surfacing; individual malformed lines are dropped silently.
var ErrNoRecords = errors.New("no valid proxy descriptors found in input")

// FromSources loads all sources concurrently and merges their records,
// deduplicating on the raw descriptor string across sources. A source that
// fails outright (unreadable file, bad HTTP status) fails the whole load;
// that is a configuration error, unlike a malformed line.
func FromSources(ctx context.Context, sources []Source, client *http.Client) ([]model.EndpointRecord, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var mu sync.Mutex
	seen := make(map[string]struct{})
	var merged []model.EndpointRecord

	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		src := src
		g.Go(func() error {
			recs, err := loadOne(ctx, src, client)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, rec := range recs {
				if _, dup := seen[rec.Raw]; dup {
					continue
				}
				seen[rec.Raw] = struct{}{}
				merged = append(merged, rec)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(merged) == 0 {
		return nil, ErrNoRecords
	}
	return merged, nil
}

func loadOne(ctx context.Context, src Source, client *http.Client) ([]model.EndpointRecord, error) {
	switch {
	case src.Stdin:
		return FromReader(os.Stdin)
	case src.URL != "":
		return fromURL(ctx, src.URL, client)
	default:
		return FromFile(src.File)
	}
}

func fromURL(ctx context.Context, rawURL string, client *http.Client) ([]model.EndpointRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch proxy list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch proxy list: unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return FromReader(resp.Body)
}
