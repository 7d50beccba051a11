package geo

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// MMDBResolver answers country lookups from a local MaxMind GeoLite2
// Country (or City) database, with no network dependency. Useful when
// scanning thousands of endpoints would exhaust the free ip-api quota.
type MMDBResolver struct {
	reader *geoip2.Reader
}

// OpenMMDB loads the database at path into a resolver. The caller owns the
// resolver and should Close it after the scan.
func OpenMMDB(path string) (*MMDBResolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geo database: %w", err)
	}
	return &MMDBResolver{reader: reader}, nil
}

// Lookup implements Resolver.
func (r *MMDBResolver) Lookup(_ context.Context, ip string) (Info, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Info{}, fmt.Errorf("invalid ip %q", ip)
	}

	record, err := r.reader.Country(parsed)
	if err != nil {
		return Info{}, err
	}
	if record.Country.IsoCode == "" {
		return Info{}, errNotInDatabase
	}
	return Info{
		Code: record.Country.IsoCode,
		Name: record.Country.Names["en"],
	}, nil
}

func (r *MMDBResolver) Close() error {
	return r.reader.Close()
}
