// Package config loads an optional YAML file with scan and filter
// settings. Flags parsed by the CLI take precedence; the file only fills
// in what the user did not say on the command line.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vafaeim/advanced-proxy-checker/internal/model"
)

// File mirrors the YAML document:
//
//	count: 3
//	timeout: 2
//	workers: 20
//	geo: true
//	geo_db: /var/lib/GeoLite2-Country.mmdb
//	probe_domains: [telegram.org]
//	filter:
//	  max_ping: 300
//	  countries: [US, DE]
//	  sort_by: ping
//	  order: asc
//	  top: 20
type File struct {
	Count        int      `yaml:"count"`
	Timeout      int      `yaml:"timeout"`
	Workers      int      `yaml:"workers"`
	Geo          *bool    `yaml:"geo"`
	GeoDB        string   `yaml:"geo_db"`
	ProbeDomains []string `yaml:"probe_domains"`

	Filter struct {
		MaxPing          *int     `yaml:"max_ping"`
		MinPing          *int     `yaml:"min_ping"`
		Countries        []string `yaml:"countries"`
		ExcludeCountries []string `yaml:"exclude_countries"`
		SecretContains   string   `yaml:"secret_contains"`
		Top              int      `yaml:"top"`
		SortBy           string   `yaml:"sort_by"`
		Order            string   `yaml:"order"`
	} `yaml:"filter"`
}

// Load reads and decodes the YAML file at path.
func Load(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse config: %w", err)
	}
	return f, nil
}

// Merge copies file values into cfg and crit for every setting the CLI did
// not set explicitly. set reports whether a flag name appeared on the
// command line.
func (f File) Merge(cfg *model.ScanConfig, crit *model.FilterCriteria, set func(name string) bool) {
	if f.Count > 0 && !set("count") {
		cfg.Count = f.Count
	}
	if f.Timeout > 0 && !set("timeout") {
		cfg.TimeoutSeconds = f.Timeout
	}
	if f.Workers > 0 && !set("workers") {
		cfg.Workers = f.Workers
	}
	if f.Geo != nil && !set("geo") {
		cfg.FetchGeo = *f.Geo
	}
	if f.GeoDB != "" && !set("geo-db") {
		cfg.GeoDBPath = f.GeoDB
	}
	if len(f.ProbeDomains) > 0 && !set("probe-domains") {
		cfg.ProbeDomains = f.ProbeDomains
	}

	if f.Filter.MaxPing != nil && !set("max-ping") {
		crit.MaxPing = f.Filter.MaxPing
	}
	if f.Filter.MinPing != nil && !set("min-ping") {
		crit.MinPing = f.Filter.MinPing
	}
	if len(f.Filter.Countries) > 0 && !set("country") {
		crit.IncludeCountries = f.Filter.Countries
	}
	if len(f.Filter.ExcludeCountries) > 0 && !set("exclude-country") {
		crit.ExcludeCountries = f.Filter.ExcludeCountries
	}
	if f.Filter.SecretContains != "" && !set("secret-contains") {
		crit.SecretContains = f.Filter.SecretContains
	}
	if f.Filter.Top > 0 && !set("top") {
		crit.TopN = f.Filter.Top
	}
	if f.Filter.SortBy != "" && !set("sort-by") {
		crit.SortBy = model.SortField(f.Filter.SortBy)
	}
	if f.Filter.Order != "" && !set("order") {
		crit.Descending = f.Filter.Order == "desc"
	}
}
