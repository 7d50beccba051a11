package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/vafaeim/advanced-proxy-checker/internal/analytics"
	"github.com/vafaeim/advanced-proxy-checker/internal/checker"
	"github.com/vafaeim/advanced-proxy-checker/internal/config"
	"github.com/vafaeim/advanced-proxy-checker/internal/filter"
	"github.com/vafaeim/advanced-proxy-checker/internal/geo"
	"github.com/vafaeim/advanced-proxy-checker/internal/logging"
	"github.com/vafaeim/advanced-proxy-checker/internal/model"
	"github.com/vafaeim/advanced-proxy-checker/internal/output"
	"github.com/vafaeim/advanced-proxy-checker/internal/parser"
	"github.com/vafaeim/advanced-proxy-checker/internal/scan"
)

func main() {
	var (
		cfg  model.ScanConfig
		crit model.FilterCriteria

		configPath     string
		probeDomains   string
		includeCountry string
		excludeCountry string
		maxPing        int
		minPing        int
		sortBy         string
		order          string
	)

	flag.StringVar(&cfg.InputFile, "input", "", "path to file with proxy descriptors")
	flag.StringVar(&cfg.InputURL, "url", "", "URL(s) to fetch proxy descriptors from (comma-separated)")
	flag.BoolVar(&cfg.InputStdin, "stdin", false, "read proxy descriptors from standard input")
	flag.IntVar(&cfg.Count, "count", 3, "latency samples per proxy for averaging")
	flag.IntVar(&cfg.TimeoutSeconds, "timeout", 2, "timeout in seconds for each probe")
	flag.IntVar(&cfg.Workers, "workers", 20, "number of concurrent workers")
	flag.BoolVar(&cfg.FetchGeo, "geo", false, "resolve and show proxy countries")
	flag.StringVar(&cfg.GeoDBPath, "geo-db", "", "optional MaxMind .mmdb file for offline geolocation")
	flag.StringVar(&probeDomains, "probe-domains", "", "external domains to tunnel-probe at :443 (comma-separated)")
	flag.IntVar(&maxPing, "max-ping", 0, "exclude proxies with mean latency above this (ms)")
	flag.IntVar(&minPing, "min-ping", 0, "exclude proxies with mean latency below this (ms)")
	flag.StringVar(&includeCountry, "country", "", "include only these ISO country codes (comma-separated)")
	flag.StringVar(&excludeCountry, "exclude-country", "", "exclude these ISO country codes (comma-separated)")
	flag.StringVar(&crit.SecretContains, "secret-contains", "", "require the proxy secret to contain this substring")
	flag.IntVar(&crit.TopN, "top", 0, "limit output to the top N proxies (0 = all)")
	flag.StringVar(&sortBy, "sort-by", "ping", "sort results by: ping | jitter")
	flag.StringVar(&order, "order", "asc", "sort order: asc | desc")
	flag.StringVar(&cfg.OutputFile, "output", "", "optional path to write results")
	flag.StringVar(&cfg.OutputFormat, "format", "txt", "output format: txt | csv | json")
	flag.StringVar(&configPath, "config", "", "optional YAML config file")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable debug logs")
	flag.BoolVar(&cfg.Silent, "silent", false, "suppress progress and table output")
	flag.Parse()

	log := logging.NewLogger(cfg.Verbose, cfg.Silent)

	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	crit.SortBy = model.SortField(sortBy)
	crit.Descending = order == "desc"
	if explicit["max-ping"] {
		crit.MaxPing = &maxPing
	}
	if explicit["min-ping"] {
		crit.MinPing = &minPing
	}
	crit.IncludeCountries = splitList(includeCountry)
	crit.ExcludeCountries = splitList(excludeCountry)
	cfg.ProbeDomains = splitList(probeDomains)

	if configPath != "" {
		file, err := config.Load(configPath)
		if err != nil {
			log.Error("failed to load config file", "err", err, "path", configPath)
			os.Exit(1)
		}
		file.Merge(&cfg, &crit, func(name string) bool { return explicit[name] })
	}

	if cfg.Count < 1 {
		cfg.Count = 1
	}
	// Country filters only make sense with geolocation on.
	if len(crit.IncludeCountries) > 0 || len(crit.ExcludeCountries) > 0 {
		cfg.FetchGeo = true
	}

	if cfg.InputFile == "" && cfg.InputURL == "" && !cfg.InputStdin {
		fmt.Fprintln(os.Stderr, "one of -input, -url or -stdin is required")
		os.Exit(1)
	}

	ctx := context.Background()

	records, err := parser.FromSources(ctx, buildSources(cfg), nil)
	if err != nil {
		if err == parser.ErrNoRecords {
			color.Yellow("warning: %v", err)
		} else {
			log.Error("failed to load proxies", "err", err)
		}
		os.Exit(1)
	}

	log.Info("starting scan",
		"proxies", len(records),
		"count", cfg.Count,
		"timeout_seconds", cfg.TimeoutSeconds,
		"workers", cfg.Workers,
		"geo", cfg.FetchGeo,
		"probe_domains", cfg.ProbeDomains,
	)

	chk := &checker.Checker{
		Count:        cfg.Count,
		Timeout:      time.Duration(cfg.TimeoutSeconds) * time.Second,
		FetchGeo:     cfg.FetchGeo,
		ProbeDomains: cfg.ProbeDomains,
		Geo:          buildResolver(cfg, log),
		Log:          log,
	}

	coord := scan.New(cfg.Workers, chk.Check, log)

	start := time.Now()
	events, err := coord.Start(ctx, records)
	if err != nil {
		log.Error("scan aborted", "err", err)
		os.Exit(1)
	}

	// First Ctrl-C stops the scan cooperatively, second one kills us.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		color.Yellow("\nstopping scan (completed endpoints are kept)...")
		coord.Stop()
		<-sigCh
		os.Exit(1)
	}()

	var bar *progressbar.ProgressBar
	if !cfg.Silent {
		bar = progressbar.NewOptions(len(records),
			progressbar.OptionSetDescription("checking"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	for ev := range events {
		if bar != nil {
			bar.Add(1)
		}
		if ev.Proxy != nil {
			log.Debug("proxy healthy", "addr", ev.Proxy.Addr(), "ping_ms", *ev.Proxy.Ping)
		}
	}
	if bar != nil {
		bar.Finish()
	}
	signal.Stop(sigCh)

	duration := time.Since(start)
	results := filter.Apply(coord.Results(), crit)
	stats := analytics.Compute(results, len(records), duration)

	log.Info("scan finished",
		"state", coord.CurrentState().String(),
		"healthy", stats.HealthyProxies,
		"total", stats.TotalEndpoints,
		"total_ms", stats.TotalProcessingTimeMs,
	)

	opts := output.Options{ShowCountry: cfg.FetchGeo, Domains: cfg.ProbeDomains}

	if cfg.OutputFile != "" {
		if err := output.WriteFile(cfg.OutputFile, cfg.OutputFormat, results, opts); err != nil {
			log.Error("failed to write output file", "err", err, "path", cfg.OutputFile)
			os.Exit(1)
		}
		if !cfg.Silent {
			color.Green("results saved to %s", cfg.OutputFile)
		}
	} else if !cfg.Silent {
		output.PrintResultsTable(os.Stdout, results, opts)
		output.PrintSummary(os.Stdout, stats)
	}
}

// splitList parses a comma-separated flag value, trimming each element
// and dropping empties. Returns nil for a blank input so length checks on
// the result behave like an unset flag.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func buildSources(cfg model.ScanConfig) []parser.Source {
	var sources []parser.Source
	if cfg.InputStdin {
		sources = append(sources, parser.Source{Stdin: true})
	}
	if cfg.InputFile != "" {
		sources = append(sources, parser.Source{File: cfg.InputFile})
	}
	for _, u := range splitList(cfg.InputURL) {
		sources = append(sources, parser.Source{URL: u})
	}
	return sources
}

// buildResolver picks the geolocation backend: a local MaxMind database
// when one is configured, the public ip-api.com service otherwise.
func buildResolver(cfg model.ScanConfig, log *slog.Logger) geo.Resolver {
	if !cfg.FetchGeo {
		return nil
	}
	if cfg.GeoDBPath != "" {
		mmdb, err := geo.OpenMMDB(cfg.GeoDBPath)
		if err != nil {
			log.Warn("geo database unavailable, falling back to ip-api", "err", err)
			return geo.NewAPIResolver()
		}
		return mmdb
	}
	return geo.NewAPIResolver()
}
