package model

// SortField selects which metric the filter engine orders by.
type SortField string

const (
	SortByPing   SortField = "ping"
	SortByJitter SortField = "jitter"
)

// ScanConfig carries everything one scan needs. It is assembled by the CLI
// (flags merged over an optional YAML config file) and never mutated once
// the scan starts.
type ScanConfig struct {
	Count          int  // latency samples per endpoint (min 1)
	TimeoutSeconds int  // per-probe timeout
	Workers        int  // concurrent workers
	FetchGeo       bool // resolve hostname and look up country
	GeoDBPath      string
	ProbeDomains   []string // external domains to tunnel-probe at :443

	InputFile    string
	InputURL     string
	InputStdin   bool
	OutputFile   string
	OutputFormat string // txt | csv | json
	Verbose      bool
	Silent       bool
}

// FilterCriteria is a read-only value object describing one post-scan
// filter/sort pass. Zero values mean "not specified".
type FilterCriteria struct {
	MaxPing *int
	MinPing *int

	IncludeCountries []string // uppercase ISO codes
	ExcludeCountries []string

	SecretContains string

	TopN       int // 0 = no truncation
	SortBy     SortField
	Descending bool
}
