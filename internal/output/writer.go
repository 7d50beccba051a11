package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/vafaeim/advanced-proxy-checker/internal/model"
)

// Options shapes the serialized output. Domains lists the tunnel-probed
// external domains, one ping_<domain> CSV column each; ShowCountry adds the
// country column when geolocation ran.
type Options struct {
	ShowCountry bool
	Domains     []string
}

// PrintResultsTable prints a human-readable table of the final proxy set.
func PrintResultsTable(w io.Writer, proxies []model.MeasuredProxy, opts Options) {
	if len(proxies) == 0 {
		fmt.Fprintln(w, "no proxies matched the criteria")
		return
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)

	header := "PING(ms)\tJITTER\tANONYMITY"
	if opts.ShowCountry {
		header += "\tCOUNTRY"
	}
	header += "\tSERVER\tPORT"
	for _, d := range opts.Domains {
		header += "\t" + d
	}
	fmt.Fprintln(tw, header)

	for _, p := range proxies {
		row := fmt.Sprintf("%s\t%s\t%s", pingCell(p.Ping), jitterCell(p.Jitter), p.Anonymity)
		if opts.ShowCountry {
			row += "\t" + dashIfEmpty(p.CountryCode)
		}
		row += fmt.Sprintf("\t%s\t%d", p.Server, p.Port)
		for _, d := range opts.Domains {
			row += "\t" + pingCell(p.ExternalPings[d])
		}
		fmt.Fprintln(tw, row)
	}

	tw.Flush()
}

// PrintSummary prints the aggregated scan stats.
func PrintSummary(w io.Writer, stats model.ScanStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Endpoints checked:   %d\n", stats.TotalEndpoints)
	fmt.Fprintf(w, "  Healthy proxies:     %d\n", stats.HealthyProxies)
	fmt.Fprintf(w, "  Success rate:        %.1f%%\n", stats.SuccessRatePct)
	fmt.Fprintf(w, "  Avg ping (healthy):  %.1f ms\n", stats.AvgPingMs)
	fmt.Fprintf(w, "  Avg jitter:          %.2f ms\n", stats.AvgJitterMs)
	fmt.Fprintf(w, "  Scan time:           %.2f s\n", float64(stats.TotalProcessingTimeMs)/1000.0)
}

// WriteFile writes the final proxy set to a file in txt, csv or json form.
func WriteFile(path, format string, proxies []model.MeasuredProxy, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case "txt", "":
		return WriteTXT(f, proxies)
	case "csv":
		return WriteCSV(f, proxies, opts)
	case "json":
		return WriteJSON(f, proxies)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteTXT emits one original descriptor per line, exactly as it was read.
func WriteTXT(w io.Writer, proxies []model.MeasuredProxy) error {
	for _, p := range proxies {
		if _, err := fmt.Fprintln(w, p.Raw); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV emits the fixed column order: ping, jitter, anonymity,
// [country], server, port, url, then one ping_<domain> column per
// requested external domain.
func WriteCSV(w io.Writer, proxies []model.MeasuredProxy, opts Options) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	domains := append([]string(nil), opts.Domains...)
	sort.Strings(domains)

	header := []string{"ping", "jitter", "anonymity"}
	if opts.ShowCountry {
		header = append(header, "country")
	}
	header = append(header, "server", "port", "url")
	for _, d := range domains {
		header = append(header, "ping_"+d)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, p := range proxies {
		row := []string{pingCell(p.Ping), jitterCell(p.Jitter), p.Anonymity.String()}
		if opts.ShowCountry {
			row = append(row, p.CountryCode)
		}
		row = append(row, p.Server, fmt.Sprintf("%d", p.Port), p.Raw)
		for _, d := range domains {
			row = append(row, pingCell(p.ExternalPings[d]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON emits the full records as an indented JSON array.
func WriteJSON(w io.Writer, proxies []model.MeasuredProxy) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(proxies)
}

func pingCell(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func jitterCell(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
