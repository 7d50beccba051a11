package analytics

import (
	"time"

	"github.com/vafaeim/advanced-proxy-checker/internal/model"
)

// Compute aggregates summary statistics for one finished scan.
// totalEndpoints is the size of the submitted candidate set; results holds
// only the endpoints that produced a measurement, so the difference is the
// rejection count.
func Compute(results []model.MeasuredProxy, totalEndpoints int, totalDuration time.Duration) model.ScanStats {
	stats := model.ScanStats{
		TotalEndpoints:        totalEndpoints,
		HealthyProxies:        len(results),
		TotalProcessingTimeMs: totalDuration.Milliseconds(),
	}

	var pingSum, jitterSum float64
	var pingCount, jitterCount int
	for _, r := range results {
		if r.Ping != nil {
			pingSum += float64(*r.Ping)
			pingCount++
		}
		if r.Jitter != nil {
			jitterSum += *r.Jitter
			jitterCount++
		}
	}

	if pingCount > 0 {
		stats.AvgPingMs = pingSum / float64(pingCount)
	}
	if jitterCount > 0 {
		stats.AvgJitterMs = jitterSum / float64(jitterCount)
	}
	if totalEndpoints > 0 {
		stats.SuccessRatePct = float64(len(results)) / float64(totalEndpoints) * 100.0
	}

	return stats
}
