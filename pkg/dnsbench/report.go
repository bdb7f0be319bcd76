package dnsbench

import (
	"time"
)

// Comparison relates a non-winning resolver to the winner: SlowerByPercent
// is how much of the resolver's average latency would be saved by switching
// to the winner, (other.avg - winner.avg) / other.avg * 100, one decimal.
type Comparison struct {
	ResolverID      string
	Transport       Transport
	SlowerByPercent float64
}

// BenchmarkReport is the outcome of one completed benchmark. Winner is nil
// when no resolver reached the viability threshold, which is a valid result
// of a run where everything failed. Comprehensive mode fills Sub with the
// cold, warm and burst sub-reports, each independently computed, and leaves
// the top-level stats empty.
type BenchmarkReport struct {
	Mode      Mode
	StartedAt time.Time
	Duration  time.Duration

	Stats []ResolverStats
	Runs  []*ResolverRun

	Winner      *ResolverStats
	Comparisons []Comparison

	Sub []*BenchmarkReport

	// Warnings carries non-fatal system-level problems encountered during
	// the run, such as a failed OS cache flush.
	Warnings []string
}

// selectWinner ranks resolvers by average latency among those whose success
// rate reaches minSuccessRate and that completed at least one successful
// query. Ties are broken by lower p95. A nil winner is a valid outcome.
func selectWinner(sts []ResolverStats, minSuccessRate float64) (*ResolverStats, []Comparison) {
	winner := -1
	for i, st := range sts {
		if st.Latency == nil || st.SuccessRate < minSuccessRate {
			continue
		}
		if winner == -1 {
			winner = i
			continue
		}
		w := sts[winner].Latency
		switch {
		case st.Latency.Avg < w.Avg:
			winner = i
		case st.Latency.Avg == w.Avg && st.Latency.P95 < w.P95:
			winner = i
		}
	}
	if winner == -1 {
		return nil, nil
	}

	w := sts[winner]
	var comparisons []Comparison
	for i, st := range sts {
		if i == winner || st.Latency == nil {
			continue
		}
		comparisons = append(comparisons, Comparison{
			ResolverID:      st.Resolver.ID,
			Transport:       st.Transport,
			SlowerByPercent: round1(float64(st.Latency.Avg-w.Latency.Avg) / float64(st.Latency.Avg) * 100),
		})
	}
	return &w, comparisons
}

// buildReport reduces the raw runs of one mode execution into a report.
func buildReport(mode Mode, started time.Time, runs []*ResolverRun, minSuccessRate float64) *BenchmarkReport {
	report := &BenchmarkReport{
		Mode:      mode,
		StartedAt: started,
		Duration:  time.Since(started),
		Runs:      runs,
	}
	for _, run := range runs {
		report.Stats = append(report.Stats, ComputeStats(run))
	}
	report.Winner, report.Comparisons = selectWinner(report.Stats, minSuccessRate)
	return report
}
