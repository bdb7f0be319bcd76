package dnsbench

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

// ResolverRun is the ordered sequence of query results for one resolver and
// transport pair within one test mode execution. Results are ordered by
// issue order, which is what jitter is derived from.
type ResolverRun struct {
	Resolver  Resolver
	Transport Transport
	Results   []QueryResult
}

// LatencySummary is the latency distribution of the successful queries of
// one ResolverRun. All fields are derived from total latencies except
// AvgConn, which summarizes the connection/handshake portion.
type LatencySummary struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Median  time.Duration
	P95     time.Duration
	P99     time.Duration
	Jitter  time.Duration
	AvgConn time.Duration
}

// ResolverStats is the reduction of one ResolverRun. Latency is nil when no
// query succeeded: a fully failed resolver has no latency distribution and
// must never rank as instant.
type ResolverStats struct {
	Resolver  Resolver
	Transport Transport

	Total        int
	SuccessCount int
	TimeoutCount int

	// SuccessRate is in percent, rounded to one decimal place.
	SuccessRate float64

	Latency *LatencySummary
}

// ComputeStats reduces a ResolverRun to its statistics. It is a pure
// function, identical runs always reduce to identical stats.
func ComputeStats(run *ResolverRun) ResolverStats {
	st := ResolverStats{
		Resolver:  run.Resolver,
		Transport: run.Transport,
		Total:     len(run.Results),
	}

	var latencies []float64
	var connSum time.Duration
	for _, res := range run.Results {
		if res.TimedOut() {
			st.TimeoutCount++
		}
		if !res.Success {
			continue
		}
		st.SuccessCount++
		latencies = append(latencies, float64(res.Latency))
		connSum += res.ConnLatency
	}

	if st.Total > 0 {
		st.SuccessRate = round1(float64(st.SuccessCount) / float64(st.Total) * 100)
	}
	if st.SuccessCount == 0 {
		return st
	}

	minLat, _ := stats.Min(latencies)
	maxLat, _ := stats.Max(latencies)
	avgLat, _ := stats.Mean(latencies)
	medianLat, _ := stats.Median(latencies)
	p95, _ := stats.PercentileNearestRank(latencies, 95)
	p99, _ := stats.PercentileNearestRank(latencies, 99)

	st.Latency = &LatencySummary{
		Min:     time.Duration(minLat),
		Max:     time.Duration(maxLat),
		Avg:     time.Duration(avgLat),
		Median:  time.Duration(medianLat),
		P95:     time.Duration(p95),
		P99:     time.Duration(p99),
		Jitter:  jitter(latencies),
		AvgConn: connSum / time.Duration(st.SuccessCount),
	}
	return st
}

// jitter is the mean absolute difference between consecutive successful
// latencies in issue order (RFC 3550 style).
func jitter(latencies []float64) time.Duration {
	if len(latencies) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(latencies); i++ {
		sum += math.Abs(latencies[i] - latencies[i-1])
	}
	return time.Duration(sum / float64(len(latencies)-1))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
