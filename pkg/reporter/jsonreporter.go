package reporter

import (
	"encoding/json"
	"io"
	"time"

	"github.com/dnspulse/dnspulse/pkg/dnsbench"
)

type jsonReporter struct{}

type jsonLatency struct {
	MinMs     float64 `json:"minMs"`
	MaxMs     float64 `json:"maxMs"`
	AvgMs     float64 `json:"avgMs"`
	MedianMs  float64 `json:"medianMs"`
	P95Ms     float64 `json:"p95Ms"`
	P99Ms     float64 `json:"p99Ms"`
	JitterMs  float64 `json:"jitterMs"`
	AvgConnMs float64 `json:"avgConnMs"`
}

type jsonResolverResult struct {
	Resolver                string       `json:"resolver"`
	Transport               string       `json:"transport"`
	TotalQueries            int          `json:"totalQueries"`
	SuccessCount            int          `json:"successCount"`
	TimeoutCount            int          `json:"timeoutCount"`
	SuccessRatePercent      float64      `json:"successRatePercent"`
	Latency                 *jsonLatency `json:"latency,omitempty"`
	SlowerThanWinnerPercent *float64     `json:"slowerThanWinnerPercent,omitempty"`
}

type jsonWinner struct {
	Resolver     string  `json:"resolver"`
	Transport    string  `json:"transport"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
}

type jsonReport struct {
	Mode            string               `json:"mode"`
	StartedAt       time.Time            `json:"startedAt"`
	DurationSeconds float64              `json:"durationSeconds"`
	Resolvers       []jsonResolverResult `json:"resolvers,omitempty"`
	Winner          *jsonWinner          `json:"winner,omitempty"`
	Warnings        []string             `json:"warnings,omitempty"`
	Sub             []jsonReport         `json:"subResults,omitempty"`
}

func (s *jsonReporter) print(w io.Writer, rep *dnsbench.BenchmarkReport, _ Options) error {
	return json.NewEncoder(w).Encode(toJSONReport(rep))
}

func toJSONReport(rep *dnsbench.BenchmarkReport) jsonReport {
	out := jsonReport{
		Mode:            string(rep.Mode),
		StartedAt:       rep.StartedAt,
		DurationSeconds: roundDuration(rep.Duration).Seconds(),
		Warnings:        rep.Warnings,
	}

	slower := make(map[string]float64, len(rep.Comparisons))
	for _, c := range rep.Comparisons {
		slower[c.ResolverID+"/"+string(c.Transport)] = c.SlowerByPercent
	}

	for _, st := range rep.Stats {
		res := jsonResolverResult{
			Resolver:           st.Resolver.ID,
			Transport:          string(st.Transport),
			TotalQueries:       st.Total,
			SuccessCount:       st.SuccessCount,
			TimeoutCount:       st.TimeoutCount,
			SuccessRatePercent: st.SuccessRate,
		}
		if st.Latency != nil {
			res.Latency = &jsonLatency{
				MinMs:     millis(st.Latency.Min),
				MaxMs:     millis(st.Latency.Max),
				AvgMs:     millis(st.Latency.Avg),
				MedianMs:  millis(st.Latency.Median),
				P95Ms:     millis(st.Latency.P95),
				P99Ms:     millis(st.Latency.P99),
				JitterMs:  millis(st.Latency.Jitter),
				AvgConnMs: millis(st.Latency.AvgConn),
			}
		}
		if pct, ok := slower[st.Resolver.ID+"/"+string(st.Transport)]; ok {
			p := pct
			res.SlowerThanWinnerPercent = &p
		}
		out.Resolvers = append(out.Resolvers, res)
	}

	if rep.Winner != nil {
		out.Winner = &jsonWinner{
			Resolver:     rep.Winner.Resolver.ID,
			Transport:    string(rep.Winner.Transport),
			AvgLatencyMs: millis(rep.Winner.Latency.Avg),
		}
	}

	for _, sub := range rep.Sub {
		out.Sub = append(out.Sub, toJSONReport(sub))
	}
	return out
}
