package reporter

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/dnspulse/dnspulse/pkg/dnsbench"
	"github.com/dnspulse/dnspulse/pkg/printutils"
	"github.com/olekukonko/tablewriter"
)

func tablewriterNew(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	return table
}

type standardReporter struct{}

func (s *standardReporter) print(w io.Writer, rep *dnsbench.BenchmarkReport, opts Options) error {
	printutils.NeutralFprintf(w, "\nBenchmark mode:\t\t%s\n", printutils.HighlightSprint(rep.Mode))
	printutils.NeutralFprintf(w, "Time taken:\t\t%s\n", printutils.HighlightSprint(roundDuration(rep.Duration)))

	for _, warning := range rep.Warnings {
		printutils.WarnFprintf(w, "warning: %s\n", warning)
	}

	if rep.Mode == dnsbench.ModeComprehensive {
		for _, sub := range rep.Sub {
			printutils.NeutralFprintf(w, "\n=== %s ===\n", sub.Mode)
			if err := s.printSection(w, sub, opts); err != nil {
				return err
			}
		}
		return nil
	}
	return s.printSection(w, rep, opts)
}

func (s *standardReporter) printSection(w io.Writer, rep *dnsbench.BenchmarkReport, opts Options) error {
	printStatsTable(w, rep)
	printWinner(w, rep)

	if opts.HistDisplay {
		hist := buildHistogram(rep.Runs)
		if tc := hist.TotalCount(); tc > 1 {
			printutils.NeutralFprintf(w, "\nLatency distribution, %s datapoints\n", printutils.HighlightSprint(tc))
			printBars(w, hist.Distribution())
		}
	}
	return nil
}

func printStatsTable(w io.Writer, rep *dnsbench.BenchmarkReport) {
	slower := make(map[string]float64, len(rep.Comparisons))
	for _, c := range rep.Comparisons {
		slower[c.ResolverID+"/"+string(c.Transport)] = c.SlowerByPercent
	}

	sts := append([]dnsbench.ResolverStats(nil), rep.Stats...)
	sort.SliceStable(sts, func(i, j int) bool {
		a, b := sts[i].Latency, sts[j].Latency
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Avg < b.Avg
	})

	lines := make([][]string, 0, len(sts))
	for _, st := range sts {
		name := st.Resolver.ID
		if rep.Winner != nil && st.Resolver.ID == rep.Winner.Resolver.ID && st.Transport == rep.Winner.Transport {
			name = printutils.WinnerSprint(name + " *")
		}

		line := []string{
			name,
			string(st.Transport),
			strconv.Itoa(st.Total),
			fmt.Sprintf("%.1f%%", st.SuccessRate),
			strconv.Itoa(st.TimeoutCount),
		}
		if st.Latency != nil {
			line = append(line,
				roundDuration(st.Latency.Avg).String(),
				roundDuration(st.Latency.Median).String(),
				roundDuration(st.Latency.P95).String(),
				roundDuration(st.Latency.P99).String(),
				roundDuration(st.Latency.Jitter).String(),
				roundDuration(st.Latency.AvgConn).String(),
			)
		} else {
			line = append(line, "-", "-", "-", "-", "-", "-")
		}
		if pct, ok := slower[st.Resolver.ID+"/"+string(st.Transport)]; ok {
			line = append(line, fmt.Sprintf("+%.1f%%", pct))
		} else {
			line = append(line, "")
		}
		lines = append(lines, line)
	}

	table := tablewriterNew(w)
	table.SetHeader([]string{"Resolver", "Transport", "Queries", "Success", "Timeouts", "Avg", "Median", "p95", "p99", "Jitter", "Conn", "vs fastest"})
	table.AppendBulk(lines)
	table.Render()
}

func printWinner(w io.Writer, rep *dnsbench.BenchmarkReport) {
	if rep.Winner == nil {
		printutils.ErrFprintf(w, "\nNo resolver reached the minimum success rate, no winner.\n")
		return
	}
	printutils.SuccessFprintf(w, "\nFastest resolver: %s over %s, average latency %s\n",
		printutils.WinnerSprint(rep.Winner.Resolver.Name),
		rep.Winner.Transport,
		printutils.HighlightSprint(roundDuration(rep.Winner.Latency.Avg)))
	for _, c := range rep.Comparisons {
		printutils.NeutralFprintf(w, "\t%s/%s would be %s faster by switching\n",
			c.ResolverID, c.Transport, printutils.HighlightSprintf("%.1f%%", c.SlowerByPercent))
	}
}

// buildHistogram accumulates the successful query latencies of all runs.
func buildHistogram(runs []*dnsbench.ResolverRun) *hdrhistogram.Histogram {
	hist := hdrhistogram.New(time.Microsecond.Nanoseconds(), time.Minute.Nanoseconds(), 1)
	for _, run := range runs {
		for _, res := range run.Results {
			if res.Success {
				hist.RecordValue(res.Latency.Nanoseconds())
			}
		}
	}
	return hist
}

func printBars(w io.Writer, bars []hdrhistogram.Bar) {
	counts := make([]int64, 0, len(bars))
	lines := make([][]string, 0, len(bars))
	added := false
	var max int64

	for _, b := range bars {
		if b.Count == 0 && !added {
			// trim the start
			continue
		}
		if b.Count > max {
			max = b.Count
		}

		added = true

		line := make([]string, 3)
		lines = append(lines, line)
		counts = append(counts, b.Count)

		line[0] = roundDuration(time.Duration(b.To/2 + b.From/2)).String()
		line[2] = strconv.FormatInt(b.Count, 10)
	}

	for i, l := range lines {
		l[1] = makeBar(counts[i], max)
	}

	table := tablewriterNew(w)
	table.SetHeader([]string{"Latency", "", "Count"})
	table.AppendBulk(lines)
	table.Render()
}

func makeBar(c int64, max int64) string {
	if c == 0 {
		return ""
	}
	t := int((43 * float64(c) / float64(max)) + 0.5)
	return strings.Repeat(printutils.HighlightSprint("▄"), t)
}
