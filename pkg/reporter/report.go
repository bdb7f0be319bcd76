// Package reporter renders benchmark reports to the terminal, to JSON, to
// CSV files and to graph images.
package reporter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dnspulse/dnspulse/pkg/dnsbench"
)

// Options controls how a report is rendered.
type Options struct {
	// Writer receives the formatted report, os.Stdout when nil.
	Writer io.Writer
	// JSON switches the output from the human readable tables to a single
	// JSON document.
	JSON bool
	// CSVPath, when non-empty, is the file the raw per-query results are
	// exported to.
	CSVPath string
	// PlotDir, when non-empty, is an existing directory where graphs are
	// generated, each invocation in its own timestamped subdirectory.
	PlotDir string
	// PlotFormat is the graph image format, png when empty.
	PlotFormat string
	// HistDisplay enables the latency distribution table in the standard
	// output.
	HistDisplay bool
	// Silent suppresses the formatted report, exports still happen.
	Silent bool
}

type reportPrinter interface {
	print(w io.Writer, rep *dnsbench.BenchmarkReport, opts Options) error
}

// PrintReport prints a formatted benchmark report, exports graphs and
// generates CSV output if configured. If there is a fatal error while
// printing the report, an error is returned.
func PrintReport(rep *dnsbench.BenchmarkReport, opts Options) error {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.PlotFormat == "" {
		opts.PlotFormat = "png"
	}

	runs := allRuns(rep)

	if len(opts.PlotDir) != 0 {
		if err := directoryExists(opts.PlotDir); err != nil {
			return fmt.Errorf("unable to plot results: %w", err)
		}

		now := time.Now().Format(time.RFC3339)
		dir := fmt.Sprintf("%s/graphs-%s", opts.PlotDir, now)
		if err := os.Mkdir(dir, os.ModePerm); err != nil {
			return fmt.Errorf("unable to plot results: %w", err)
		}
		plotHistogramLatency(fileName(dir, "latency-histogram", opts.PlotFormat), runs)
		plotBoxPlotLatency(fileName(dir, "latency-boxplot", opts.PlotFormat), runs)
		plotAvgLatency(fileName(dir, "latency-barchart", opts.PlotFormat), allStats(rep))
		plotLineThroughput(fileName(dir, "throughput-lineplot", opts.PlotFormat), rep.StartedAt, runs)
		plotLineLatencies(fileName(dir, "latency-lineplot", opts.PlotFormat), rep.StartedAt, runs)
		plotErrorRate(fileName(dir, "errorrate-lineplot", opts.PlotFormat), rep.StartedAt, runs)
	}

	if opts.CSVPath != "" {
		f, err := os.Create(opts.CSVPath)
		if err != nil {
			return fmt.Errorf("failed to create file for CSV export due to '%v'", err)
		}
		defer f.Close()

		if err := writeRawCSV(f, runs); err != nil {
			return fmt.Errorf("failed to export CSV: %w", err)
		}
	}

	if opts.Silent {
		return nil
	}
	return printer(opts).print(opts.Writer, rep, opts)
}

func printer(opts Options) reportPrinter {
	switch {
	case opts.JSON:
		return &jsonReporter{}
	default:
		return &standardReporter{}
	}
}

// allRuns flattens the raw runs of a report and its sub-reports.
func allRuns(rep *dnsbench.BenchmarkReport) []*dnsbench.ResolverRun {
	runs := append([]*dnsbench.ResolverRun(nil), rep.Runs...)
	for _, sub := range rep.Sub {
		runs = append(runs, allRuns(sub)...)
	}
	return runs
}

// allStats flattens the per-resolver stats of a report and its sub-reports.
func allStats(rep *dnsbench.BenchmarkReport) []dnsbench.ResolverStats {
	sts := append([]dnsbench.ResolverStats(nil), rep.Stats...)
	for _, sub := range rep.Sub {
		sts = append(sts, allStats(sub)...)
	}
	return sts
}

func directoryExists(plotDir string) error {
	stat, err := os.Stat(plotDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("'%s' path does not point to an existing directory", plotDir)
		}
		return err
	} else if !stat.IsDir() {
		return fmt.Errorf("'%s' is not a path to a directory", plotDir)
	}
	return nil
}

func fileName(dir, name, format string) string {
	return dir + "/" + name + "." + format
}
