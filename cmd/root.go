// Package cmd provides the command line interface of dnspulse.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dnspulse/dnspulse/internal/sysutil"
	"github.com/dnspulse/dnspulse/pkg/dnsbench"
	"github.com/dnspulse/dnspulse/pkg/printutils"
	"github.com/dnspulse/dnspulse/pkg/reporter"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var (
	// Version is set during release of project during build process.
	Version = "development"

	author = "dnspulse authors"
)

var (
	pApp = kingpin.New("dnspulse", "A DNS resolver benchmark, finds the fastest resolver for your network.").Author(author)

	config dnsbench.BenchmarkConfig

	transports    []string
	mode          string
	listResolvers bool
	verbose       bool
	noProgress    bool
	colorOutput   bool

	output reporter.Options
)

func init() {
	pApp.Flag("resolver", "Resolver to benchmark. Repeatable flag. Accepts an identifier from the built-in registry (see --list), a raw IP address, "+
		"or the special value 'system' for the nameserver configured in the operating system.").
		Short('r').Default("cloudflare", "google", "quad9").StringsVar(&config.Resolvers)

	pApp.Flag("transport", "Transport to benchmark each resolver over. Repeatable flag. Supported values: udp, tcp, dot, doh. "+
		"Resolvers without DoT or DoH endpoints are skipped for those transports.").
		Short('t').Default("udp").EnumsVar(&transports, "udp", "tcp", "dot", "doh")

	pApp.Flag("mode", "Benchmark mode. cold bypasses resolver caches with unique domains, warm measures cached lookups after a warm-up pass, "+
		"burst simulates page loads resolving several related names at once, comprehensive runs all three.").
		Short('m').Default("cold").EnumVar(&mode, "cold", "warm", "burst", "comprehensive")

	pApp.Flag("domains", "Number of domains each run queries, at most 100.").
		Short('n').Default("30").IntVar(&config.DomainCount)

	pApp.Flag("runs", "How many times the query set is repeated per resolver.").
		Default("2").IntVar(&config.Runs)

	pApp.Flag("parallel", "Number of in-flight queries per resolver.").
		Short('p').Default("10").IntVar(&config.Parallel)

	pApp.Flag("rate-limit", "Apply a questions / second rate limit per resolver. 0 means unlimited.").
		Short('l').Default("0").IntVar(&config.Rate)

	pApp.Flag("write", "write timeout.").Default("1s").DurationVar(&config.WriteTimeout)

	pApp.Flag("read", "read timeout.").Default("3s").DurationVar(&config.ReadTimeout)

	pApp.Flag("connect", "connect timeout.").Default("1s").DurationVar(&config.ConnectTimeout)

	pApp.Flag("request", "request timeout.").Default("5s").DurationVar(&config.RequestTimeout)

	pApp.Flag("min-success", "Minimum success rate in percent a resolver needs to be eligible as the winner.").
		Default("50").Float64Var(&config.MinSuccessRate)

	pApp.Flag("dnssec", "Request DNSSEC validation (sets the DO bit with EDNS0).").
		Default("false").BoolVar(&config.DNSSEC)

	pApp.Flag("flush-cache", "Flush the OS DNS cache before benchmarking. Usually requires elevated privileges, failure is reported as a warning.").
		Default("false").BoolVar(&config.FlushCache)

	pApp.Flag("insecure", "Disables server TLS certificate validation. Applicable for DoT and DoH.").
		Default("false").BoolVar(&config.Insecure)

	pApp.Flag("doh-protocol", "HTTP protocol to use for DoH requests. Supported values: 1.1, 2 and 3.").
		Default("2").EnumVar(&config.DohProtocol, "1.1", "2", "3")

	pApp.Flag("json", "Report benchmark results as JSON.").BoolVar(&output.JSON)

	pApp.Flag("csv", "Export raw per-query results to CSV.").
		Default("").PlaceHolder("/path/to/file.csv").StringVar(&output.CSVPath)

	pApp.Flag("plot", "Plot benchmark results and export them to the directory.").
		Default("").PlaceHolder("/path/to/folder").StringVar(&output.PlotDir)

	pApp.Flag("plotf", "Format of graphs. Supported formats: png, jpg.").
		Default("png").EnumVar(&output.PlotFormat, "png", "jpg")

	pApp.Flag("distribution", "Display distribution histogram of timings to stdout.").
		Default("false").BoolVar(&output.HistDisplay)

	pApp.Flag("silent", "Disable stdout.").Default("false").BoolVar(&output.Silent)

	pApp.Flag("color", "ANSI Color output. Enabled by default.").
		Default("true").BoolVar(&colorOutput)

	pApp.Flag("no-progress", "Disable the progress bar.").
		Default("false").BoolVar(&noProgress)

	pApp.Flag("verbose", "Log individual queries to stderr.").
		Short('v').Default("false").BoolVar(&verbose)

	pApp.Flag("list", "List the built-in resolvers and exit.").
		Default("false").BoolVar(&listResolvers)
}

// Execute starts main logic of command.
func Execute() {
	pApp.Version(Version)
	kingpin.MustParse(pApp.Parse(os.Args[1:]))

	color.NoColor = !colorOutput

	if listResolvers {
		printResolverList(os.Stdout)
		return
	}

	for _, t := range transports {
		config.Transports = append(config.Transports, dnsbench.Transport(t))
	}
	config.Mode = dnsbench.Mode(mode)
	resolveSystemNameserver(&config)

	bench := dnsbench.Benchmark{
		Config:       config,
		CacheFlusher: sysutil.FlushDNSCache,
	}

	if verbose {
		logger, err := newLogger()
		if err != nil {
			printutils.ErrFprintf(os.Stderr, "failed to set up logging: %s\n", err.Error())
			os.Exit(1)
		}
		defer logger.Sync()
		bench.Logger = logger
	}

	if !noProgress && !output.Silent && !output.JSON {
		bench.OnProgress = newProgressBar().update
	}

	sigsInt := make(chan os.Signal, 8)
	signal.Notify(sigsInt, syscall.SIGINT)

	defer close(sigsInt)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		_, ok := <-sigsInt
		if !ok {
			// standard exit based on channel close
			return
		}
		fmt.Fprintf(os.Stderr, "\nCancelling benchmark ^C, again to terminate now.\n")
		cancel()
		<-sigsInt
		os.Exit(1)
	}()

	report, err := bench.Run(ctx)
	if err != nil {
		if errors.Is(err, dnsbench.ErrBenchmarkCancelled) {
			printutils.WarnFprintf(os.Stderr, "Benchmark cancelled, no results.\n")
			os.Exit(1)
		}
		printutils.ErrFprintf(os.Stderr, "There was an error while running the benchmark: %s\n", err.Error())
		os.Exit(1)
	}

	if err := reporter.PrintReport(report, output); err != nil {
		printutils.ErrFprintf(os.Stderr, "There was an error while printing report: %s\n", err.Error())
		os.Exit(1)
	}
}

// resolveSystemNameserver replaces the special 'system' resolver with the
// nameserver configured in the operating system.
func resolveSystemNameserver(c *dnsbench.BenchmarkConfig) {
	for i, r := range c.Resolvers {
		if r == "system" {
			c.Resolvers[i] = dnsbench.SystemNameServer()
		}
	}
}

func printResolverList(w *os.File) {
	for _, id := range dnsbench.ListResolvers() {
		r, err := dnsbench.GetResolver(id)
		if err != nil {
			continue
		}
		printutils.NeutralFprintf(w, "%s\t%s\t%s\n", printutils.HighlightSprint(r.ID), r.IPv4, r.Description)
	}
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

type progressBar struct {
	bar *progressbar.ProgressBar
}

func newProgressBar() *progressBar {
	return &progressBar{
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("benchmarking"),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionThrottle(100*time.Millisecond),
		),
	}
}

func (p *progressBar) update(ev dnsbench.ProgressEvent) {
	if ev.Message != "" {
		p.bar.Describe(ev.Message)
	}
	p.bar.Set(int(ev.Percent))
}
