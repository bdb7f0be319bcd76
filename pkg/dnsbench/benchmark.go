package dnsbench

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// ErrBenchmarkCancelled is returned by Run when the benchmark is cancelled
// externally. No report is produced and all partial results are discarded.
var ErrBenchmarkCancelled = errors.New("benchmark cancelled")

// ProgressEvent reports benchmark progress to an external renderer. Percent
// is within [0,100] and non-decreasing within one mode execution.
type ProgressEvent struct {
	Percent float64
	Message string
}

// Benchmark executes DNS benchmarks according to its configuration. Every
// call to Run starts from fresh scheduler and session state, nothing is
// shared across invocations.
type Benchmark struct {
	Config BenchmarkConfig

	// OnProgress, when set, receives an event after every completed query.
	OnProgress func(ProgressEvent)

	// Logger, when set, receives a debug line per query.
	Logger *zap.Logger

	// CacheFlusher is invoked once before the first query when
	// Config.FlushCache is set. A failure is reported as a report warning,
	// never as an error.
	CacheFlusher func() error

	// port overrides for tests.
	plainPort string
	dotPort   string
}

// group binds one resolver+transport pair to its client and accumulating run.
type group struct {
	resolver  Resolver
	transport Transport
	client    client
	run       *ResolverRun
}

// Run executes the configured benchmark. Configuration problems surface as
// ConfigError before any query is issued. Per-query failures never abort the
// run, they are recorded in the resolver runs and reflected in success
// rates. On external cancellation ErrBenchmarkCancelled is returned and no
// report is produced.
func (b *Benchmark) Run(ctx context.Context) (*BenchmarkReport, error) {
	cfg := b.Config.withDefaults()
	resolvers, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var warnings []string
	if cfg.FlushCache && b.CacheFlusher != nil {
		if err := b.CacheFlusher(); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to flush OS DNS cache: %v", err))
		}
	}

	var report *BenchmarkReport
	if cfg.Mode == ModeComprehensive {
		report = &BenchmarkReport{Mode: ModeComprehensive, StartedAt: time.Now()}
		for _, mode := range []Mode{ModeCold, ModeWarm, ModeBurst} {
			sub, err := b.runMode(ctx, mode, cfg, resolvers, logger)
			if err != nil {
				return nil, err
			}
			report.Sub = append(report.Sub, sub)
		}
		report.Duration = time.Since(report.StartedAt)
	} else {
		report, err = b.runMode(ctx, cfg.Mode, cfg, resolvers, logger)
		if err != nil {
			return nil, err
		}
	}

	report.Warnings = warnings
	return report, nil
}

// runMode executes one test mode against all resolver+transport groups and
// reduces the outcome to a report. Clients, and with them any TLS session
// state, are created fresh per mode.
func (b *Benchmark) runMode(ctx context.Context, mode Mode, cfg BenchmarkConfig, resolvers []Resolver, logger *zap.Logger) (*BenchmarkReport, error) {
	started := time.Now()

	groups := b.newGroups(mode, cfg, resolvers)
	if len(groups) == 0 {
		return nil, &ConfigError{Field: "transports", Reason: "none of the resolvers supports any of the requested transports"}
	}
	defer closeGroups(groups)

	tracker := newProgressTracker(b.OnProgress, b.totalQueries(mode, cfg, len(groups)))
	sched := newScheduler(cfg.Parallel, cfg.Rate, func(res QueryResult) {
		logQuery(logger, res)
		tracker.complete(res)
	})

	var err error
	switch mode {
	case ModeCold:
		err = b.runCold(ctx, cfg, groups, sched, tracker)
	case ModeWarm:
		err = b.runWarm(ctx, cfg, groups, sched, tracker)
	case ModeBurst:
		err = b.runBurst(ctx, cfg, groups, sched, tracker)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrBenchmarkCancelled, err)
		}
		return nil, err
	}

	runs := make([]*ResolverRun, len(groups))
	for i, g := range groups {
		runs[i] = g.run
	}
	return buildReport(mode, started, runs, cfg.MinSuccessRate), nil
}

// runCold issues cache-bypassing queries, a fresh workload with new random
// labels per run, runs strictly sequential.
func (b *Benchmark) runCold(ctx context.Context, cfg BenchmarkConfig, groups []*group, sched *scheduler, tracker *progressTracker) error {
	for run := 0; run < cfg.Runs; run++ {
		tracker.setPhase(fmt.Sprintf("cold run %d/%d", run+1, cfg.Runs))
		if err := runPass(ctx, sched, groups, ColdDomains(cfg.DomainCount), run, cfg.RequestTimeout, true); err != nil {
			return err
		}
	}
	return nil
}

// runWarm populates resolver caches with one untimed pass whose results are
// discarded, then measures the same domains across the configured runs.
func (b *Benchmark) runWarm(ctx context.Context, cfg BenchmarkConfig, groups []*group, sched *scheduler, tracker *progressTracker) error {
	domains := WarmDomains(cfg.DomainCount)

	tracker.setPhase("warming caches")
	if err := runPass(ctx, sched, groups, domains, 0, cfg.RequestTimeout, false); err != nil {
		return err
	}

	for run := 0; run < cfg.Runs; run++ {
		tracker.setPhase(fmt.Sprintf("warm run %d/%d", run+1, cfg.Runs))
		if err := runPass(ctx, sched, groups, domains, run, cfg.RequestTimeout, true); err != nil {
			return err
		}
	}
	return nil
}

// runBurst fires page bundles, each page's domains form one concurrent
// batch. The parallelism budget caps outstanding queries across all pages
// issued so far, not within a single page.
func (b *Benchmark) runBurst(ctx context.Context, cfg BenchmarkConfig, groups []*group, sched *scheduler, tracker *progressTracker) error {
	for run := 0; run < cfg.Runs; run++ {
		tracker.setPhase(fmt.Sprintf("burst run %d/%d", run+1, cfg.Runs))
		var domains []string
		for _, page := range Pages(cfg.DomainCount) {
			domains = append(domains, page.Domains()...)
		}
		if err := runPass(ctx, sched, groups, domains, run, cfg.RequestTimeout, true); err != nil {
			return err
		}
	}
	return nil
}

// runPass schedules the given workload against every group concurrently,
// each group bounded by its own parallelism budget. Results are appended to
// the group's run in issue order when record is set.
func runPass(ctx context.Context, sched *scheduler, groups []*group, domains []string, run int, timeout time.Duration, record bool) error {
	var wg sync.WaitGroup
	errs := make([]error, len(groups))
	for i, g := range groups {
		wg.Add(1)
		go func(i int, g *group) {
			defer wg.Done()
			results, err := sched.run(ctx, g.client, makeTasks(g, domains, run, timeout))
			if err != nil {
				errs[i] = err
				return
			}
			if record {
				g.run.Results = append(g.run.Results, results...)
			}
		}(i, g)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func makeTasks(g *group, domains []string, run int, timeout time.Duration) []QueryTask {
	tasks := make([]QueryTask, 0, len(domains)*2)
	for _, d := range domains {
		for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
			tasks = append(tasks, QueryTask{
				Resolver:  g.resolver,
				Domain:    d,
				Type:      qtype,
				Transport: g.transport,
				Run:       run,
				Timeout:   timeout,
			})
		}
	}
	return tasks
}

func (b *Benchmark) newGroups(mode Mode, cfg BenchmarkConfig, resolvers []Resolver) []*group {
	opts := clientOptions{
		// cold mode measures worst-case handshake cost, so sessions are
		// never reused there.
		reuseConnections: mode != ModeCold,
		dnssec:           cfg.DNSSEC,
		insecure:         cfg.Insecure,
		dohProtocol:      cfg.DohProtocol,
		connectTimeout:   cfg.ConnectTimeout,
		readTimeout:      cfg.ReadTimeout,
		writeTimeout:     cfg.WriteTimeout,
		plainPort:        b.plainPort,
		dotPort:          b.dotPort,
	}

	var groups []*group
	for _, r := range resolvers {
		for _, t := range cfg.Transports {
			if !r.Supports(t) {
				continue
			}
			groups = append(groups, &group{
				resolver:  r,
				transport: t,
				client:    newTransportClient(r, t, opts),
				run:       &ResolverRun{Resolver: r, Transport: t},
			})
		}
	}
	return groups
}

func closeGroups(groups []*group) {
	for _, g := range groups {
		if c, ok := g.client.(interface{ close() }); ok {
			c.close()
		}
	}
}

// totalQueries is the number of queries one mode execution will issue,
// used to scale progress percentages.
func (b *Benchmark) totalQueries(mode Mode, cfg BenchmarkConfig, groups int) int {
	perDomain := 2 // A and AAAA
	switch mode {
	case ModeWarm:
		// warm-up pass plus timed runs
		return groups * (cfg.Runs + 1) * cfg.DomainCount * perDomain
	case ModeBurst:
		perPage := 1 + len(pageResourcePrefixes)
		return groups * cfg.Runs * cfg.DomainCount * perPage * perDomain
	default:
		return groups * cfg.Runs * cfg.DomainCount * perDomain
	}
}

// progressTracker turns completed tasks into monotonically non-decreasing
// progress events.
type progressTracker struct {
	emit  func(ProgressEvent)
	total int

	mu    sync.Mutex
	done  int
	phase string
}

func newProgressTracker(emit func(ProgressEvent), total int) *progressTracker {
	return &progressTracker{emit: emit, total: total}
}

func (p *progressTracker) setPhase(phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = phase
}

func (p *progressTracker) complete(res QueryResult) {
	if p.emit == nil {
		return
	}
	// emit under the lock so events reach the sink in non-decreasing order
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	percent := math.Min(100, float64(p.done)/float64(p.total)*100)
	p.emit(ProgressEvent{
		Percent: percent,
		Message: fmt.Sprintf("%s: %s (%s)", p.phase, res.Task.Resolver.Name, res.Task.Transport),
	})
}
