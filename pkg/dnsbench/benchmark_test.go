package dnsbench

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/suite"
)

type BenchmarkRunSuite struct {
	suite.Suite
}

func TestBenchmarkRunSuite(t *testing.T) {
	suite.Run(t, new(BenchmarkRunSuite))
}

// countingHandler answers NOERROR and records every queried name.
type countingHandler struct {
	mu     sync.Mutex
	qnames []string
}

func (h *countingHandler) handle(w dns.ResponseWriter, r *dns.Msg) {
	h.mu.Lock()
	h.qnames = append(h.qnames, r.Question[0].Name)
	h.mu.Unlock()

	successHandler(w, r)
}

func (h *countingHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.qnames...)
}

func (suite *BenchmarkRunSuite) testConfig(mode Mode) BenchmarkConfig {
	return BenchmarkConfig{
		Resolvers:   []string{"127.0.0.1"},
		Transports:  []Transport{UDPTransport},
		Mode:        mode,
		DomainCount: 3,
		Runs:        2,
	}
}

func (suite *BenchmarkRunSuite) TestRun_cold() {
	handler := &countingHandler{}
	s := NewServer(suite.T(), UDPNetwork, nil, handler.handle)
	defer s.Close()

	bench := Benchmark{Config: suite.testConfig(ModeCold), plainPort: s.Port}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	report, err := bench.Run(ctx)

	suite.Require().NoError(err)
	suite.Equal(ModeCold, report.Mode)
	suite.Require().Len(report.Stats, 1)

	st := report.Stats[0]
	suite.Equal(12, st.Total, "3 domains, A and AAAA, 2 runs")
	suite.Equal(12, st.SuccessCount)
	suite.Equal(100.0, st.SuccessRate)
	suite.Require().NotNil(st.Latency)

	suite.Require().NotNil(report.Winner)
	suite.Equal("127.0.0.1", report.Winner.Resolver.ID)

	// every cold query name is uniquely labelled, 6 distinct names seen
	// twice each (A and AAAA)
	distinct := map[string]int{}
	for _, qname := range handler.seen() {
		distinct[qname]++
	}
	suite.Len(distinct, 6, "each run generates fresh cache-bypass names")
	for qname, n := range distinct {
		suite.Equal(2, n, "name %s should be queried once per question type", qname)
	}
}

func (suite *BenchmarkRunSuite) TestRun_warm() {
	handler := &countingHandler{}
	s := NewServer(suite.T(), UDPNetwork, nil, handler.handle)
	defer s.Close()

	bench := Benchmark{Config: suite.testConfig(ModeWarm), plainPort: s.Port}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	report, err := bench.Run(ctx)

	suite.Require().NoError(err)
	suite.Require().Len(report.Stats, 1)

	st := report.Stats[0]
	suite.Equal(12, st.Total, "the warm-up pass is not recorded")
	suite.Len(handler.seen(), 18, "the warm-up pass still reaches the server")

	// warm lookups reuse the same catalog names across passes
	distinct := map[string]struct{}{}
	for _, qname := range handler.seen() {
		distinct[qname] = struct{}{}
	}
	suite.Len(distinct, 3, "warm mode repeats unmodified catalog domains")
}

func (suite *BenchmarkRunSuite) TestRun_burst() {
	handler := &countingHandler{}
	s := NewServer(suite.T(), UDPNetwork, nil, handler.handle)
	defer s.Close()

	bench := Benchmark{Config: suite.testConfig(ModeBurst), plainPort: s.Port}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	report, err := bench.Run(ctx)

	suite.Require().NoError(err)
	suite.Require().Len(report.Stats, 1)

	st := report.Stats[0]
	suite.Equal(60, st.Total, "3 pages of 5 domains, A and AAAA, 2 runs")
	suite.Equal(100.0, st.SuccessRate)
}

func (suite *BenchmarkRunSuite) TestRun_comprehensive() {
	s := NewServer(suite.T(), UDPNetwork, nil, successHandler)
	defer s.Close()

	cfg := suite.testConfig(ModeComprehensive)
	cfg.Runs = 1
	bench := Benchmark{Config: cfg, plainPort: s.Port}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	report, err := bench.Run(ctx)

	suite.Require().NoError(err)
	suite.Equal(ModeComprehensive, report.Mode)
	suite.Empty(report.Stats, "the comprehensive report aggregates nothing itself")

	suite.Require().Len(report.Sub, 3)
	suite.Equal(ModeCold, report.Sub[0].Mode)
	suite.Equal(ModeWarm, report.Sub[1].Mode)
	suite.Equal(ModeBurst, report.Sub[2].Mode)
	for _, sub := range report.Sub {
		suite.Require().Len(sub.Stats, 1)
		suite.NotNil(sub.Winner, "each sub-benchmark selects its own winner")
	}
}

func (suite *BenchmarkRunSuite) TestRun_groupsFailIndependently() {
	s := NewDualServer(suite.T(),
		successHandler,
		func(w dns.ResponseWriter, r *dns.Msg) {
			ret := new(dns.Msg)
			ret.SetReply(r)
			ret.Rcode = dns.RcodeServerFailure
			w.WriteMsg(ret)
		})
	defer s.Close()

	cfg := suite.testConfig(ModeWarm)
	cfg.Transports = []Transport{UDPTransport, TCPTransport}
	bench := Benchmark{Config: cfg, plainPort: s.Port}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	report, err := bench.Run(ctx)

	suite.Require().NoError(err, "a failing group never aborts the others")
	suite.Require().Len(report.Stats, 2)

	byTransport := map[Transport]ResolverStats{}
	for _, st := range report.Stats {
		byTransport[st.Transport] = st
	}
	suite.Equal(100.0, byTransport[UDPTransport].SuccessRate)
	suite.Equal(0.0, byTransport[TCPTransport].SuccessRate)
	suite.Nil(byTransport[TCPTransport].Latency)

	suite.Require().NotNil(report.Winner)
	suite.Equal(UDPTransport, report.Winner.Transport)
}

func (suite *BenchmarkRunSuite) TestRun_cancellation() {
	s := NewServer(suite.T(), UDPNetwork, nil, func(w dns.ResponseWriter, r *dns.Msg) {
		time.Sleep(100 * time.Millisecond)
		successHandler(w, r)
	})
	defer s.Close()

	cfg := suite.testConfig(ModeCold)
	cfg.DomainCount = 50
	bench := Benchmark{Config: cfg, plainPort: s.Port}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	report, err := bench.Run(ctx)

	suite.Require().ErrorIs(err, ErrBenchmarkCancelled)
	suite.Nil(report, "cancellation discards all partial results")
}

func (suite *BenchmarkRunSuite) TestRun_configError() {
	bench := Benchmark{Config: BenchmarkConfig{
		Resolvers:  []string{"no-such-resolver"},
		Transports: []Transport{UDPTransport},
	}}

	report, err := bench.Run(context.Background())

	suite.Nil(report)
	var confErr *ConfigError
	suite.Require().ErrorAs(err, &confErr, "configuration problems surface before any query")
}

func (suite *BenchmarkRunSuite) TestRun_noSupportedTransport() {
	bench := Benchmark{Config: BenchmarkConfig{
		Resolvers:  []string{"192.0.2.1"},
		Transports: []Transport{DoTTransport},
	}}

	report, err := bench.Run(context.Background())

	suite.Nil(report)
	var confErr *ConfigError
	suite.Require().ErrorAs(err, &confErr)
	suite.Equal("transports", confErr.Field)
}

func (suite *BenchmarkRunSuite) TestRun_progressIsMonotonic() {
	s := NewServer(suite.T(), UDPNetwork, nil, successHandler)
	defer s.Close()

	var mu sync.Mutex
	var events []ProgressEvent

	bench := Benchmark{
		Config:    suite.testConfig(ModeCold),
		plainPort: s.Port,
		OnProgress: func(ev ProgressEvent) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := bench.Run(ctx)

	suite.Require().NoError(err)
	suite.Require().NotEmpty(events)

	last := 0.0
	for _, ev := range events {
		suite.GreaterOrEqual(ev.Percent, last, "progress never goes backwards")
		suite.LessOrEqual(ev.Percent, 100.0)
		suite.NotEmpty(ev.Message)
		last = ev.Percent
	}
	suite.Equal(100.0, last, "the final event reports completion")
}

func (suite *BenchmarkRunSuite) TestRun_flushCacheFailureIsWarning() {
	s := NewServer(suite.T(), UDPNetwork, nil, successHandler)
	defer s.Close()

	cfg := suite.testConfig(ModeCold)
	cfg.FlushCache = true
	bench := Benchmark{
		Config:    cfg,
		plainPort: s.Port,
		CacheFlusher: func() error {
			return errors.New("permission denied")
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	report, err := bench.Run(ctx)

	suite.Require().NoError(err, "a failed cache flush never aborts the run")
	suite.Require().Len(report.Warnings, 1)
	suite.Contains(report.Warnings[0], "permission denied")
}
