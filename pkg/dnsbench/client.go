package dnsbench

import (
	"context"
	"crypto/tls"
	"math/rand"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/quic-go/quic-go/http3"
	"github.com/tantalor93/doh-go/doh"
	"golang.org/x/net/http2"
)

// edns0BufferSize is the EDNS0 buffer size advertised with DNSSEC queries,
// per http://www.dnsflagday.net/2020/.
const edns0BufferSize = 1232

// client issues one DNS query over one transport. Implementations never
// return an error, every failure is classified into the result's ErrorKind.
// A client instance belongs to exactly one resolver and is never shared
// across resolvers, which keeps TLS session reuse per-resolver.
type client interface {
	query(ctx context.Context, task QueryTask) QueryResult
}

type clientOptions struct {
	// reuseConnections allows DoT sessions and DoH connection pools to
	// survive across queries to the same resolver. Cold mode disables it
	// so the handshake cost is paid, and measured, on every query.
	reuseConnections bool
	dnssec           bool
	insecure         bool
	dohProtocol      string

	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration

	// port overrides for tests, defaulted to the well-known ports.
	plainPort string
	dotPort   string
}

func (o clientOptions) withDefaults() clientOptions {
	if o.plainPort == "" {
		o.plainPort = PlainDNSPort
	}
	if o.dotPort == "" {
		o.dotPort = DoTPort
	}
	if o.dohProtocol == "" {
		o.dohProtocol = DefaultDohProtocol
	}
	if o.connectTimeout == 0 {
		o.connectTimeout = DefaultConnectTimeout
	}
	if o.readTimeout == 0 {
		o.readTimeout = DefaultReadTimeout
	}
	if o.writeTimeout == 0 {
		o.writeTimeout = DefaultWriteTimeout
	}
	return o
}

// newTransportClient builds the client for one resolver and transport pair.
func newTransportClient(r Resolver, t Transport, opts clientOptions) client {
	opts = opts.withDefaults()
	switch t {
	case UDPTransport:
		return &udpClient{
			addr:   r.addr(opts.plainPort),
			udp:    newDNSClient(UDPNetwork, nil, opts),
			tcp:    newDNSClient(TCPNetwork, nil, opts),
			dnssec: opts.dnssec,
		}
	case TCPTransport:
		return &tcpClient{
			addr:   r.addr(opts.plainPort),
			client: newDNSClient(TCPNetwork, nil, opts),
			dnssec: opts.dnssec,
		}
	case DoTTransport:
		// nolint:gosec
		tlsConfig := &tls.Config{ServerName: r.DoTHostname, InsecureSkipVerify: opts.insecure}
		return &dotClient{
			addr:   r.addr(opts.dotPort),
			client: newDNSClient(TLSNetwork, tlsConfig, opts),
			reuse:  opts.reuseConnections,
			dnssec: opts.dnssec,
		}
	case DoHTransport:
		return newDoHClient(r, opts)
	}
	return nil
}

func newDNSClient(network string, tlsConfig *tls.Config, opts clientOptions) *dns.Client {
	return &dns.Client{
		Net:          network,
		DialTimeout:  opts.connectTimeout,
		ReadTimeout:  opts.readTimeout,
		WriteTimeout: opts.writeTimeout,
		TLSConfig:    tlsConfig,
	}
}

// newQuery builds a wire-format DNS question with a fresh random
// transaction ID.
func newQuery(domain string, qtype uint16, dnssec bool) *dns.Msg {
	m := dns.Msg{}
	// nolint:gosec
	m.Id = uint16(rand.Uint32())
	m.RecursionDesired = true
	m.Question = []dns.Question{{Name: dns.Fqdn(domain), Qtype: qtype, Qclass: dns.ClassINET}}
	if dnssec {
		m.SetEdns0(edns0BufferSize, true)
	}
	return &m
}

// udpClient is the fire-and-forget plain DNS transport. Connection latency
// is always zero. A truncated response triggers exactly one retry over TCP,
// counted into the same logical query.
type udpClient struct {
	addr   string
	udp    *dns.Client
	tcp    *dns.Client
	dnssec bool
}

func (c *udpClient) query(ctx context.Context, task QueryTask) QueryResult {
	res := QueryResult{Task: task, Start: time.Now()}
	ctx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()

	m := newQuery(task.Domain, task.Type, c.dnssec)
	start := time.Now()
	r, rtt, err := c.udp.ExchangeContext(ctx, m, c.addr)
	if err != nil {
		res.Err = classifyError(err, false)
		res.Latency = time.Since(start)
		return res
	}

	if r.Truncated {
		retry := newQuery(task.Domain, task.Type, c.dnssec)
		r2, rtt2, err2 := c.tcp.ExchangeContext(ctx, retry, c.addr)
		res.Latency = rtt + rtt2
		if err2 != nil {
			res.Err = MalformedResponse
			return res
		}
		res.Rcode = r2.Rcode
		res.Success = r2.Rcode == dns.RcodeSuccess
		return res
	}

	res.Rcode = r.Rcode
	res.Success = r.Rcode == dns.RcodeSuccess
	res.Latency = rtt
	return res
}

// tcpClient dials a fresh connection per query so that connection setup and
// query round-trip are observable separately.
type tcpClient struct {
	addr   string
	client *dns.Client
	dnssec bool
}

func (c *tcpClient) query(ctx context.Context, task QueryTask) QueryResult {
	res := QueryResult{Task: task, Start: time.Now()}
	ctx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()

	dialStart := time.Now()
	co, err := c.client.DialContext(ctx, c.addr)
	if err != nil {
		res.Err = classifyError(err, false)
		res.Latency = time.Since(dialStart)
		return res
	}
	defer co.Close()
	res.ConnLatency = time.Since(dialStart)

	m := newQuery(task.Domain, task.Type, c.dnssec)
	r, rtt, err := c.client.ExchangeWithConnContext(ctx, m, co)
	if err != nil {
		res.Err = classifyError(err, false)
		res.Latency = time.Since(dialStart)
		return res
	}

	res.Rcode = r.Rcode
	res.Success = r.Rcode == dns.RcodeSuccess
	res.Latency = res.ConnLatency + rtt
	return res
}

// dotClient speaks length-prefixed DNS over a TLS session on port 853.
// Established sessions are pooled per resolver when reuse is enabled;
// queries served over a reused session record zero connection latency.
type dotClient struct {
	addr   string
	client *dns.Client
	reuse  bool
	dnssec bool

	mu   sync.Mutex
	idle []*dns.Conn
}

func (c *dotClient) query(ctx context.Context, task QueryTask) QueryResult {
	res := QueryResult{Task: task, Start: time.Now()}
	ctx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()

	co := c.takeIdle()
	if co == nil {
		dialStart := time.Now()
		var err error
		co, err = c.client.DialContext(ctx, c.addr)
		if err != nil {
			res.Err = classifyError(err, false)
			res.Latency = time.Since(dialStart)
			return res
		}
		res.ConnLatency = time.Since(dialStart)
	}

	m := newQuery(task.Domain, task.Type, c.dnssec)
	queryStart := time.Now()
	r, rtt, err := c.client.ExchangeWithConnContext(ctx, m, co)
	if err != nil {
		co.Close()
		res.Err = classifyError(err, false)
		res.Latency = res.ConnLatency + time.Since(queryStart)
		return res
	}

	if c.reuse {
		c.putIdle(co)
	} else {
		co.Close()
	}

	res.Rcode = r.Rcode
	res.Success = r.Rcode == dns.RcodeSuccess
	res.Latency = res.ConnLatency + rtt
	return res
}

func (c *dotClient) takeIdle() *dns.Conn {
	if !c.reuse {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.idle) == 0 {
		return nil
	}
	co := c.idle[len(c.idle)-1]
	c.idle = c.idle[:len(c.idle)-1]
	return co
}

func (c *dotClient) putIdle(co *dns.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idle = append(c.idle, co)
}

// close tears down pooled sessions.
func (c *dotClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, co := range c.idle {
		co.Close()
	}
	c.idle = nil
}

// dohClient POSTs wire-format DNS messages to the resolver's HTTPS query
// endpoint. Handshake and connection setup time is observed through
// httptrace and recorded separately from the body round-trip.
type dohClient struct {
	client *doh.Client
	dnssec bool

	// closeIdle drops pooled connections after each query when session
	// reuse is disabled. Nil when reuse is allowed.
	closeIdle func()
}

func newDoHClient(r Resolver, opts clientOptions) *dohClient {
	// nolint:gosec
	tlsConfig := &tls.Config{InsecureSkipVerify: opts.insecure}

	var tr http.RoundTripper
	var closeIdle func()
	switch opts.dohProtocol {
	case HTTP3Proto:
		t := &http3.RoundTripper{TLSClientConfig: tlsConfig}
		tr, closeIdle = t, t.CloseIdleConnections
	case HTTP1Proto:
		t := &http.Transport{TLSClientConfig: tlsConfig}
		tr, closeIdle = t, t.CloseIdleConnections
	case HTTP2Proto:
		fallthrough
	default:
		t := &http2.Transport{TLSClientConfig: tlsConfig}
		tr, closeIdle = t, t.CloseIdleConnections
	}

	c := &dohClient{
		client: doh.NewClient(r.DoHURL, doh.WithHTTPClient(&http.Client{Transport: tr})),
		dnssec: opts.dnssec,
	}
	if !opts.reuseConnections {
		c.closeIdle = closeIdle
	}
	return c
}

func (c *dohClient) query(ctx context.Context, task QueryTask) QueryResult {
	res := QueryResult{Task: task, Start: time.Now()}
	ctx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()

	if c.closeIdle != nil {
		defer c.closeIdle()
	}

	var connStart time.Time
	var connLatency time.Duration
	trace := &httptrace.ClientTrace{
		ConnectStart: func(string, string) {
			if connStart.IsZero() {
				connStart = time.Now()
			}
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err == nil && !connStart.IsZero() {
				connLatency = time.Since(connStart)
			}
		},
	}
	ctx = httptrace.WithClientTrace(ctx, trace)

	m := newQuery(task.Domain, task.Type, c.dnssec)
	start := time.Now()
	r, err := c.client.SendViaPost(ctx, m)
	res.Latency = time.Since(start)
	res.ConnLatency = connLatency
	if err != nil {
		res.Err = classifyError(err, true)
		return res
	}

	res.Rcode = r.Rcode
	res.Success = r.Rcode == dns.RcodeSuccess
	return res
}
