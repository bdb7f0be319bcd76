package dnsbench

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/miekg/dns"
)

// Transport identifies the wire protocol used to carry a DNS query.
type Transport string

// Supported transports.
const (
	UDPTransport Transport = "udp"
	TCPTransport Transport = "tcp"
	DoTTransport Transport = "dot"
	DoHTransport Transport = "doh"
)

// ParseTransport converts a textual transport name to a Transport.
func ParseTransport(s string) (Transport, error) {
	switch Transport(s) {
	case UDPTransport, TCPTransport, DoTTransport, DoHTransport:
		return Transport(s), nil
	}
	return "", &ConfigError{Field: "transport", Reason: fmt.Sprintf("unknown transport %q, supported transports are udp, tcp, dot and doh", s)}
}

func (t Transport) String() string {
	return string(t)
}

// ErrorKind classifies a failed query. Every transport failure is mapped to
// exactly one kind, transports never surface raw errors to the caller.
type ErrorKind uint8

// Error kinds recorded in QueryResult.
const (
	NoError ErrorKind = iota
	Timeout
	ConnectionRefused
	MalformedResponse
	TLSError
	HTTPError
	NetworkUnreachable
)

func (k ErrorKind) String() string {
	switch k {
	case NoError:
		return "none"
	case Timeout:
		return "timeout"
	case ConnectionRefused:
		return "connection refused"
	case MalformedResponse:
		return "malformed response"
	case TLSError:
		return "tls error"
	case HTTPError:
		return "http error"
	case NetworkUnreachable:
		return "network unreachable"
	}
	return "unknown"
}

// QueryTask is a single unit of benchmark work, one DNS question addressed
// to one resolver over one transport.
type QueryTask struct {
	Resolver  Resolver
	Domain    string
	Type      uint16
	Transport Transport
	Run       int
	Timeout   time.Duration
}

// QueryResult is the immutable outcome of one QueryTask. Latency is the
// total elapsed time of the query, ConnLatency is the portion spent
// establishing the connection (TCP handshake, TLS negotiation). ConnLatency
// is zero for UDP and for queries served over a reused session.
type QueryResult struct {
	Task        QueryTask
	Success     bool
	Latency     time.Duration
	ConnLatency time.Duration
	Rcode       int
	Err         ErrorKind
	Start       time.Time
}

// TimedOut reports whether the query failed due to its deadline expiring.
func (r QueryResult) TimedOut() bool {
	return r.Err == Timeout
}

// classifyError maps a transport error to its ErrorKind. The httpFallback
// flag makes unrecognized errors count as HTTP errors, which is the right
// default for the DoH transport where everything unexpected arrives wrapped
// in an HTTP client error.
func classifyError(err error, httpFallback bool) ErrorKind {
	if err == nil {
		return NoError
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return Timeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ConnectionRefused
	}
	if errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH) {
		return NetworkUnreachable
	}

	var recordErr tls.RecordHeaderError
	var verifyErr *tls.CertificateVerificationError
	var alertErr tls.AlertError
	if errors.As(err, &recordErr) || errors.As(err, &verifyErr) || errors.As(err, &alertErr) {
		return TLSError
	}

	if errors.Is(err, dns.ErrId) || errors.Is(err, dns.ErrShortRead) || errors.Is(err, io.ErrUnexpectedEOF) {
		return MalformedResponse
	}

	if httpFallback {
		return HTTPError
	}
	return MalformedResponse
}
