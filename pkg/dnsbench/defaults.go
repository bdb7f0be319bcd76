package dnsbench

import (
	"time"
)

const (
	// DefaultDomainCount is a default number of base domains queried per run.
	DefaultDomainCount = 30

	// DefaultRuns is a default number of timed passes per test mode.
	DefaultRuns = 2

	// DefaultParallel is a default bound on in-flight queries per resolver and transport pair.
	DefaultParallel = 10

	// DefaultRequestTimeout is a default per-query deadline.
	DefaultRequestTimeout = 5 * time.Second

	// DefaultConnectTimeout is a default connect timeout.
	DefaultConnectTimeout = time.Second

	// DefaultReadTimeout is a default read timeout.
	DefaultReadTimeout = 3 * time.Second

	// DefaultWriteTimeout is a default write timeout.
	DefaultWriteTimeout = time.Second

	// DefaultMinSuccessRate is a default viability threshold (in percent)
	// a resolver has to reach to be considered for the winner selection.
	DefaultMinSuccessRate = 50.0

	// DefaultDohProtocol is a default HTTP protocol version used for DoH requests.
	DefaultDohProtocol = HTTP2Proto

	// PlainDNSPort is the well-known port for DNS over UDP and TCP.
	PlainDNSPort = "53"

	// DoTPort is the well-known port for DNS over TLS (RFC 7858).
	DoTPort = "853"

	// HTTP1Proto represents HTTP/1.1 protocol version for DoH.
	HTTP1Proto = "1.1"

	// HTTP2Proto represents HTTP/2 protocol version for DoH.
	HTTP2Proto = "2"

	// HTTP3Proto represents HTTP/3 protocol version for DoH.
	HTTP3Proto = "3"

	// UDPNetwork is the network name of the plain DNS over UDP transport.
	UDPNetwork = "udp"

	// TCPNetwork is the network name of the plain DNS over TCP transport.
	TCPNetwork = "tcp"

	// TLSNetwork is the network name of the DoT transport.
	TLSNetwork = "tcp-tls"
)
