package dnsbench

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

// Server represents simple DNS server.
type Server struct {
	Addr  string
	Port  string
	inner *dns.Server
}

// Close shuts down running DNS server instance.
func (s *Server) Close() {
	s.inner.Shutdown()
}

// NewServer creates and starts new DNS server instance.
func NewServer(t *testing.T, network string, tlsConfig *tls.Config, f dns.HandlerFunc) *Server {
	t.Helper()
	ch := make(chan bool)
	s := &dns.Server{Net: network, Addr: "127.0.0.1:0", TLSConfig: tlsConfig, NotifyStartedFunc: func() { close(ch) }, Handler: f}

	go func() {
		if err := s.ListenAndServe(); err != nil {
			panic(err)
		}
	}()

	<-ch
	server := Server{inner: s}
	if network == UDPNetwork {
		server.Addr = s.PacketConn.LocalAddr().String()
	} else {
		server.Addr = s.Listener.Addr().String()
	}

	_, port, err := net.SplitHostPort(server.Addr)
	require.NoError(t, err)
	server.Port = port

	return &server
}

// DualServer serves DNS over UDP and TCP on the same port, with a separate
// handler per protocol.
type DualServer struct {
	Addr string
	Port string
	udp  *dns.Server
	tcp  *dns.Server
}

// Close shuts down both protocol servers.
func (s *DualServer) Close() {
	s.udp.Shutdown()
	s.tcp.Shutdown()
}

// NewDualServer reserves one port for both protocols and starts a DNS
// server on each.
func NewDualServer(t *testing.T, udpHandler, tcpHandler dns.HandlerFunc) *DualServer {
	t.Helper()

	var listener net.Listener
	var pc net.PacketConn
	for i := 0; i < 10; i++ {
		listener, _ = net.Listen("tcp", "127.0.0.1:0")
		if listener == nil {
			continue
		}
		pc, _ = net.ListenPacket("udp", listener.Addr().String())
		if pc != nil {
			break
		}
		listener.Close()
		listener = nil
	}
	require.NotNil(t, listener, "failed to reserve a port for both protocols")
	require.NotNil(t, pc, "failed to reserve a port for both protocols")

	udpCh := make(chan bool)
	udpSrv := &dns.Server{PacketConn: pc, Handler: udpHandler, NotifyStartedFunc: func() { close(udpCh) }}
	go func() {
		udpSrv.ActivateAndServe()
	}()

	tcpCh := make(chan bool)
	tcpSrv := &dns.Server{Listener: listener, Handler: tcpHandler, NotifyStartedFunc: func() { close(tcpCh) }}
	go func() {
		tcpSrv.ActivateAndServe()
	}()

	<-udpCh
	<-tcpCh

	addr := listener.Addr().String()
	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	return &DualServer{Addr: addr, Port: port, udp: udpSrv, tcp: tcpSrv}
}

// successHandler replies NOERROR with a single A record to every question.
func successHandler(w dns.ResponseWriter, r *dns.Msg) {
	ret := new(dns.Msg)
	ret.SetReply(r)
	ret.Answer = append(ret.Answer, A("example.org. IN A 127.0.0.1"))
	w.WriteMsg(ret)
}

// newServerTLSConfig generates a self-signed certificate for 127.0.0.1 valid
// for the duration of the test.
func newServerTLSConfig(t *testing.T) *tls.Config {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		IsCA:         true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	return &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{der},
			PrivateKey:  key,
		}},
	}
}

// localResolver builds a resolver pointing at the loopback test servers.
func localResolver() Resolver {
	return Resolver{
		ID:          "local",
		Name:        "Local test resolver",
		IPv4:        "127.0.0.1",
		DoTHostname: "localhost",
	}
}

func A(rr string) *dns.A { r, _ := dns.NewRR(rr); return r.(*dns.A) }
