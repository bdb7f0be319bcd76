package dnsbench

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransport(t *testing.T) {
	for _, transport := range []string{"udp", "tcp", "dot", "doh"} {
		got, err := ParseTransport(transport)
		require.NoError(t, err)
		assert.Equal(t, Transport(transport), got)
	}

	_, err := ParseTransport("doq")
	var confErr *ConfigError
	assert.ErrorAs(t, err, &confErr)
}

type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o timeout" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		httpFallback bool
		want         ErrorKind
	}{
		{
			name: "nil error",
			err:  nil,
			want: NoError,
		},
		{
			name: "context deadline",
			err:  fmt.Errorf("query failed: %w", context.DeadlineExceeded),
			want: Timeout,
		},
		{
			name: "net timeout",
			err:  &net.OpError{Op: "read", Err: timeoutNetError{}},
			want: Timeout,
		},
		{
			name: "connection refused",
			err:  &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			want: ConnectionRefused,
		},
		{
			name: "network unreachable",
			err:  &net.OpError{Op: "dial", Err: syscall.ENETUNREACH},
			want: NetworkUnreachable,
		},
		{
			name: "host unreachable",
			err:  &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH},
			want: NetworkUnreachable,
		},
		{
			name: "tls record header",
			err:  tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"},
			want: TLSError,
		},
		{
			name: "tls certificate verification",
			err:  &tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}},
			want: TLSError,
		},
		{
			name: "dns id mismatch",
			err:  dns.ErrId,
			want: MalformedResponse,
		},
		{
			name: "short read",
			err:  dns.ErrShortRead,
			want: MalformedResponse,
		},
		{
			name: "unexpected eof",
			err:  io.ErrUnexpectedEOF,
			want: MalformedResponse,
		},
		{
			name: "unrecognized error over plain transport",
			err:  errors.New("something odd"),
			want: MalformedResponse,
		},
		{
			name:         "unrecognized error over doh",
			err:          errors.New("unexpected status code 500"),
			httpFallback: true,
			want:         HTTPError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyError(tt.err, tt.httpFallback))
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	kinds := map[ErrorKind]string{
		NoError:            "none",
		Timeout:            "timeout",
		ConnectionRefused:  "connection refused",
		MalformedResponse:  "malformed response",
		TLSError:           "tls error",
		HTTPError:          "http error",
		NetworkUnreachable: "network unreachable",
	}
	for kind, want := range kinds {
		assert.Equal(t, want, kind.String())
	}
}
