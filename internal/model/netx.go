package model

//
// Network extensions
//

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"strconv"
	"time"

	"github.com/ooni/netconnect/internal/optional"
)

const (
	// SchemeTCP is the scheme of plain TCP targets.
	SchemeTCP = "tcp"

	// SchemeUnix is the scheme of unix-domain socket targets.
	SchemeUnix = "unix"
)

// Target describes where to connect. TCP-family targets (tcp and the
// TLS variants such as tls or tlsv1.2) use Host and Port while unix
// targets only use Path.
type Target struct {
	// Scheme is the MANDATORY scheme (e.g., "tcp", "unix", "tlsv1.2").
	Scheme string

	// Host is the domain name or IP address for TCP-family targets.
	Host string

	// Port is the port for TCP-family targets.
	Port uint16

	// Path is the socket path for unix targets.
	Path string
}

// Address returns the address to pass to a dialer: host:port for
// TCP-family targets and the filesystem path for unix targets.
func (t *Target) Address() string {
	if t.Scheme == SchemeUnix {
		return t.Path
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// String returns the URI representation of the target.
func (t *Target) String() string {
	return t.Scheme + "://" + t.Address()
}

// WithScheme returns a copy of the target using the given scheme.
func (t *Target) WithScheme(scheme string) *Target {
	out := *t
	out.Scheme = scheme
	return &out
}

// WithHost returns a copy of the target using the given host.
func (t *Target) WithHost(host string) *Target {
	out := *t
	out.Host = host
	return &out
}

// CryptoMethod selects the TLS protocol versions that a handshake
// may negotiate. A zero MaxVersion means "the highest version the
// TLS library supports".
type CryptoMethod struct {
	// Name is the name of the method (e.g., "tlsv1.2").
	Name string

	// MinVersion is the minimum acceptable TLS version.
	MinVersion uint16

	// MaxVersion is the maximum acceptable TLS version.
	MaxVersion uint16
}

// SocketOptions contains the options applied to the plain socket.
type SocketOptions struct {
	// BindTo is the OPTIONAL local IP:port to bind to before connecting.
	BindTo string

	// NoDelay OPTIONALLY overrides the TCP_NODELAY setting.
	NoDelay optional.Value[bool]

	// KeepAlive is the OPTIONAL TCP keep-alive period. Zero leaves
	// the system default in place and a negative value disables it.
	KeepAlive time.Duration
}

// TLSOptions contains the options used for the TLS handshake.
type TLSOptions struct {
	// CryptoMethod OPTIONALLY selects the TLS versions. When it is not
	// set, the TLS connector derives it from the target scheme.
	CryptoMethod optional.Value[CryptoMethod]

	// PeerName OPTIONALLY sets the SNI and the name to verify. When it
	// is not set, the TLS connector uses the target host.
	PeerName optional.Value[string]

	// RootCAs is the OPTIONAL certificate pool. When nil, we use the
	// system certificate pool.
	RootCAs *x509.CertPool

	// InsecureSkipVerify disables certificate verification.
	InsecureSkipVerify bool

	// NextProtos is the OPTIONAL ALPN list.
	NextProtos []string
}

// DialOptions contains the options for connecting to a target.
type DialOptions struct {
	// Socket contains the socket options.
	Socket SocketOptions

	// TLS contains the TLS options.
	TLS TLSOptions
}

// Connector establishes connections to targets.
type Connector interface {
	// Connect connects to the given target using the given options and
	// returns a connected stream. The options argument may be nil. The
	// caller owns the returned conn and should close it when done.
	Connect(ctx context.Context, target *Target, options *DialOptions) (net.Conn, error)
}

// Resolver performs domain name resolutions.
type Resolver interface {
	// LookupHost behaves like net.Resolver.LookupHost.
	LookupHost(ctx context.Context, hostname string) (addrs []string, err error)

	// Network returns the resolver type (e.g., system, udp, tcp).
	Network() string

	// Address returns the resolver address (e.g., 8.8.8.8:53).
	Address() string

	// CloseIdleConnections closes idle connections, if any.
	CloseIdleConnections()
}

// TLSHandshaker is the generic TLS handshaker.
type TLSHandshaker interface {
	// Handshake creates a new TLS connection from the given connection and
	// the given config. This function DOES NOT take ownership of the connection
	// and it's your responsibility to close it on failure.
	Handshake(ctx context.Context, conn net.Conn, config *tls.Config) (
		net.Conn, tls.ConnectionState, error)
}
