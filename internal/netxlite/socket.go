package netxlite

//
// Socket layer: non-blocking connect and readiness classification
//

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/ooni/netconnect/internal/model"
)

// socketConnector creates a socket and issues a non-blocking connect.
//
// The returned handle represents a pending connect: the caller MUST
// wait for it to become writable, then classify it using classifyConnect,
// and finally either convert it to a stream or close it.
type socketConnector interface {
	// Connect creates a socket for the given network ("tcp" or "unix")
	// and starts connecting it to address, which MUST be a literal
	// IP:port endpoint or a filesystem path. An error returned by this
	// method means the system refused to even start connecting.
	Connect(ctx context.Context, network, address string, options *model.SocketOptions) (socketHandle, error)
}

// socketHandle is a socket on which we issued a non-blocking connect.
type socketHandle interface {
	// WaitWritable suspends until the socket is writable or the context
	// is done. In the latter case it returns the context error and the
	// wait is deregistered from the poller.
	WaitWritable(ctx context.Context) error

	// PeerName probes whether the socket has a connected peer.
	PeerName() error

	// SocketError returns the pending socket error, if any.
	SocketError() error

	// Stream converts a connected handle into a stream. On success the
	// stream owns the underlying socket and closing the handle
	// becomes a no-op.
	Stream(options *model.SocketOptions) (net.Conn, error)

	// Close closes the socket. It is safe to call Close more than once.
	Close() error
}

// connectResult is the result of classifyConnect.
type connectResult int

const (
	// connectConnected indicates that the socket is connected.
	connectConnected = connectResult(iota)

	// connectRefused indicates that the socket became writable
	// because the connect attempt failed.
	connectRefused
)

// String implements fmt.Stringer.
func (r connectResult) String() string {
	switch r {
	case connectConnected:
		return "connected"
	default:
		return "refused"
	}
}

// classifyConnect tells whether a socket that became writable is actually
// connected. A socket also becomes writable when the connect fails, so we
// probe for the peer name. When the probe fails, the returned error is the
// pending socket error, if any, or the probe error.
func classifyConnect(handle socketHandle) (connectResult, error) {
	perr := handle.PeerName()
	if perr == nil {
		return connectConnected, nil
	}
	if serr := handle.SocketError(); serr != nil {
		return connectRefused, serr
	}
	return connectRefused, perr
}

// aLongTimeAgo is a non-zero time, far in the past, used to
// immediately wake up goroutines blocked on I/O.
var aLongTimeAgo = time.Unix(1, 0)

// applySocketOptions applies the socket options to a connected conn.
func applySocketOptions(conn net.Conn, options *model.SocketOptions) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // only TCP has options
	}
	// Go enables TCP_NODELAY by default.
	if err := tcpConn.SetNoDelay(options.NoDelay.UnwrapOr(true)); err != nil {
		return err
	}
	switch {
	case options.KeepAlive > 0:
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		return tcpConn.SetKeepAlivePeriod(options.KeepAlive)
	case options.KeepAlive < 0:
		return tcpConn.SetKeepAlive(false)
	default:
		return nil
	}
}

// streamConn is the stream returned to the caller. It owns exactly one
// socket and its Close method is idempotent.
type streamConn struct {
	net.Conn
	closeOnce sync.Once
}

func newStreamConn(conn net.Conn) *streamConn {
	return &streamConn{Conn: conn}
}

// Close closes the underlying conn the first time it's called and
// otherwise returns nil without doing anything.
func (c *streamConn) Close() (err error) {
	c.closeOnce.Do(func() {
		err = c.Conn.Close()
	})
	return
}

// TLSConn is the interface implemented by the streams returned
// by the TLS connector.
type TLSConn interface {
	net.Conn

	// ConnectionState returns the state of the TLS connection.
	ConnectionState() tls.ConnectionState
}

// tlsStreamConn is a stream running TLS over the plain stream.
type tlsStreamConn struct {
	*streamConn
	state tls.ConnectionState
}

var _ TLSConn = &tlsStreamConn{}

func newTLSStreamConn(conn net.Conn, state tls.ConnectionState) *tlsStreamConn {
	return &tlsStreamConn{streamConn: newStreamConn(conn), state: state}
}

// ConnectionState implements TLSConn.
func (c *tlsStreamConn) ConnectionState() tls.ConnectionState {
	return c.state
}
