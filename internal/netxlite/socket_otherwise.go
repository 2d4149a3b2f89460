//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd)

package netxlite

import (
	"context"
	"net"
	"sync"

	"github.com/ooni/netconnect/internal/model"
)

// newSocketConnector returns the default socketConnector. On this
// platform we cannot issue connect(2) ourselves, so we let net.Dialer
// drive the poller and we only see the final result. A refused connect
// is therefore reported as a dial error.
func newSocketConnector() socketConnector {
	return &dialerSocketConnector{}
}

// dialerSocketConnector is a socketConnector using net.Dialer.
type dialerSocketConnector struct{}

var _ socketConnector = &dialerSocketConnector{}

// Connect implements socketConnector.
func (sc *dialerSocketConnector) Connect(
	ctx context.Context, network, address string, options *model.SocketOptions) (socketHandle, error) {
	dialer := &net.Dialer{}
	if network == "tcp" && options.BindTo != "" {
		laddr, err := net.ResolveTCPAddr("tcp", options.BindTo)
		if err != nil {
			return nil, err
		}
		dialer.LocalAddr = laddr
	}
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return &dialerSocketHandle{conn: conn}, nil
}

// dialerSocketHandle wraps an already connected net.Conn.
type dialerSocketHandle struct {
	conn      net.Conn
	closeOnce sync.Once
	closeErr  error
}

var _ socketHandle = &dialerSocketHandle{}

// WaitWritable implements socketHandle.
func (h *dialerSocketHandle) WaitWritable(ctx context.Context) error {
	return ctx.Err()
}

// PeerName implements socketHandle.
func (h *dialerSocketHandle) PeerName() error {
	if h.conn.RemoteAddr() == nil {
		return net.ErrClosed
	}
	return nil
}

// SocketError implements socketHandle.
func (h *dialerSocketHandle) SocketError() error {
	return nil
}

// Stream implements socketHandle.
func (h *dialerSocketHandle) Stream(options *model.SocketOptions) (net.Conn, error) {
	if err := applySocketOptions(h.conn, options); err != nil {
		h.Close()
		return nil, err
	}
	h.closeOnce.Do(func() {}) // the stream owns the conn now
	return newStreamConn(h.conn), nil
}

// Close implements socketHandle.
func (h *dialerSocketHandle) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = h.conn.Close()
	})
	return h.closeErr
}
