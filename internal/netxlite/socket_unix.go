//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package netxlite

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/ooni/netconnect/internal/model"
	"golang.org/x/sys/unix"
)

// newSocketConnector returns the default socketConnector, which
// uses non-blocking sockets managed by the runtime network poller.
func newSocketConnector() socketConnector {
	return &unixSocketConnector{}
}

// unixSocketConnector is the socketConnector for unix-like systems.
type unixSocketConnector struct{}

var _ socketConnector = &unixSocketConnector{}

// Connect implements socketConnector.
func (sc *unixSocketConnector) Connect(
	ctx context.Context, network, address string, options *model.SocketOptions) (socketHandle, error) {
	sa, family, err := sockaddrForNetwork(network, address)
	if err != nil {
		return nil, err
	}
	fd, err := newNonblockingSocket(family)
	if err != nil {
		return nil, err
	}
	if network == "tcp" && options.BindTo != "" {
		if err := bindSocket(fd, family, options.BindTo); err != nil {
			unix.Close(fd)
			return nil, err
		}
	}
	var connected bool
	switch err := unix.Connect(fd, sa); err {
	case nil, unix.EISCONN:
		connected = true
	case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
		// the poller will tell us when the connect completes
	default:
		unix.Close(fd)
		return nil, os.NewSyscallError("connect", err)
	}
	// Note: os.NewFile registers the non-blocking descriptor
	// with the poller and takes ownership of fd.
	file := os.NewFile(uintptr(fd), network+":"+address)
	return &unixSocketHandle{file: file, connected: connected}, nil
}

// newNonblockingSocket creates a close-on-exec non-blocking stream socket.
func newNonblockingSocket(family int) (int, error) {
	syscall.ForkLock.RLock()
	fd, err := unix.Socket(family, unix.SOCK_STREAM, 0)
	if err == nil {
		unix.CloseOnExec(fd)
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, os.NewSyscallError("setnonblock", err)
	}
	return fd, nil
}

// errNotLiteralEndpoint indicates that we expected a literal IP:port endpoint.
var errNotLiteralEndpoint = errors.New("not a literal IP:port endpoint")

// sockaddrForNetwork returns the sockaddr and the family to use.
func sockaddrForNetwork(network, address string) (unix.Sockaddr, int, error) {
	switch network {
	case "unix":
		return &unix.SockaddrUnix{Name: address}, unix.AF_UNIX, nil
	case "tcp":
		epnt, err := netip.ParseAddrPort(address)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %s", errNotLiteralEndpoint, err.Error())
		}
		sa, family := sockaddrInet(epnt.Addr(), epnt.Port())
		return sa, family, nil
	default:
		return nil, 0, unix.EPROTONOSUPPORT
	}
}

// sockaddrInet converts an address and a port to a sockaddr.
func sockaddrInet(addr netip.Addr, port uint16) (unix.Sockaddr, int) {
	if addr.Is4() || addr.Is4In6() {
		return &unix.SockaddrInet4{Port: int(port), Addr: addr.Unmap().As4()}, unix.AF_INET
	}
	return &unix.SockaddrInet6{
		Port:   int(port),
		ZoneId: zoneToIndex(addr.Zone()),
		Addr:   addr.As16(),
	}, unix.AF_INET6
}

// zoneToIndex maps an IPv6 zone to an interface index.
func zoneToIndex(zone string) uint32 {
	if zone == "" {
		return 0
	}
	if ifi, err := net.InterfaceByName(zone); err == nil {
		return uint32(ifi.Index)
	}
	index, _ := strconv.ParseUint(zone, 10, 32)
	return uint32(index)
}

// bindSocket binds the socket to the given local IP or IP:port.
func bindSocket(fd, family int, bindTo string) error {
	epnt, err := netip.ParseAddrPort(bindTo)
	if err != nil {
		addr, err := netip.ParseAddr(bindTo)
		if err != nil {
			return fmt.Errorf("%w: %s", errNotLiteralEndpoint, err.Error())
		}
		epnt = netip.AddrPortFrom(addr, 0)
	}
	sa, bindFamily := sockaddrInet(epnt.Addr(), epnt.Port())
	if bindFamily != family {
		return os.NewSyscallError("bind", unix.EAFNOSUPPORT)
	}
	if err := unix.Bind(fd, sa); err != nil {
		return os.NewSyscallError("bind", err)
	}
	return nil
}

// unixSocketHandle is the socketHandle for unix-like systems.
type unixSocketHandle struct {
	file      *os.File
	closeOnce sync.Once
	closeErr  error

	// connected is true when connect(2) completed immediately.
	connected bool

	// soErr is the pending socket error consumed while waiting.
	soErr error
}

var _ socketHandle = &unixSocketHandle{}

// WaitWritable implements socketHandle. We return immediately when the
// context is done or connect(2) already completed. Otherwise, we check
// whether the connect completed before parking on the poller, since
// preparing to wait discards a readiness notification the poller has
// already delivered.
func (h *unixSocketHandle) WaitWritable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.connected {
		return nil
	}
	rawConn, err := h.file.SyscallConn()
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		h.file.SetWriteDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		h.file.SetWriteDeadline(aLongTimeAgo)
	})
	defer func() {
		stop()
		h.file.SetWriteDeadline(time.Time{})
	}()
	err = rawConn.Write(func(fd uintptr) bool {
		return h.connectDone(int(fd))
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// connectDone returns whether the pending connect completed, either
// successfully or with an error that we save for SocketError.
func (h *unixSocketHandle) connectDone(fd int) bool {
	soerr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		h.soErr = os.NewSyscallError("getsockopt", err)
		return true
	}
	switch errno := syscall.Errno(soerr); errno {
	case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
		return false
	case 0:
		_, err := unix.Getpeername(fd)
		return err == nil
	default:
		h.soErr = os.NewSyscallError("connect", errno)
		return true
	}
}

// PeerName implements socketHandle.
func (h *unixSocketHandle) PeerName() error {
	return h.control(func(fd int) error {
		if _, err := unix.Getpeername(fd); err != nil {
			return os.NewSyscallError("getpeername", err)
		}
		return nil
	})
}

// SocketError implements socketHandle.
func (h *unixSocketHandle) SocketError() error {
	if h.soErr != nil {
		return h.soErr
	}
	return h.control(func(fd int) error {
		soerr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if err != nil {
			return os.NewSyscallError("getsockopt", err)
		}
		if soerr != 0 {
			return os.NewSyscallError("connect", syscall.Errno(soerr))
		}
		return nil
	})
}

// control runs fn with the file descriptor.
func (h *unixSocketHandle) control(fn func(fd int) error) error {
	rawConn, err := h.file.SyscallConn()
	if err != nil {
		return err
	}
	var fnErr error
	err = rawConn.Control(func(fd uintptr) {
		fnErr = fn(int(fd))
	})
	if err != nil {
		return err
	}
	return fnErr
}

// Stream implements socketHandle.
func (h *unixSocketHandle) Stream(options *model.SocketOptions) (net.Conn, error) {
	// net.FileConn duplicates the descriptor, so we close ours.
	conn, err := net.FileConn(h.file)
	h.Close()
	if err != nil {
		return nil, err
	}
	if err := applySocketOptions(conn, options); err != nil {
		conn.Close()
		return nil, err
	}
	return newStreamConn(conn), nil
}

// Close implements socketHandle.
func (h *unixSocketHandle) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = h.file.Close()
	})
	return h.closeErr
}
