//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package netxlite

import (
	"context"
	"errors"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ooni/netconnect/internal/model"
	"golang.org/x/sys/unix"
)

// newEchoListener starts an echo server on the given network and address.
func newEchoListener(t *testing.T, network, address string) net.Listener {
	listener, err := net.Listen(network, address)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { listener.Close() })
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				io.Copy(conn, conn)
			}()
		}
	}()
	return listener
}

// checkEcho writes to conn and expects to read back the same bytes.
func checkEcho(t *testing.T, conn net.Conn) {
	const message = "hello, world"
	if _, err := conn.Write([]byte(message)); err != nil {
		t.Fatal(err)
	}
	buffer := make([]byte, len(message))
	if _, err := io.ReadFull(conn, buffer); err != nil {
		t.Fatal(err)
	}
	if string(buffer) != message {
		t.Fatal("unexpected echo", string(buffer))
	}
}

func TestUnixSocketConnector(t *testing.T) {
	if testing.Short() {
		t.Skip("skip test in short mode")
	}

	t.Run("for a TCP endpoint with a listener", func(t *testing.T) {
		listener := newEchoListener(t, "tcp", "127.0.0.1:0")
		sc := &unixSocketConnector{}
		handle, err := sc.Connect(context.Background(), "tcp", listener.Addr().String(), &model.SocketOptions{})
		if err != nil {
			t.Fatal(err)
		}
		defer handle.Close()
		if err := handle.WaitWritable(context.Background()); err != nil {
			t.Fatal(err)
		}
		result, err := classifyConnect(handle)
		if result != connectConnected || err != nil {
			t.Fatal("unexpected result", result, err)
		}
		conn, err := handle.Stream(&model.SocketOptions{})
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()
		if _, ok := conn.(*streamConn).Conn.(*net.TCPConn); !ok {
			t.Fatal("expected a *net.TCPConn")
		}
		checkEcho(t, conn)
		if err := handle.Close(); err != nil {
			t.Fatal("closing the handle after Stream should be a no-op", err)
		}
	})

	t.Run("for a TCP endpoint without a listener", func(t *testing.T) {
		listener := newEchoListener(t, "tcp", "127.0.0.1:0")
		address := listener.Addr().String()
		listener.Close()
		sc := &unixSocketConnector{}
		handle, err := sc.Connect(context.Background(), "tcp", address, &model.SocketOptions{})
		if err != nil {
			// some systems refuse loopback connections immediately
			if !errors.Is(err, unix.ECONNREFUSED) {
				t.Fatal("unexpected error", err)
			}
			return
		}
		defer handle.Close()
		if err := handle.WaitWritable(context.Background()); err != nil {
			t.Fatal(err)
		}
		result, err := classifyConnect(handle)
		if result != connectRefused {
			t.Fatal("unexpected result", result)
		}
		if !errors.Is(err, unix.ECONNREFUSED) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("for a unix-domain socket", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "echo.sock")
		newEchoListener(t, "unix", path)
		sc := &unixSocketConnector{}
		handle, err := sc.Connect(context.Background(), "unix", path, &model.SocketOptions{})
		if err != nil {
			t.Fatal(err)
		}
		defer handle.Close()
		if err := handle.WaitWritable(context.Background()); err != nil {
			t.Fatal(err)
		}
		if result, err := classifyConnect(handle); result != connectConnected {
			t.Fatal("unexpected result", result, err)
		}
		conn, err := handle.Stream(&model.SocketOptions{})
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()
		checkEcho(t, conn)
	})

	t.Run("for a missing unix-domain socket", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.sock")
		sc := &unixSocketConnector{}
		handle, err := sc.Connect(context.Background(), "unix", path, &model.SocketOptions{})
		if !errors.Is(err, unix.ENOENT) {
			t.Fatal("unexpected error", err)
		}
		if handle != nil {
			t.Fatal("expected nil handle")
		}
	})

	t.Run("for a domain name instead of an IP address", func(t *testing.T) {
		sc := &unixSocketConnector{}
		_, err := sc.Connect(context.Background(), "tcp", "example.com:80", &model.SocketOptions{})
		if !errors.Is(err, errNotLiteralEndpoint) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("for an unsupported network", func(t *testing.T) {
		sc := &unixSocketConnector{}
		_, err := sc.Connect(context.Background(), "udp", "127.0.0.1:53", &model.SocketOptions{})
		if !errors.Is(err, unix.EPROTONOSUPPORT) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("with BindTo", func(t *testing.T) {
		listener := newEchoListener(t, "tcp", "127.0.0.1:0")
		sc := &unixSocketConnector{}
		options := &model.SocketOptions{BindTo: "127.0.0.1"}
		handle, err := sc.Connect(context.Background(), "tcp", listener.Addr().String(), options)
		if err != nil {
			t.Fatal(err)
		}
		defer handle.Close()
		if err := handle.WaitWritable(context.Background()); err != nil {
			t.Fatal(err)
		}
		if result, err := classifyConnect(handle); result != connectConnected {
			t.Fatal("unexpected result", result, err)
		}
	})

	t.Run("with BindTo using the wrong address family", func(t *testing.T) {
		sc := &unixSocketConnector{}
		options := &model.SocketOptions{BindTo: "[::1]:0"}
		_, err := sc.Connect(context.Background(), "tcp", "127.0.0.1:80", options)
		if !errors.Is(err, unix.EAFNOSUPPORT) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("WaitWritable with a canceled context", func(t *testing.T) {
		listener := newEchoListener(t, "tcp", "127.0.0.1:0")
		sc := &unixSocketConnector{}
		handle, err := sc.Connect(context.Background(), "tcp", listener.Addr().String(), &model.SocketOptions{})
		if err != nil {
			t.Fatal(err)
		}
		defer handle.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := handle.WaitWritable(ctx); !errors.Is(err, context.Canceled) {
			t.Fatal("unexpected error", err)
		}
	})
}

// newPendingHandle connects to address and returns a handle for which
// WaitWritable goes through the poller even if connect(2) completed.
func newPendingHandle(t *testing.T, network, address string) *unixSocketHandle {
	sc := &unixSocketConnector{}
	handle, err := sc.Connect(context.Background(), network, address, &model.SocketOptions{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { handle.Close() })
	uh := handle.(*unixSocketHandle)
	uh.connected = false
	return uh
}

func TestUnixSocketHandleReadyBeforeWaiting(t *testing.T) {
	if testing.Short() {
		t.Skip("skip test in short mode")
	}

	for _, network := range []string{"tcp", "unix"} {
		t.Run("connected "+network+" socket", func(t *testing.T) {
			address := "127.0.0.1:0"
			if network == "unix" {
				address = filepath.Join(t.TempDir(), "echo.sock")
			}
			listener := newEchoListener(t, network, address)
			handle := newPendingHandle(t, network, listener.Addr().String())
			time.Sleep(50 * time.Millisecond)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			start := time.Now()
			if err := handle.WaitWritable(ctx); err != nil {
				t.Fatal(err, "after", time.Since(start))
			}
			if result, err := classifyConnect(handle); result != connectConnected {
				t.Fatal("unexpected result", result, err)
			}
		})
	}

	t.Run("refused tcp socket", func(t *testing.T) {
		listener := newEchoListener(t, "tcp", "127.0.0.1:0")
		address := listener.Addr().String()
		listener.Close()
		sc := &unixSocketConnector{}
		handle, err := sc.Connect(context.Background(), "tcp", address, &model.SocketOptions{})
		if err != nil {
			if !errors.Is(err, unix.ECONNREFUSED) {
				t.Fatal("unexpected error", err)
			}
			return
		}
		defer handle.Close()
		time.Sleep(50 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := handle.WaitWritable(ctx); err != nil {
			t.Fatal(err)
		}
		result, err := classifyConnect(handle)
		if result != connectRefused {
			t.Fatal("unexpected result", result)
		}
		if !errors.Is(err, unix.ECONNREFUSED) {
			t.Fatal("unexpected error", err)
		}
	})
}

func TestPlainConnectorConcurrentConnects(t *testing.T) {
	if testing.Short() {
		t.Skip("skip test in short mode")
	}

	const attempts = 200
	for _, network := range []string{"tcp", "unix"} {
		t.Run(network, func(t *testing.T) {
			var target *model.Target
			if network == "unix" {
				path := filepath.Join(t.TempDir(), "echo.sock")
				newEchoListener(t, "unix", path)
				target = &model.Target{Scheme: "unix", Path: path}
			} else {
				listener := newEchoListener(t, "tcp", "127.0.0.1:0")
				port := listener.Addr().(*net.TCPAddr).Port
				target = &model.Target{Scheme: "tcp", Host: "127.0.0.1", Port: uint16(port)}
			}
			c := &PlainConnector{Timeout: 5 * time.Second}
			errch := make(chan error, attempts)
			wg := &sync.WaitGroup{}
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					conn, err := c.Connect(context.Background(), target, nil)
					if err != nil {
						errch <- err
						return
					}
					conn.Close()
				}()
			}
			wg.Wait()
			close(errch)
			var failures int
			for err := range errch {
				failures++
				t.Log(err)
			}
			if failures > 0 {
				t.Fatal("unexpected number of failures", failures)
			}
		})
	}
}
