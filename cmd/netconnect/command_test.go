package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ooni/netconnect/internal/netxlite"
	"github.com/ooni/netconnect/internal/runtimex"
	"github.com/ooni/netconnect/internal/target"
)

// startLineEchoServer starts a server that echoes back a single line
// and then closes the connection.
func startLineEchoServer(t *testing.T, network, address string) net.Listener {
	listener := runtimex.Try1(net.Listen(network, address))
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				line, err := bufio.NewReader(conn).ReadString('\n')
				if err != nil {
					return
				}
				conn.Write([]byte(line))
			}()
		}
	}()
	return listener
}

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	stdout := &bytes.Buffer{}
	cmd := newCommand(strings.NewReader(stdin), stdout)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skip test in short mode")
	}

	t.Run("pipes stdin and stdout over tcp", func(t *testing.T) {
		listener := startLineEchoServer(t, "tcp", "127.0.0.1:0")
		defer listener.Close()
		out, err := runCommand(t, "hello\n", "tcp://"+listener.Addr().String())
		if err != nil {
			t.Fatal(err)
		}
		if out != "hello\n" {
			t.Fatalf("unexpected output %q", out)
		}
	})

	t.Run("pipes stdin and stdout over a bare endpoint", func(t *testing.T) {
		listener := startLineEchoServer(t, "tcp", "127.0.0.1:0")
		defer listener.Close()
		out, err := runCommand(t, "antani\n", "--verbose", "--scrub", listener.Addr().String())
		if err != nil {
			t.Fatal(err)
		}
		if out != "antani\n" {
			t.Fatalf("unexpected output %q", out)
		}
	})

	t.Run("pipes stdin and stdout over unix", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "echo.sock")
		listener := startLineEchoServer(t, "unix", path)
		defer listener.Close()
		out, err := runCommand(t, "mascetti\n", "unix://"+path)
		if err != nil {
			t.Fatal(err)
		}
		if out != "mascetti\n" {
			t.Fatalf("unexpected output %q", out)
		}
	})

	t.Run("probes a TLS server", func(t *testing.T) {
		srvr := httptest.NewTLSServer(http.NotFoundHandler())
		defer srvr.Close()
		endpoint := strings.TrimPrefix(srvr.URL, "https://")
		out, err := runCommand(t, "", "--probe", "--insecure", "--sni", "example.com", "tlsv1.2://"+endpoint)
		if err != nil {
			t.Fatal(err)
		}
		if out != "" {
			t.Fatalf("unexpected output %q", out)
		}
	})

	t.Run("with a refused connection", func(t *testing.T) {
		listener := startLineEchoServer(t, "tcp", "127.0.0.1:0")
		endpoint := listener.Addr().String()
		listener.Close()
		_, err := runCommand(t, "", "--probe", "tcp://"+endpoint)
		var ew *netxlite.ErrWrapper
		if !errors.As(err, &ew) {
			t.Fatal("unexpected error", err)
		}
		if ew.Operation != netxlite.ConnectOperation {
			t.Fatal("unexpected operation", ew.Operation)
		}
	})

	t.Run("with a TLS certificate error", func(t *testing.T) {
		srvr := httptest.NewTLSServer(http.NotFoundHandler())
		defer srvr.Close()
		endpoint := strings.TrimPrefix(srvr.URL, "https://")
		_, err := runCommand(t, "", "--probe", "tls://"+endpoint)
		var ew *netxlite.ErrWrapper
		if !errors.As(err, &ew) {
			t.Fatal("unexpected error", err)
		}
		if ew.Operation != netxlite.TLSHandshakeOperation {
			t.Fatal("unexpected operation", ew.Operation)
		}
	})
}

func TestCommandUsageErrors(t *testing.T) {
	t.Run("without arguments", func(t *testing.T) {
		if _, err := runCommand(t, ""); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("with an invalid URI", func(t *testing.T) {
		_, err := runCommand(t, "", "http://example.com:80")
		if !errors.Is(err, target.ErrUnknownScheme) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("with an invalid resolver", func(t *testing.T) {
		_, err := runCommand(t, "", "--resolver", "https://dns.google/", "tcp://127.0.0.1:80")
		if !errors.Is(err, netxlite.ErrInvalidResolverURL) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("with an invalid client hello", func(t *testing.T) {
		_, err := runCommand(t, "", "--client-hello", "netscape", "tls://127.0.0.1:443")
		if !errors.Is(err, netxlite.ErrUnknownClientHello) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("with a nonexistent config", func(t *testing.T) {
		_, err := runCommand(t, "", "--config", filepath.Join(t.TempDir(), "x.jsonc"), "tcp://127.0.0.1:80")
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}
