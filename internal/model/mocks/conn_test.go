package mocks

import (
	"errors"
	"net"
	"testing"
	"time"
)

func TestConn(t *testing.T) {
	t.Run("Read", func(t *testing.T) {
		expected := errors.New("mocked error")
		c := &Conn{
			MockRead: func(b []byte) (int, error) {
				return 0, expected
			},
		}
		count, err := c.Read(make([]byte, 128))
		if !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
		if count != 0 {
			t.Fatal("expected 0 bytes")
		}
	})

	t.Run("Write", func(t *testing.T) {
		expected := errors.New("mocked error")
		c := &Conn{
			MockWrite: func(b []byte) (int, error) {
				return 0, expected
			},
		}
		count, err := c.Write(make([]byte, 128))
		if !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
		if count != 0 {
			t.Fatal("expected 0 bytes")
		}
	})

	t.Run("Close", func(t *testing.T) {
		expected := errors.New("mocked error")
		c := &Conn{
			MockClose: func() error {
				return expected
			},
		}
		if err := c.Close(); !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
	})

	t.Run("LocalAddr and RemoteAddr", func(t *testing.T) {
		expected := &net.TCPAddr{IP: net.IPv6loopback, Port: 1234}
		c := &Conn{
			MockLocalAddr: func() net.Addr {
				return expected
			},
			MockRemoteAddr: func() net.Addr {
				return expected
			},
		}
		if c.LocalAddr() != expected || c.RemoteAddr() != expected {
			t.Fatal("not the result we expected")
		}
	})

	t.Run("deadlines", func(t *testing.T) {
		expected := errors.New("mocked error")
		c := &Conn{
			MockSetDeadline: func(t time.Time) error {
				return expected
			},
			MockSetReadDeadline: func(t time.Time) error {
				return expected
			},
			MockSetWriteDeadline: func(t time.Time) error {
				return expected
			},
		}
		if err := c.SetDeadline(time.Time{}); !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
		if err := c.SetReadDeadline(time.Time{}); !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
		if err := c.SetWriteDeadline(time.Time{}); !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
	})
}

func TestAddr(t *testing.T) {
	a := &Addr{
		MockString: func() string {
			return "1.2.3.4:80"
		},
		MockNetwork: func() string {
			return "tcp"
		},
	}
	if a.String() != "1.2.3.4:80" || a.Network() != "tcp" {
		t.Fatal("not the result we expected")
	}
}
