package netxlite

//
// uTLS handshaker
//

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sort"

	"github.com/ooni/netconnect/internal/model"
	utls "gitlab.com/yawning/utls.git"
)

// NewTLSHandshakerUTLS creates a new TLS handshaker using
// gitlab.com/yawning/utls.git for TLS and mimicking the given
// ClientHello fingerprint.
//
// The handshaker guarantees:
//
// 1. logging
//
// 2. error wrapping
//
// The ClientHello fingerprint determines the TLS versions we offer, so
// the server may negotiate a version outside the config's MinVersion and
// MaxVersion. The TLSConnector rejects such handshakes.
func NewTLSHandshakerUTLS(logger model.DebugLogger, id *utls.ClientHelloID) model.TLSHandshaker {
	return newTLSHandshaker(&tlsHandshakerConfigurable{
		NewConn: newConnUTLS(id),
	}, logger)
}

// utlsClientHellos maps names to uTLS ClientHello fingerprints.
var utlsClientHellos = map[string]*utls.ClientHelloID{
	"chrome":     &utls.HelloChrome_Auto,
	"firefox":    &utls.HelloFirefox_Auto,
	"golang":     &utls.HelloGolang,
	"randomized": &utls.HelloRandomized,
}

// UTLSClientHelloNames returns the sorted names accepted by NewTLSHandshakerFromName.
func UTLSClientHelloNames() []string {
	var out []string
	for name := range utlsClientHellos {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NewTLSHandshakerFromName returns the stdlib handshaker when name
// is empty or "stdlib" and otherwise the uTLS handshaker using the
// ClientHello fingerprint with the given name.
func NewTLSHandshakerFromName(logger model.DebugLogger, name string) (model.TLSHandshaker, error) {
	if name == "" || name == "stdlib" {
		return NewTLSHandshakerStdlib(logger), nil
	}
	id, found := utlsClientHellos[name]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClientHello, name)
	}
	return NewTLSHandshakerUTLS(logger, id), nil
}

// ErrUnknownClientHello indicates that we don't know a ClientHello fingerprint.
var ErrUnknownClientHello = errors.New("unknown ClientHello fingerprint")

// ErrUTLSHandshakePanic indicates that there was panic handshaking
// when we were using the yawning/utls library for parroting.
var ErrUTLSHandshakePanic = errors.New("utls: handshake panic")

// utlsConn implements tlsHandshakeConn using uTLS.
type utlsConn struct {
	*utls.UConn

	// testableHandshake allows to override the handshake in tests.
	testableHandshake func() error
}

var _ tlsHandshakeConn = &utlsConn{}

// newConnUTLS returns a NewConn function for creating utlsConn instances.
func newConnUTLS(id *utls.ClientHelloID) func(conn net.Conn, config *tls.Config) (tlsHandshakeConn, error) {
	return func(conn net.Conn, config *tls.Config) (tlsHandshakeConn, error) {
		return newUTLSConn(conn, config, id), nil
	}
}

func newUTLSConn(conn net.Conn, config *tls.Config, id *utls.ClientHelloID) *utlsConn {
	uConfig := &utls.Config{
		RootCAs:            config.RootCAs,
		NextProtos:         config.NextProtos,
		ServerName:         config.ServerName,
		InsecureSkipVerify: config.InsecureSkipVerify,
		MinVersion:         config.MinVersion,
		MaxVersion:         config.MaxVersion,
	}
	return &utlsConn{UConn: utls.UClient(conn, uConfig, *id)}
}

// HandshakeContext implements tlsHandshakeConn. The uTLS library does not
// know about contexts, so we run the handshake in a background goroutine
// and we return early when the context is done. The caller is expected
// to close the conn in such a case, which unblocks the goroutine.
func (c *utlsConn) HandshakeContext(ctx context.Context) error {
	errch := make(chan error, 1)
	go func() {
		defer func() {
			// The uTLS library may panic on some malformed server
			// responses, so we convert a panic into an error.
			if r := recover(); r != nil {
				errch <- fmt.Errorf("%w: %+v", ErrUTLSHandshakePanic, r)
			}
		}()
		errch <- c.handshakefn()()
	}()
	select {
	case err := <-errch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *utlsConn) handshakefn() func() error {
	if c.testableHandshake != nil {
		return c.testableHandshake
	}
	return c.UConn.Handshake
}

// ConnectionState implements tlsHandshakeConn.
func (c *utlsConn) ConnectionState() tls.ConnectionState {
	uState := c.Conn.ConnectionState()
	return tls.ConnectionState{
		Version:            uState.Version,
		HandshakeComplete:  uState.HandshakeComplete,
		DidResume:          uState.DidResume,
		CipherSuite:        uState.CipherSuite,
		NegotiatedProtocol: uState.NegotiatedProtocol,
		ServerName:         uState.ServerName,
		PeerCertificates:   uState.PeerCertificates,
		VerifiedChains:     uState.VerifiedChains,
	}
}
