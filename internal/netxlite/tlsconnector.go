package netxlite

//
// TLS connector
//

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/ooni/netconnect/internal/model"
	"github.com/ooni/netconnect/internal/optional"
	"github.com/ooni/netconnect/internal/runtimex"
)

// NewTLSConnector creates a connector for TLS-variant targets (e.g.,
// tls://, tlsv1.2://) that obtains a plain stream from connector
// and upgrades it using handshaker.
func NewTLSConnector(
	connector model.Connector, handshaker model.TLSHandshaker, logger model.DebugLogger) *TLSConnector {
	runtimex.PanicIfNil(connector, "nil connector")
	runtimex.PanicIfNil(handshaker, "nil handshaker")
	return &TLSConnector{
		Connector:  connector,
		Handshaker: handshaker,
		Logger:     validDebugLogger(logger),
		methods:    newCryptoMethodTable(),
	}
}

// TLSConnector connects to TLS-variant targets. Construct using NewTLSConnector.
type TLSConnector struct {
	// Connector is the MANDATORY connector for the plain stream.
	Connector model.Connector

	// Handshaker is the MANDATORY TLS handshaker.
	Handshaker model.TLSHandshaker

	// Logger is the MANDATORY logger.
	Logger model.DebugLogger

	// methods maps schemes to crypto methods.
	methods cryptoMethodTable
}

var _ model.Connector = &TLSConnector{}

// Connect implements model.Connector. On success, the returned conn
// implements TLSConn. Without an explicit crypto method, a scheme that
// does not select a supported one fails with *UnsupportedSchemeError
// before any I/O.
//
// If the TLS handshake fails, we close the plain stream and we
// return the handshake error.
func (c *TLSConnector) Connect(
	ctx context.Context, target *model.Target, options *model.DialOptions) (net.Conn, error) {
	derived, err := c.tlsDialOptions(target, options)
	if err != nil {
		return nil, err
	}
	plainTarget := target.WithScheme(model.SchemeTCP)
	c.Logger.Debugf("connect %s: plain connect to %s", target, plainTarget)
	conn, err := c.Connector.Connect(ctx, plainTarget, derived)
	if err != nil {
		return nil, err
	}
	config := newTLSConfig(&derived.TLS)
	c.Logger.Debugf("connect %s: handshaking with %s", target, derived.TLS.CryptoMethod.Unwrap().Name)
	tlsconn, state, err := c.Handshaker.Handshake(ctx, conn, config)
	if err != nil {
		conn.Close() // the handshake error is what matters here
		return nil, NewErrWrapper(classifyTLSHandshakeError, TLSHandshakeOperation, err)
	}
	if err := checkNegotiatedVersion(derived.TLS.CryptoMethod.Unwrap(), state.Version); err != nil {
		tlsconn.Close() // also closes the plain conn
		return nil, NewErrWrapper(classifyTLSHandshakeError, TLSHandshakeOperation, err)
	}
	return newTLSStreamConn(tlsconn, state), nil
}

// checkNegotiatedVersion fails when the negotiated version is outside
// the range selected by the crypto method. Handshakers mimicking a
// ClientHello fingerprint offer the fingerprint's versions, so we
// need to enforce the range after the handshake.
func checkNegotiatedVersion(method model.CryptoMethod, version uint16) error {
	if version < method.MinVersion || (method.MaxVersion != 0 && version > method.MaxVersion) {
		return &TLSVersionMismatchError{Method: method.Name, Version: version}
	}
	return nil
}

// tlsDialOptions returns a copy of options where the crypto method and
// the peer name are set. We never override values set by the caller, so
// we only map the scheme to a crypto method when the caller did not
// select one explicitly.
func (c *TLSConnector) tlsDialOptions(
	target *model.Target, options *model.DialOptions) (*model.DialOptions, error) {
	derived := &model.DialOptions{}
	if options != nil {
		*derived = *options
	}
	if derived.TLS.CryptoMethod.IsNone() {
		method, found := c.methods.Lookup(target.Scheme)
		if !found {
			return nil, &UnsupportedSchemeError{Scheme: target.Scheme}
		}
		derived.TLS.CryptoMethod = optional.Some(method)
	}
	if derived.TLS.PeerName.IsNone() {
		derived.TLS.PeerName = optional.Some(target.Host)
	}
	return derived, nil
}

// newTLSConfig creates the *tls.Config for the handshaker. The options
// MUST contain a crypto method and a peer name.
func newTLSConfig(options *model.TLSOptions) *tls.Config {
	method := options.CryptoMethod.Unwrap()
	config := &tls.Config{
		ServerName:         options.PeerName.Unwrap(),
		MinVersion:         method.MinVersion,
		MaxVersion:         method.MaxVersion,
		RootCAs:            options.RootCAs,
		InsecureSkipVerify: options.InsecureSkipVerify,
	}
	if len(options.NextProtos) > 0 {
		config.NextProtos = append([]string{}, options.NextProtos...)
	}
	return config
}
