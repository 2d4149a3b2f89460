package netxlite

//
// Plain connector
//

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/ooni/netconnect/internal/model"
)

// NewConnector creates a connector for tcp:// and unix:// targets using
// the given logger and resolver. A nil resolver means that we use the
// system resolver. The returned connector logs each connect attempt.
func NewConnector(logger model.DebugLogger, resolver model.Resolver) model.Connector {
	logger = validDebugLogger(logger)
	return &connectorLogger{
		Connector: &PlainConnector{
			Logger:   logger,
			Resolver: resolver,
		},
		Logger: logger,
	}
}

// DefaultConnectTimeout is the default timeout used by PlainConnector.
const DefaultConnectTimeout = 15 * time.Second

// PlainConnector connects to tcp:// and unix:// targets and returns
// a plain stream. The zero value is ready to use.
type PlainConnector struct {
	// Logger is the OPTIONAL logger. If nil, we don't log.
	Logger model.DebugLogger

	// Resolver is the OPTIONAL resolver used to map domain names to
	// IP addresses. If nil, we use the system resolver.
	Resolver model.Resolver

	// Timeout is the OPTIONAL timeout bounding the whole connect
	// attempt. If zero or negative, we use DefaultConnectTimeout.
	Timeout time.Duration

	// sockets is the OPTIONAL socketConnector. If nil, we use the
	// platform's default socketConnector.
	sockets socketConnector
}

var _ model.Connector = &PlainConnector{}

// Connect implements model.Connector. The returned error is an
// *UnsupportedSchemeError when the scheme is neither tcp nor unix, and
// otherwise an *ErrWrapper whose Operation tells which step failed.
func (c *PlainConnector) Connect(
	ctx context.Context, target *model.Target, options *model.DialOptions) (net.Conn, error) {
	var network string
	switch target.Scheme {
	case model.SchemeTCP, model.SchemeUnix:
		network = target.Scheme
	default:
		return nil, &UnsupportedSchemeError{Scheme: target.Scheme}
	}
	if options == nil {
		options = &model.DialOptions{}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	address, err := c.resolve(ctx, target)
	if err != nil {
		return nil, NewErrWrapper(classifyResolverError, ResolveOperation, err)
	}

	c.logger().Debugf("connect %s/%s: connecting", address, network)
	handle, err := c.socketConnector().Connect(ctx, network, address, &options.Socket)
	if err != nil {
		return nil, NewErrWrapper(classifyConnectError, ConnectOperation,
			&DialError{Address: address, Err: err})
	}
	if err := handle.WaitWritable(ctx); err != nil {
		handle.Close()
		return nil, NewErrWrapper(classifyConnectError, ConnectOperation, err)
	}
	result, cause := classifyConnect(handle)
	c.logger().Debugf("connect %s/%s: %s", address, network, result)
	if result == connectRefused {
		handle.Close()
		return nil, NewErrWrapper(classifyConnectError, ConnectOperation,
			&ConnectionRefusedError{Address: address, Err: cause})
	}
	conn, err := handle.Stream(&options.Socket)
	if err != nil {
		handle.Close()
		return nil, NewErrWrapper(classifyConnectError, ConnectOperation, err)
	}
	return conn, nil
}

// resolve returns the address to connect to. We only invoke the resolver
// for tcp targets whose host is not a literal IP address, and we use the
// first address it returns.
func (c *PlainConnector) resolve(ctx context.Context, target *model.Target) (string, error) {
	if target.Scheme == model.SchemeUnix {
		return target.Path, nil
	}
	if _, err := netip.ParseAddr(target.Host); err == nil {
		return target.Address(), nil
	}
	c.logger().Debugf("connect %s: resolving %s", target, target.Host)
	addrs, err := c.resolver().LookupHost(ctx, target.Host)
	if err != nil {
		return "", err
	}
	if len(addrs) <= 0 {
		return "", ErrDNSNoAnswer
	}
	return target.WithHost(addrs[0]).Address(), nil
}

func (c *PlainConnector) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultConnectTimeout
}

func (c *PlainConnector) logger() model.DebugLogger {
	return validDebugLogger(c.Logger)
}

// validDebugLogger returns DiscardLogger when logger is nil.
func validDebugLogger(logger model.DebugLogger) model.DebugLogger {
	if logger != nil {
		return logger
	}
	return model.DiscardLogger
}

func (c *PlainConnector) resolver() model.Resolver {
	if c.Resolver != nil {
		return c.Resolver
	}
	return &resolverSystem{}
}

func (c *PlainConnector) socketConnector() socketConnector {
	if c.sockets != nil {
		return c.sockets
	}
	return newSocketConnector()
}

// connectorLogger is a model.Connector with logging.
type connectorLogger struct {
	// Connector is the underlying connector.
	Connector model.Connector

	// Logger is the underlying logger.
	Logger model.DebugLogger
}

var _ model.Connector = &connectorLogger{}

// Connect implements model.Connector.
func (c *connectorLogger) Connect(
	ctx context.Context, target *model.Target, options *model.DialOptions) (net.Conn, error) {
	c.Logger.Debugf("connect %s...", target)
	start := time.Now()
	conn, err := c.Connector.Connect(ctx, target, options)
	elapsed := time.Since(start)
	if err != nil {
		c.Logger.Debugf("connect %s... %s in %s", target, err, elapsed)
		return nil, err
	}
	c.Logger.Debugf("connect %s... ok in %s", target, elapsed)
	return conn, nil
}
