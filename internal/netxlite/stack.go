package netxlite

import (
	"context"
	"net"

	"github.com/ooni/netconnect/internal/model"
)

// NewConnectorStack returns a connector routing tcp:// and unix:// targets
// to a plain connector using resolver and TLS-variant targets (e.g., tls://,
// tlsv1.2://) to a TLS connector using handshaker on top of it. A nil
// resolver means the system resolver and a nil handshaker means the
// stdlib handshaker.
func NewConnectorStack(
	logger model.DebugLogger, resolver model.Resolver, handshaker model.TLSHandshaker) model.Connector {
	logger = validDebugLogger(logger)
	if resolver == nil {
		resolver = NewResolverStdlib(logger)
	}
	if handshaker == nil {
		handshaker = NewTLSHandshakerStdlib(logger)
	}
	plain := &PlainConnector{Logger: logger, Resolver: resolver}
	return &connectorLogger{
		Connector: &connectorRouter{
			Plain:  plain,
			Secure: NewTLSConnector(plain, handshaker, logger),
		},
		Logger: logger,
	}
}

// connectorRouter dispatches connect requests by scheme.
type connectorRouter struct {
	Plain  model.Connector
	Secure model.Connector
}

var _ model.Connector = &connectorRouter{}

// Connect implements model.Connector.
func (r *connectorRouter) Connect(
	ctx context.Context, target *model.Target, options *model.DialOptions) (net.Conn, error) {
	switch target.Scheme {
	case model.SchemeTCP, model.SchemeUnix:
		return r.Plain.Connect(ctx, target, options)
	default:
		return r.Secure.Connect(ctx, target, options)
	}
}
