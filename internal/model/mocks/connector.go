package mocks

import (
	"context"
	"net"

	"github.com/ooni/netconnect/internal/model"
)

// Connector is a mockable model.Connector.
type Connector struct {
	MockConnect func(ctx context.Context, target *model.Target, options *model.DialOptions) (net.Conn, error)
}

var _ model.Connector = &Connector{}

// Connect calls MockConnect.
func (c *Connector) Connect(ctx context.Context, target *model.Target, options *model.DialOptions) (net.Conn, error) {
	return c.MockConnect(ctx, target, options)
}
