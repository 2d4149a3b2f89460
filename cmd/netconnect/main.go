// Command netconnect connects to a tcp://, unix:// or TLS target
// and pipes the standard input and output through the stream.
//
// Usage:
//
//	netconnect [flags] URI
//
// For example:
//
//	echo -ne 'HEAD / HTTP/1.0\r\n\r\n' | netconnect tlsv1.3://example.com:443
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/apex/log"
	"github.com/ooni/netconnect/internal/log/handlers/cli"
)

func main() {
	log.SetHandler(cli.Default)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newCommand(os.Stdin, os.Stdout)
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.WithError(err).Fatal("netconnect failed")
	}
}
