package main

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/apex/log"
	"github.com/ooni/netconnect/config"
	"github.com/ooni/netconnect/internal/model"
	"github.com/ooni/netconnect/internal/netxlite"
	"github.com/ooni/netconnect/internal/scrubber"
	"github.com/ooni/netconnect/internal/target"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// options contains the command line options.
type options struct {
	configPath  string
	resolver    string
	sni         string
	clientHello string
	timeout     string
	insecure    bool
	verbose     bool
	scrub       bool
	probe       bool
}

// newCommand creates the root command reading from stdin and writing to stdout.
func newCommand(stdin io.Reader, stdout io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "netconnect [flags] URI",
		Short:         "Connect to tcp://, unix:// and TLS targets",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context(), args[0], stdin, stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path of the JSON-with-comments config file")
	flags.StringVar(&opts.resolver, "resolver", "", "Resolver URL (e.g., system, udp://8.8.8.8:53)")
	flags.StringVar(&opts.sni, "sni", "", "Override the TLS peer name")
	flags.StringVar(&opts.clientHello, "client-hello", "", "TLS ClientHello: stdlib or a uTLS fingerprint")
	flags.StringVar(&opts.timeout, "timeout", "", "Connect timeout (e.g., 10s)")
	flags.BoolVarP(&opts.insecure, "insecure", "k", false, "Skip TLS certificate verification")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Emit debug messages")
	flags.BoolVar(&opts.scrub, "scrub", false, "Remove IP addresses from logs")
	flags.BoolVar(&opts.probe, "probe", false, "Connect, print the connection state and exit")

	return cmd
}

// loadConfig loads the config file, if any, and applies the flags.
func (opts *options) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.ReadConfig(opts.configPath)
	} else {
		cfg, err = config.ParseConfig([]byte("{}"))
	}
	if err != nil {
		return nil, err
	}
	if opts.resolver != "" {
		cfg.Resolver = opts.resolver
	}
	if opts.sni != "" {
		cfg.TLS.PeerName = opts.sni
	}
	if opts.clientHello != "" {
		cfg.ClientHello = opts.clientHello
	}
	if opts.timeout != "" {
		cfg.Timeout = opts.timeout
	}
	if opts.insecure {
		cfg.TLS.InsecureSkipVerify = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, pkgerrors.Wrap(err, "invalid flags")
	}
	return cfg, nil
}

// logger returns the logger to use.
func (opts *options) logger() model.Logger {
	if opts.verbose {
		log.SetLevel(log.DebugLevel)
	}
	var logger model.Logger = log.Log
	if opts.scrub {
		logger = &scrubber.Logger{Logger: logger}
	}
	return logger
}

func (opts *options) run(ctx context.Context, uri string, stdin io.Reader, stdout io.Writer) error {
	logger := opts.logger()

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	tgt, err := target.Parse(uri)
	if err != nil {
		return err
	}
	dialOptions, err := cfg.DialOptions()
	if err != nil {
		return err
	}
	timeout, err := cfg.ConnectTimeout()
	if err != nil {
		return err
	}
	resolver, err := cfg.NewResolver(logger)
	if err != nil {
		return err
	}
	defer resolver.CloseIdleConnections()
	handshaker, err := cfg.NewTLSHandshaker(logger)
	if err != nil {
		return err
	}
	connector := netxlite.NewConnectorStack(logger, resolver, handshaker)

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := connector.Connect(connectCtx, tgt, dialOptions)
	if err != nil {
		opts.logFailure(err)
		return pkgerrors.Wrapf(err, "cannot connect to %s", tgt)
	}
	defer conn.Close()

	opts.logConnectionState(tgt, conn)
	if opts.probe {
		return nil
	}
	return pipe(ctx, conn, stdin, stdout)
}

// logFailure logs the failure and the operation that failed.
func (opts *options) logFailure(err error) {
	var ew *netxlite.ErrWrapper
	if !errors.As(err, &ew) {
		return
	}
	log.WithFields(log.Fields{
		"failure":   opts.maybeScrub(ew.Failure),
		"operation": ew.Operation,
	}).Warn("connect failed")
}

// logConnectionState prints a table describing the connection.
func (opts *options) logConnectionState(tgt *model.Target, conn net.Conn) {
	fields := log.Fields{
		"type":   "table",
		"target": opts.maybeScrub(tgt.String()),
		"local":  opts.maybeScrub(conn.LocalAddr().String()),
		"remote": opts.maybeScrub(conn.RemoteAddr().String()),
	}
	if tlsconn, ok := conn.(netxlite.TLSConn); ok {
		state := tlsconn.ConnectionState()
		fields["tls_version"] = netxlite.TLSVersionString(state.Version)
		fields["cipher_suite"] = netxlite.TLSCipherSuiteString(state.CipherSuite)
		fields["alpn"] = state.NegotiatedProtocol
		fields["server_name"] = state.ServerName
	}
	log.WithFields(fields).Info("connected")
}

func (opts *options) maybeScrub(s string) string {
	if opts.scrub {
		return scrubber.Scrub(s)
	}
	return s
}

// pipe copies stdin to conn and conn to stdout until the peer closes
// the connection or ctx is done.
func pipe(ctx context.Context, conn net.Conn, stdin io.Reader, stdout io.Writer) error {
	go func() {
		_, err := netxlite.CopyContext(ctx, conn, stdin)
		log.Debugf("pipe: stdin done: %s", model.ErrorToStringOrOK(err))
	}()
	_, err := netxlite.CopyContext(ctx, stdout, conn)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
