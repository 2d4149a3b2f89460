package config

import (
	"crypto/x509"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/ooni/netconnect/internal/hujsonx"
	"github.com/ooni/netconnect/internal/model"
	"github.com/ooni/netconnect/internal/netxlite"
	"github.com/ooni/netconnect/internal/optional"
	"github.com/pkg/errors"
)

// ReadConfig reads the configuration from the path
func ReadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c, err := ParseConfig(b)
	if err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	c.path = path
	return c, nil
}

// ParseConfig returns config from JSON-with-comments bytes.
func ParseConfig(b []byte) (*Config, error) {
	var c Config

	if err := hujsonx.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrap(err, "parsing json")
	}

	if err := c.Default(); err != nil {
		return nil, errors.Wrap(err, "defaulting")
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating")
	}
	if c.TLS.InsecureSkipVerify {
		log.Warn("TLS certificate verification is disabled.")
	}

	return &c, nil
}

// Config for connecting to targets.
type Config struct {
	// Comment is a free-form comment ignored by the parser.
	Comment string `json:"_"`

	// Resolver is the resolver URL (e.g., "system", "udp://8.8.8.8:53").
	Resolver string `json:"resolver"`

	// Timeout bounds each connect attempt (e.g., "15s").
	Timeout string `json:"timeout"`

	// ClientHello selects the TLS handshaker: "" or "stdlib" for
	// crypto/tls, otherwise the name of a uTLS fingerprint.
	ClientHello string `json:"client_hello"`

	Socket Socket `json:"socket"`
	TLS    TLS    `json:"tls"`

	path string
}

// Path returns the path from which we read the config, if any.
func (c *Config) Path() string {
	return c.path
}

// Default config settings
func (c *Config) Default() error {
	if c.Resolver == "" {
		c.Resolver = "system"
	}
	if c.Timeout == "" {
		c.Timeout = netxlite.DefaultConnectTimeout.String()
	}
	return nil
}

// Validate the config file
func (c *Config) Validate() error {
	if _, err := c.ConnectTimeout(); err != nil {
		return err
	}
	if _, err := netxlite.NewResolverFromURL(model.DiscardLogger, c.Resolver); err != nil {
		return errors.Wrap(err, "resolver")
	}
	if _, err := netxlite.NewTLSHandshakerFromName(model.DiscardLogger, c.ClientHello); err != nil {
		return errors.Wrap(err, "client_hello")
	}
	if err := c.Socket.validate(); err != nil {
		return errors.Wrap(err, "socket")
	}
	if err := c.TLS.validate(); err != nil {
		return errors.Wrap(err, "tls")
	}
	return nil
}

// ConnectTimeout returns the parsed Timeout.
func (c *Config) ConnectTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, errors.Wrap(err, "timeout")
	}
	if timeout <= 0 {
		return 0, errors.Errorf("timeout: expected a positive duration, got %s", c.Timeout)
	}
	return timeout, nil
}

// NewResolver creates the configured resolver.
func (c *Config) NewResolver(logger model.DebugLogger) (model.Resolver, error) {
	return netxlite.NewResolverFromURL(logger, c.Resolver)
}

// NewTLSHandshaker creates the configured TLS handshaker.
func (c *Config) NewTLSHandshaker(logger model.DebugLogger) (model.TLSHandshaker, error) {
	return netxlite.NewTLSHandshakerFromName(logger, c.ClientHello)
}

// DialOptions converts the config to dial options. We only set the
// crypto method and the peer name when the config sets them, so that
// the TLS connector derives them from the target otherwise.
func (c *Config) DialOptions() (*model.DialOptions, error) {
	options := &model.DialOptions{}

	options.Socket.BindTo = c.Socket.BindTo
	options.Socket.NoDelay = c.Socket.NoDelay
	if c.Socket.KeepAlive != "" {
		keepAlive, err := time.ParseDuration(c.Socket.KeepAlive)
		if err != nil {
			return nil, errors.Wrap(err, "socket.keep_alive")
		}
		options.Socket.KeepAlive = keepAlive
	}

	if c.TLS.CryptoMethod != "" {
		method, err := netxlite.LookupCryptoMethod(c.TLS.CryptoMethod)
		if err != nil {
			return nil, errors.Wrap(err, "tls.crypto_method")
		}
		options.TLS.CryptoMethod = optional.Some(method)
	}
	if c.TLS.PeerName != "" {
		options.TLS.PeerName = optional.Some(c.TLS.PeerName)
	}
	if c.TLS.CAFile != "" {
		pool, err := loadCertPool(c.TLS.CAFile)
		if err != nil {
			return nil, err
		}
		options.TLS.RootCAs = pool
	}
	options.TLS.InsecureSkipVerify = c.TLS.InsecureSkipVerify
	options.TLS.NextProtos = append([]string{}, c.TLS.NextProtos...)
	return options, nil
}

// ErrNoCertificates indicates that a CA bundle contains no certificates.
var ErrNoCertificates = errors.New("no PEM certificates found")

// loadCertPool loads a PEM CA bundle from the given file.
func loadCertPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "tls.ca_file")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, errors.Wrapf(ErrNoCertificates, "tls.ca_file %s", path)
	}
	return pool, nil
}
