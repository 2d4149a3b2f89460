package config

import (
	"time"

	"github.com/ooni/netconnect/internal/netxlite"
	"github.com/ooni/netconnect/internal/optional"
	"github.com/pkg/errors"
)

// Socket settings
type Socket struct {
	// BindTo is the local IP or IP:port to bind to before connecting.
	BindTo string `json:"bind_to"`

	// NoDelay overrides TCP_NODELAY when set.
	NoDelay optional.Value[bool] `json:"no_delay"`

	// KeepAlive is the keep-alive period (e.g., "30s"). A negative
	// duration disables keep-alives.
	KeepAlive string `json:"keep_alive"`
}

func (s *Socket) validate() error {
	if s.KeepAlive != "" {
		if _, err := time.ParseDuration(s.KeepAlive); err != nil {
			return errors.Wrap(err, "keep_alive")
		}
	}
	return nil
}

// TLS settings
type TLS struct {
	// PeerName overrides the SNI and the name to verify.
	PeerName string `json:"peer_name"`

	// CryptoMethod forces a crypto method (e.g., "tlsv1.2") regardless
	// of the target scheme.
	CryptoMethod string `json:"crypto_method"`

	// CAFile is the path of a PEM bundle replacing the system CAs.
	CAFile string `json:"ca_file"`

	// InsecureSkipVerify disables certificate verification.
	InsecureSkipVerify bool `json:"insecure_skip_verify"`

	// NextProtos is the ALPN list.
	NextProtos []string `json:"next_protos"`
}

func (t *TLS) validate() error {
	if t.CryptoMethod != "" {
		if _, err := netxlite.LookupCryptoMethod(t.CryptoMethod); err != nil {
			return errors.Wrap(err, "crypto_method")
		}
	}
	return nil
}
