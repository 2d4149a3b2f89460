// Package target parses the URIs describing where to connect.
//
// We accept these forms:
//
//	tcp://example.com:80
//	tls://example.com:443
//	tlsv1.2://[2001:db8::1]:443
//	unix:///var/run/example.sock
//	example.com:80
//
// where the last form is equivalent to the tcp:// one.
package target

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"strings"

	"github.com/ooni/netconnect/internal/idnax"
	"github.com/ooni/netconnect/internal/model"
)

// ErrURLParse indicates that we could not parse the URI.
var ErrURLParse = errors.New("target: cannot parse URI")

// ErrUnknownScheme indicates that the URI scheme is not one we know.
var ErrUnknownScheme = errors.New("target: unknown URI scheme")

// ErrEmptyHostname indicates that a TCP-family URI has no host.
var ErrEmptyHostname = errors.New("target: empty hostname")

// ErrInvalidPort indicates that the port is missing or invalid.
var ErrInvalidPort = errors.New("target: missing or invalid port")

// ErrInvalidPath indicates that the URI contains an unexpected path
// or that a unix URI does not contain an absolute path.
var ErrInvalidPath = errors.New("target: invalid path")

// ErrIDNAToASCII indicates that we cannot convert IDNA to ASCII.
var ErrIDNAToASCII = errors.New("target: cannot convert IDNA to ASCII")

// tlsSchemes lists the TLS-variant schemes. Whether a connector supports
// a given variant is something we only know when connecting.
var tlsSchemes = []string{
	"ssl",
	"sslv2",
	"sslv3",
	"tls",
	"tlsv1.0",
	"tlsv1.1",
	"tlsv1.2",
	"tlsv1.3",
}

// IsKnownScheme returns whether scheme is tcp, unix, or a TLS variant.
func IsKnownScheme(scheme string) bool {
	switch scheme {
	case model.SchemeTCP, model.SchemeUnix:
		return true
	}
	for _, s := range tlsSchemes {
		if s == scheme {
			return true
		}
	}
	return false
}

// Parse parses the given URI and returns the corresponding target.
func Parse(input string) (*model.Target, error) {
	if !strings.Contains(input, "://") {
		// A bare endpoint would not survive url.Parse when the host
		// is an IP address, so we handle it separately.
		return parseEndpoint(model.SchemeTCP, input)
	}
	URL, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrURLParse, err.Error())
	}
	scheme := strings.ToLower(URL.Scheme)
	if !IsKnownScheme(scheme) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, URL.Scheme)
	}
	if URL.User != nil || URL.RawQuery != "" || URL.Fragment != "" {
		return nil, fmt.Errorf("%w: unexpected userinfo, query or fragment", ErrURLParse)
	}
	if scheme == model.SchemeUnix {
		return parseUnix(URL)
	}
	if URL.Path != "" && URL.Path != "/" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, URL.Path)
	}
	return parseEndpoint(scheme, URL.Host)
}

// parseUnix returns the target for a unix URI.
func parseUnix(URL *url.URL) (*model.Target, error) {
	if URL.Host != "" || !strings.HasPrefix(URL.Path, "/") {
		return nil, fmt.Errorf("%w: expected unix:///absolute/path", ErrInvalidPath)
	}
	return &model.Target{Scheme: model.SchemeUnix, Path: URL.Path}, nil
}

// parseEndpoint returns the target for a host:port endpoint.
func parseEndpoint(scheme, endpoint string) (*model.Target, error) {
	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPort, err.Error())
	}
	if host == "" {
		return nil, ErrEmptyHostname
	}
	portnum, err := strconv.ParseUint(port, 10, 16)
	if err != nil || portnum == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPort, port)
	}
	if _, err := netip.ParseAddr(host); err != nil {
		if host, err = idnax.ToASCII(host); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrIDNAToASCII, err.Error())
		}
	}
	return &model.Target{Scheme: scheme, Host: host, Port: uint16(portnum)}, nil
}
