package netxlite

//
// Crypto methods
//

import (
	"crypto/tls"
	"fmt"
	"sort"

	"github.com/ooni/netconnect/internal/model"
)

// cryptoMethodTable maps a TLS-variant scheme to the crypto method
// to use for the handshake. Schemes for protocol versions that the
// TLS library does not implement (i.e., sslv2 and sslv3) are not
// present in the table. Once built, the table is never modified.
type cryptoMethodTable map[string]model.CryptoMethod

// newCryptoMethodTable builds a cryptoMethodTable.
func newCryptoMethodTable() cryptoMethodTable {
	table := cryptoMethodTable{}
	add := func(name string, minVersion, maxVersion uint16) {
		table[name] = model.CryptoMethod{
			Name:       name,
			MinVersion: minVersion,
			MaxVersion: maxVersion,
		}
	}
	add("ssl", tls.VersionTLS10, 0)
	add("tls", tls.VersionTLS10, 0)
	add("tlsv1.0", tls.VersionTLS10, tls.VersionTLS10)
	add("tlsv1.1", tls.VersionTLS11, tls.VersionTLS11)
	add("tlsv1.2", tls.VersionTLS12, tls.VersionTLS12)
	add("tlsv1.3", tls.VersionTLS13, tls.VersionTLS13)
	return table
}

// Lookup returns the crypto method for the given scheme.
func (t cryptoMethodTable) Lookup(scheme string) (model.CryptoMethod, bool) {
	method, found := t[scheme]
	return method, found
}

// Schemes returns the sorted list of schemes in the table.
func (t cryptoMethodTable) Schemes() []string {
	var out []string
	for name := range t {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// defaultCryptoMethods is the table used by LookupCryptoMethod.
var defaultCryptoMethods = newCryptoMethodTable()

// LookupCryptoMethod returns the crypto method with the given name (e.g.,
// "tlsv1.2") or an error matching ErrUnsupportedScheme.
func LookupCryptoMethod(name string) (model.CryptoMethod, error) {
	method, found := defaultCryptoMethods.Lookup(name)
	if !found {
		return model.CryptoMethod{}, &UnsupportedSchemeError{Scheme: name}
	}
	return method, nil
}

// IsTLSScheme returns whether the given scheme selects a TLS connection.
func IsTLSScheme(scheme string) bool {
	_, found := defaultCryptoMethods.Lookup(scheme)
	return found
}

// TLSVersionString returns a TLS version string. If value is zero, we
// return the empty string. If the value is unknown, we return
// `TLS_VERSION_UNKNOWN_ddd` where `ddd` is the numeric value passed
// to this function.
func TLSVersionString(value uint16) string {
	if value == 0 {
		return ""
	}
	switch value {
	case tls.VersionTLS10, tls.VersionTLS11, tls.VersionTLS12, tls.VersionTLS13:
		return tls.VersionName(value)
	default:
		return fmt.Sprintf("TLS_VERSION_UNKNOWN_%d", value)
	}
}

// TLSCipherSuiteString returns the TLS cipher suite as a string. If value
// is zero, we return the empty string.
func TLSCipherSuiteString(value uint16) string {
	if value == 0 {
		return ""
	}
	return tls.CipherSuiteName(value)
}
