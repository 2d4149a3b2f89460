package netxlite

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ooni/netconnect/internal/scrubber"
)

// classifyGenericError maps an error occurred during an operation
// to a failure string. This specific classifier is the most generic
// one. You should check whether there is a specific classifier for
// more specific operations (e.g., DNS resolution, TLS handshake).
//
// If the input error is an *ErrWrapper we don't perform
// the classification again and we return its Failure.
//
// We put inside this classifier:
//
// - system call errors;
//
// - generic errors that can occur in multiple places;
//
// - all the errors that depend on strings.
//
// If everything else fails, this classifier returns a string
// like "unknown_failure: XXX" where XXX has been scrubbed
// so to remove any network endpoints from the original error string.
func classifyGenericError(err error) string {
	var errwrapper *ErrWrapper
	if errors.As(err, &errwrapper) {
		return errwrapper.Error() // we've already wrapped it
	}

	// Classify system errors first. We could use strings for many
	// of them on Unix, but this would fail on Windows.
	if failure := classifySyscallError(err); failure != "" {
		return failure
	}

	if errors.Is(err, context.Canceled) {
		return FailureInterrupted
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return FailureGenericTimeoutError
	}

	if failure := classifyWithStringSuffix(err); failure != "" {
		return failure
	}

	formatted := fmt.Sprintf("unknown_failure: %s", err.Error())
	return scrubber.Scrub(formatted)
}

// classifyWithStringSuffix is a subset of classifyGenericError that
// performs classification by looking at error suffixes. This function
// will return an empty string if it cannot classify the error.
func classifyWithStringSuffix(err error) string {
	s := err.Error()
	if strings.HasSuffix(s, "operation was canceled") {
		return FailureInterrupted
	}
	if strings.HasSuffix(s, "EOF") {
		return FailureEOFError
	}
	if strings.HasSuffix(s, "i/o timeout") {
		return FailureGenericTimeoutError
	}
	if strings.HasSuffix(s, "TLS handshake timeout") {
		return FailureGenericTimeoutError
	}
	if strings.HasSuffix(s, DNSNoSuchHostSuffix) {
		return FailureDNSNXDOMAINError
	}
	if strings.HasSuffix(s, DNSServerMisbehavingSuffix) {
		return FailureDNSServerMisbehaving
	}
	if strings.HasSuffix(s, DNSNoAnswerSuffix) {
		return FailureDNSNoAnswer
	}
	if strings.HasSuffix(s, "use of closed network connection") {
		return FailureConnectionAlreadyClosed
	}
	return "" // not found
}

// We use these strings to string-match errors in the standard library
// and map such errors to failure strings.
const (
	DNSNoSuchHostSuffix        = "no such host"
	DNSServerMisbehavingSuffix = "server misbehaving"
	DNSNoAnswerSuffix          = "no answer from DNS server"
)

// These errors are returned by the DNS resolver. Their suffix matches
// the equivalent unexported errors used by the Go standard library.
var (
	ErrDNSNoSuchHost            = fmt.Errorf("dnsresolver: %s", DNSNoSuchHostSuffix)
	ErrDNSRefused               = errors.New("dnsresolver: refused")
	ErrDNSServfail              = errors.New("dnsresolver: server failure")
	ErrDNSMisbehaving           = fmt.Errorf("dnsresolver: %s", DNSServerMisbehavingSuffix)
	ErrDNSNoAnswer              = fmt.Errorf("dnsresolver: %s", DNSNoAnswerSuffix)
	ErrDNSReplyWithWrongQueryID = errors.New(FailureDNSReplyWithWrongQueryID)
)

// classifyResolverError maps DNS resolution errors to failure strings.
//
// If the input error is an *ErrWrapper we don't perform
// the classification again and we return its Failure.
//
// If this classifier fails, it calls classifyGenericError and
// returns to the caller its return value.
func classifyResolverError(err error) string {
	var errwrapper *ErrWrapper
	if errors.As(err, &errwrapper) {
		return errwrapper.Error() // we've already wrapped it
	}
	if errors.Is(err, ErrDNSRefused) {
		return FailureDNSRefusedError
	}
	if errors.Is(err, ErrDNSServfail) {
		return FailureDNSServfailError
	}
	if errors.Is(err, ErrDNSReplyWithWrongQueryID) {
		return FailureDNSReplyWithWrongQueryID
	}
	return classifyGenericError(err)
}

// classifyConnectError maps errors occurring while creating and
// connecting a socket to failure strings. We give precedence to
// the system error, if any, so that a refusal caused by, e.g., an
// unreachable host maps to host_unreachable.
//
// If this classifier fails, it calls classifyGenericError and
// returns to the caller its return value.
func classifyConnectError(err error) string {
	var errwrapper *ErrWrapper
	if errors.As(err, &errwrapper) {
		return errwrapper.Error() // we've already wrapped it
	}
	if failure := classifySyscallError(err); failure != "" {
		return failure
	}
	if errors.Is(err, ErrConnectionRefused) {
		return FailureConnectionRefused
	}
	return classifyGenericError(err)
}

// classifyTLSHandshakeError maps an error occurred during the TLS
// handshake to a failure string.
//
// If the input error is an *ErrWrapper we don't perform
// the classification again and we return its Failure.
//
// If this classifier fails, it calls classifyGenericError and
// returns to the caller its return value.
func classifyTLSHandshakeError(err error) string {
	var errwrapper *ErrWrapper
	if errors.As(err, &errwrapper) {
		return errwrapper.Error() // we've already wrapped it
	}

	var x509HostnameError x509.HostnameError
	if errors.As(err, &x509HostnameError) {
		return FailureSSLInvalidHostname
	}
	var x509UnknownAuthorityError x509.UnknownAuthorityError
	if errors.As(err, &x509UnknownAuthorityError) {
		return FailureSSLUnknownAuthority
	}
	var x509CertificateInvalidError x509.CertificateInvalidError
	if errors.As(err, &x509CertificateInvalidError) {
		return FailureSSLInvalidCertificate
	}
	var tlsAlertError tls.AlertError
	if errors.As(err, &tlsAlertError) {
		return FailureSSLFailedHandshake
	}
	if errors.Is(err, ErrTLSVersionMismatch) {
		return FailureSSLFailedHandshake
	}
	return classifyGenericError(err)
}
