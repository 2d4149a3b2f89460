package netxlite

//
// Failure strings
//

// These are the failure strings that ErrWrapper.Failure may contain. The
// strings are stable and callers may match on them. An error that we do
// not know how to map produces `unknown_failure: ...` instead.
const (
	FailureAddressFamilyNotSupported = "address_family_not_supported"
	FailureAddressInUse              = "address_in_use"
	FailureAddressNotAvailable       = "address_not_available"
	FailureAlreadyConnected          = "already_connected"
	FailureBadFileDescriptor         = "bad_file_descriptor"
	FailureConnectionAborted         = "connection_aborted"
	FailureConnectionAlreadyClosed   = "connection_already_closed"
	FailureConnectionRefused         = "connection_refused"
	FailureConnectionReset           = "connection_reset"
	FailureDNSNXDOMAINError          = "dns_nxdomain_error"
	FailureDNSNoAnswer               = "dns_no_answer"
	FailureDNSRefusedError           = "dns_refused_error"
	FailureDNSReplyWithWrongQueryID  = "dns_reply_with_wrong_query_id"
	FailureDNSServerMisbehaving      = "dns_server_misbehaving"
	FailureDNSServfailError          = "dns_servfail_error"
	FailureEOFError                  = "eof_error"
	FailureGenericTimeoutError       = "generic_timeout_error"
	FailureHostUnreachable           = "host_unreachable"
	FailureInterrupted               = "interrupted"
	FailureInvalidArgument           = "invalid_argument"
	FailureNetworkDown               = "network_down"
	FailureNetworkUnreachable        = "network_unreachable"
	FailureNoBufferSpace             = "no_buffer_space"
	FailureNoSuchFileOrDirectory     = "no_such_file_or_directory"
	FailureNotASocket                = "not_a_socket"
	FailureNotConnected              = "not_connected"
	FailurePermissionDenied          = "permission_denied"
	FailureProtocolNotSupported      = "protocol_not_supported"
	FailureSSLFailedHandshake        = "ssl_failed_handshake"
	FailureSSLInvalidCertificate     = "ssl_invalid_certificate"
	FailureSSLInvalidHostname        = "ssl_invalid_hostname"
	FailureSSLUnknownAuthority       = "ssl_unknown_authority"
	FailureTimedOut                  = "timed_out"
)

// Operations that may appear in ErrWrapper.Operation.
const (
	// ResolveOperation is the operation where we resolve a domain name.
	ResolveOperation = "resolve"

	// ConnectOperation is the operation where we connect a socket.
	ConnectOperation = "connect"

	// TLSHandshakeOperation is the TLS handshake.
	TLSHandshakeOperation = "tls_handshake"

	// TopLevelOperation is used when we cannot attribute the
	// failure to any of the above operations.
	TopLevelOperation = "top_level"
)
