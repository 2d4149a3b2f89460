package netxlite

//
// Errors returned by connectors
//

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrUnsupportedScheme indicates that a connector does not know how
// to connect to a target with the given scheme. This is a configuration
// error, which we return before performing any I/O.
var ErrUnsupportedScheme = errors.New("unsupported URI scheme")

// UnsupportedSchemeError is the error returned when the scheme of
// a target is not supported. It matches ErrUnsupportedScheme.
type UnsupportedSchemeError struct {
	// Scheme is the offending scheme.
	Scheme string
}

// Error implements error.
func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("%s:// URIs are not supported by this connector", e.Scheme)
}

// Is allows errors.Is(err, ErrUnsupportedScheme) to work.
func (e *UnsupportedSchemeError) Is(target error) bool {
	return target == ErrUnsupportedScheme
}

// DialError indicates that the system refused to even start connecting
// (e.g., invalid address or no more file descriptors).
type DialError struct {
	// Address is the address we were dialing.
	Address string

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *DialError) Error() string {
	return fmt.Sprintf("connection to %s failed: %s", e.Address, e.Err.Error())
}

// Unwrap returns the underlying error.
func (e *DialError) Unwrap() error {
	return e.Err
}

// Errno returns the system error code or zero if the underlying error
// is not a system error.
func (e *DialError) Errno() syscall.Errno {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno
	}
	return 0
}

// ErrConnectionRefused indicates that the peer did not accept the connection.
var ErrConnectionRefused = errors.New("connection refused")

// ConnectionRefusedError is the error returned when the socket became
// writable but it is not connected. It matches ErrConnectionRefused.
type ConnectionRefusedError struct {
	// Address is the address we were connecting to.
	Address string

	// Err is the OPTIONAL pending socket error, if any.
	Err error
}

// Error implements error.
func (e *ConnectionRefusedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection to %s refused: %s", e.Address, e.Err.Error())
	}
	return fmt.Sprintf("connection to %s refused", e.Address)
}

// Unwrap returns the pending socket error.
func (e *ConnectionRefusedError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrConnectionRefused) to work.
func (e *ConnectionRefusedError) Is(target error) bool {
	return target == ErrConnectionRefused
}

// ErrTLSVersionMismatch indicates that the handshake negotiated a TLS
// version that the selected crypto method does not allow.
var ErrTLSVersionMismatch = errors.New("negotiated TLS version not allowed by crypto method")

// TLSVersionMismatchError is the error returned when the negotiated TLS
// version is outside the crypto method range. It matches ErrTLSVersionMismatch.
type TLSVersionMismatchError struct {
	// Method is the name of the crypto method.
	Method string

	// Version is the negotiated version.
	Version uint16
}

// Error implements error.
func (e *TLSVersionMismatchError) Error() string {
	return fmt.Sprintf("%s: negotiated %s", e.Method, TLSVersionString(e.Version))
}

// Is allows errors.Is(err, ErrTLSVersionMismatch) to work.
func (e *TLSVersionMismatchError) Is(target error) bool {
	return target == ErrTLSVersionMismatch
}
