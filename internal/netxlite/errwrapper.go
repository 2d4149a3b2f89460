package netxlite

import (
	"encoding/json"
	"errors"

	"github.com/ooni/netconnect/internal/runtimex"
)

// ErrWrapper is our error wrapper for Go errors. The key objective of
// this structure is to properly set Failure, which is also returned by
// the Error() method, to be one of the FailureXXX strings and to record
// the Operation (i.e., the stage of the connect pipeline) that failed.
type ErrWrapper struct {
	// Failure is the failure string.
	//
	// This is either one of the FailureXXX strings or any other
	// string like `unknown_failure: ...`. The latter represents an
	// error that we have not yet mapped to a failure.
	Failure string

	// Operation is the operation that failed.
	//
	// The Operation string SHOULD be one of:
	//
	// - ResolveOperation: resolving a domain name failed
	//
	// - ConnectOperation: creating or connecting the socket failed
	//
	// - TLSHandshakeOperation: TLS handshaking failed
	//
	// If an ErrWrapper is wrapping another ErrWrapper, the new
	// ErrWrapper uses the child's operation when the child refers
	// to any of the above operations. This way, the topmost wrapper
	// always tells which stage of the pipeline failed.
	Operation string

	// WrappedErr is the error that we're wrapping.
	WrappedErr error
}

// Error returns the failure string for this error.
func (e *ErrWrapper) Error() string {
	return e.Failure
}

// Unwrap allows to access the underlying error.
func (e *ErrWrapper) Unwrap() error {
	return e.WrappedErr
}

// MarshalJSON converts an ErrWrapper to a JSON value.
func (e *ErrWrapper) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Failure)
}

// classifier is the type of the function that maps a Go error
// to one of the FailureXXX strings.
type classifier func(err error) string

// NewErrWrapper creates a new ErrWrapper using the given
// classifier, operation name, and underlying error.
//
// This function panics if classifier is nil, or operation
// is the empty string or error is nil.
//
// If the err argument has already been classified, the returned
// error wrapper will use the same classification string and
// will determine whether to keep the major operation as documented
// in the ErrWrapper.Operation documentation.
func NewErrWrapper(c classifier, op string, err error) *ErrWrapper {
	var wrapper *ErrWrapper
	if errors.As(err, &wrapper) {
		return &ErrWrapper{
			Failure:    wrapper.Failure,
			Operation:  classifyOperation(wrapper, op),
			WrappedErr: err,
		}
	}
	runtimex.Assert(c != nil, "nil classifier")
	runtimex.Assert(op != "", "empty op")
	runtimex.Assert(err != nil, "nil err")
	return &ErrWrapper{
		Failure:    c(err),
		Operation:  op,
		WrappedErr: err,
	}
}

// NewTopLevelGenericErrWrapper wraps an error occurring at top
// level using the generic classifier. This function panics if
// err is nil.
func NewTopLevelGenericErrWrapper(err error) *ErrWrapper {
	return NewErrWrapper(classifyGenericError, TopLevelOperation, err)
}

func classifyOperation(ew *ErrWrapper, operation string) string {
	switch ew.Operation {
	case ResolveOperation, ConnectOperation, TLSHandshakeOperation:
		return ew.Operation
	default:
		return operation
	}
}
