package netxlite

import (
	"encoding/json"
	"errors"
	"io"
	"testing"
)

func TestErrWrapper(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := &ErrWrapper{Failure: FailureDNSNXDOMAINError}
		if err.Error() != FailureDNSNXDOMAINError {
			t.Fatal("invalid return value")
		}
	})

	t.Run("Unwrap", func(t *testing.T) {
		err := &ErrWrapper{
			Failure:    FailureEOFError,
			WrappedErr: io.EOF,
		}
		if !errors.Is(err, io.EOF) {
			t.Fatal("cannot unwrap error")
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		wrappedErr := &ErrWrapper{
			Failure:    FailureEOFError,
			WrappedErr: io.EOF,
		}
		data, err := json.Marshal(wrappedErr)
		if err != nil {
			t.Fatal(err)
		}
		s := string(data)
		if s != "\""+FailureEOFError+"\"" {
			t.Fatal("invalid serialization", s)
		}
	})
}

// panics returns whether fn panics.
func panics(fn func()) (recovered bool) {
	defer func() {
		recovered = recover() != nil
	}()
	fn()
	return
}

func TestNewErrWrapper(t *testing.T) {
	t.Run("panics if the classifier is nil", func(t *testing.T) {
		if !panics(func() { NewErrWrapper(nil, ConnectOperation, io.EOF) }) {
			t.Fatal("did not panic")
		}
	})

	t.Run("panics if the operation is empty", func(t *testing.T) {
		if !panics(func() { NewErrWrapper(classifyGenericError, "", io.EOF) }) {
			t.Fatal("did not panic")
		}
	})

	t.Run("panics if the error is nil", func(t *testing.T) {
		if !panics(func() { NewErrWrapper(classifyGenericError, ConnectOperation, nil) }) {
			t.Fatal("did not panic")
		}
	})

	t.Run("otherwise, works as intended", func(t *testing.T) {
		ew := NewErrWrapper(classifyGenericError, ConnectOperation, io.EOF)
		if ew.Failure != FailureEOFError {
			t.Fatal("unexpected failure", ew.Failure)
		}
		if ew.Operation != ConnectOperation {
			t.Fatal("unexpected operation", ew.Operation)
		}
		if ew.WrappedErr != io.EOF {
			t.Fatal("unexpected WrappedErr", ew.WrappedErr)
		}
	})

	t.Run("when the underlying error is already a wrapped error", func(t *testing.T) {
		ew := NewErrWrapper(classifyResolverError, ResolveOperation, ErrDNSNoSuchHost)
		ew = NewErrWrapper(classifyGenericError, ResolveOperation, ew)
		ew2 := NewErrWrapper(classifyGenericError, TopLevelOperation, ew)
		if ew2.Failure != FailureDNSNXDOMAINError || ew2.Failure != ew.Failure {
			t.Fatal("not the same failure")
		}
		if ew2.Operation != ResolveOperation {
			t.Fatal("we did not keep the major operation", ew2.Operation)
		}
		if !errors.Is(ew2, ErrDNSNoSuchHost) {
			t.Fatal("cannot unwrap to the original error")
		}
	})
}

func TestNewTopLevelGenericErrWrapper(t *testing.T) {
	t.Run("with a plain error", func(t *testing.T) {
		ew := NewTopLevelGenericErrWrapper(io.EOF)
		if ew.Failure != FailureEOFError {
			t.Fatal("unexpected failure", ew.Failure)
		}
		if ew.Operation != TopLevelOperation {
			t.Fatal("unexpected operation", ew.Operation)
		}
	})

	t.Run("with an already wrapped error", func(t *testing.T) {
		inner := NewErrWrapper(classifyTLSHandshakeError, TLSHandshakeOperation, io.EOF)
		ew := NewTopLevelGenericErrWrapper(inner)
		if ew.Operation != TLSHandshakeOperation {
			t.Fatal("unexpected operation", ew.Operation)
		}
	})
}
