package netxlite

//
// I/O extensions
//

import (
	"context"
	"errors"
	"io"
)

// CopyContext is like io.Copy but returns earlier when the context
// is done. In such a case, the background goroutine keeps copying
// until either src or dst fails, so the caller should close the
// conn bound to src or dst to stop it.
//
// A wrapped io.EOF is treated like io.EOF, that is, it is not an error.
func CopyContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	countch, errch := make(chan int64, 1), make(chan error, 1) // buffers
	go func() {
		count, err := io.Copy(dst, src)
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if err != nil {
			errch <- err
			return
		}
		countch <- count
	}()
	select {
	case count := <-countch:
		return count, nil
	case <-ctx.Done():
		return 0, NewTopLevelGenericErrWrapper(ctx.Err())
	case err := <-errch:
		return 0, NewTopLevelGenericErrWrapper(err)
	}
}
