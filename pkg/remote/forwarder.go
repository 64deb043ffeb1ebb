package remote

import "io"

// Forward streams src to dst on a dedicated goroutine and closes dst once
// src is exhausted. Closing signals end-of-input to the consuming process.
//
// The returned channel receives the copy error (nil on success) exactly once
// and is then closed, so callers can collect the outcome after draining the
// process's output.
func Forward(dst io.WriteCloser, src io.Reader) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		_, err := io.Copy(dst, src)
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		done <- err
	}()
	return done
}
