package stream

import (
	"context"
	"errors"
	"io"
	"time"
)

// Chunk is one read from a byte source.
type Chunk struct {
	Data []byte
	Time time.Time
	Err  error
}

// ContextReader is implemented by sources whose reads can be abandoned
// through a context, such as serial ports.
type ContextReader interface {
	ReadContext(ctx context.Context, p []byte) (int, error)
}

// DefaultChunkSize is the read size used by Pump.
const DefaultChunkSize = 4096

// Pump reads r in its own goroutine and delivers every non-empty read as a
// timestamped chunk. The channel is closed after ctx is cancelled or r
// fails; a failure is delivered as a final chunk carrying Err.
func Pump(ctx context.Context, r io.Reader, size int) <-chan Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	out := make(chan Chunk, 16)

	go func() {
		defer close(out)

		buf := make([]byte, size)
		cr, hasContext := r.(ContextReader)
		for {
			if ctx.Err() != nil {
				return
			}

			var (
				n   int
				err error
			)
			if hasContext {
				n, err = cr.ReadContext(ctx, buf)
			} else {
				n, err = r.Read(buf)
			}
			ts := time.Now()

			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case out <- Chunk{Data: data, Time: ts}:
				case <-ctx.Done():
					return
				}
			}

			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				select {
				case out <- Chunk{Err: err, Time: ts}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()

	return out
}
