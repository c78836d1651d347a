package apicall

import (
	"context"
	"iter"

	"github.com/kbukum/apikit/transport"
)

// Chunks exposes a body as an ordered, finite sequence. It yields
// (chunk, nil) per chunk, stops silently at end of stream and yields a
// single (nil, err) on a read failure. Breaking out of the loop stops
// reading; the body is not closed.
func Chunks(ctx context.Context, body transport.ChunkReader) iter.Seq2[transport.Chunk, error] {
	return func(yield func(transport.Chunk, error) bool) {
		for {
			chunk, ok, err := body.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}
