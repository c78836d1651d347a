package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 32 * 1024

// Chunk is one unit of raw body data in transport order.
type Chunk []byte

// ChunkReader yields a body as an ordered, finite sequence of chunks.
//
// Next returns (chunk, true, nil) for data, (nil, false, nil) once the
// body is exhausted and (nil, false, err) when reading failed. After the
// end marker or an error every further call repeats it.
type ChunkReader interface {
	Next(ctx context.Context) (Chunk, bool, error)
	Close() error
}

type streamReader struct {
	rc   io.ReadCloser
	size int
	err  error
	done bool
}

// NewChunkReader slices rc into chunks of at most size bytes. Each chunk
// is a fresh slice that the caller may keep. A size <= 0 selects
// DefaultChunkSize.
func NewChunkReader(rc io.ReadCloser, size int) ChunkReader {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &streamReader{rc: rc, size: size}
}

func (s *streamReader) Next(ctx context.Context) (Chunk, bool, error) {
	for {
		if s.err != nil {
			return nil, false, s.err
		}
		if s.done {
			return nil, false, nil
		}
		if err := ctx.Err(); err != nil {
			s.err = err
			return nil, false, err
		}

		buf := make([]byte, s.size)
		n, err := s.rc.Read(buf)
		switch {
		case errors.Is(err, io.EOF):
			s.done = true
		case err != nil:
			s.err = err
		}
		if n > 0 {
			return Chunk(buf[:n]), true, nil
		}
	}
}

func (s *streamReader) Close() error { return s.rc.Close() }

// NewReader exposes cr as an io.Reader. Reads are bound to ctx.
func NewReader(ctx context.Context, cr ChunkReader) io.Reader {
	return &chunkIOReader{ctx: ctx, cr: cr}
}

type chunkIOReader struct {
	ctx     context.Context
	cr      ChunkReader
	pending []byte
}

func (r *chunkIOReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		chunk, ok, err := r.cr.Next(r.ctx)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, io.EOF
		}
		r.pending = chunk
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// ReadAll drains cr, keeping at most limit bytes when limit > 0. It
// stops reading once the limit is reached.
func ReadAll(ctx context.Context, cr ChunkReader, limit int64) ([]byte, error) {
	var src io.Reader = NewReader(ctx, cr)
	if limit > 0 {
		src = io.LimitReader(src, limit)
	}
	var buf bytes.Buffer
	_, err := buf.ReadFrom(src)
	return buf.Bytes(), err
}

// NewBytesBody returns a ChunkReader over fixed chunks, delivered in
// order. It is used by in-memory transports and tests.
func NewBytesBody(chunks ...[]byte) ChunkReader {
	return &bytesBody{chunks: chunks}
}

type bytesBody struct {
	chunks [][]byte
	closed bool
}

func (b *bytesBody) Next(ctx context.Context) (Chunk, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if b.closed {
		return nil, false, errBodyClosed
	}
	if len(b.chunks) == 0 {
		return nil, false, nil
	}
	c := b.chunks[0]
	b.chunks = b.chunks[1:]
	return Chunk(c), true, nil
}

func (b *bytesBody) Close() error {
	b.closed = true
	return nil
}

var errBodyClosed = errors.New("transport: read on closed body")
