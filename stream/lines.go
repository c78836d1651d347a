package stream

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/kbukum/apikit/transport"
)

// DefaultMaxLineSize bounds the buffered partial line.
const DefaultMaxLineSize = 1 << 20

// ErrLineTooLong is reported by Err once a line exceeded the limit.
// The decoder drops all input after that.
var ErrLineTooLong = errors.New("stream: line too long")

// LineDecoder splits chunks on '\n'. A trailing '\r' is removed.
type LineDecoder struct {
	fn      func(line []byte)
	buf     []byte
	maxSize int
	err     error
}

// Lines calls fn for every complete line. The slice passed to fn is
// only valid during the call.
func Lines(fn func(line []byte)) *LineDecoder {
	return &LineDecoder{fn: fn, maxSize: DefaultMaxLineSize}
}

// WithMaxLineSize changes the line limit.
func (d *LineDecoder) WithMaxLineSize(n int) *LineDecoder {
	if n > 0 {
		d.maxSize = n
	}
	return d
}

// Feed consumes one chunk.
func (d *LineDecoder) Feed(chunk transport.Chunk) {
	if d.err != nil {
		return
	}
	data := []byte(chunk)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		if len(d.buf) > 0 {
			d.buf = append(d.buf, data[:i]...)
			d.emit(d.buf)
			d.buf = d.buf[:0]
		} else {
			d.emit(data[:i])
		}
		data = data[i+1:]
	}
	if len(d.buf)+len(data) > d.maxSize {
		d.err = ErrLineTooLong
		d.buf = nil
		return
	}
	d.buf = append(d.buf, data...)
}

// Flush delivers a final unterminated line, if any.
func (d *LineDecoder) Flush() {
	if d.err == nil && len(d.buf) > 0 {
		d.emit(d.buf)
	}
	d.buf = d.buf[:0]
}

// Err returns ErrLineTooLong after an oversized line, otherwise nil.
func (d *LineDecoder) Err() error { return d.err }

func (d *LineDecoder) emit(line []byte) {
	if len(line) > d.maxSize {
		d.err = ErrLineTooLong
		return
	}
	d.fn(bytes.TrimSuffix(line, []byte{'\r'}))
}

// JSONLines decodes newline-delimited JSON into T. Blank lines are
// skipped; a line that fails to decode is reported with its error and
// decoding continues with the next line.
func JSONLines[T any](fn func(v T, err error)) *LineDecoder {
	return Lines(func(line []byte) {
		if len(bytes.TrimSpace(line)) == 0 {
			return
		}
		var v T
		err := json.Unmarshal(line, &v)
		fn(v, err)
	})
}
