package stream

import (
	"strconv"
	"strings"

	"github.com/kbukum/apikit/transport"
)

// Event is one Server-Sent Event.
type Event struct {
	// Event is the "event:" type, empty for data-only events.
	Event string
	// Data joins multiple "data:" lines with newlines.
	Data string
	ID   string
	// Retry is the reconnection delay in milliseconds, 0 when absent.
	Retry int
}

// SSEDecoder parses a text/event-stream body.
type SSEDecoder struct {
	lines   *LineDecoder
	fn      func(Event)
	event   Event
	hasData bool
}

// SSE calls fn for every event that carries data. Comment lines and
// unknown fields are ignored.
func SSE(fn func(Event)) *SSEDecoder {
	d := &SSEDecoder{fn: fn}
	d.lines = Lines(d.line)
	return d
}

// Feed consumes one chunk.
func (d *SSEDecoder) Feed(chunk transport.Chunk) { d.lines.Feed(chunk) }

// Flush delivers a final event that was not followed by a blank line.
func (d *SSEDecoder) Flush() {
	d.lines.Flush()
	d.dispatch()
}

// Err reports a line-length violation from the underlying decoder.
func (d *SSEDecoder) Err() error { return d.lines.Err() }

func (d *SSEDecoder) line(raw []byte) {
	line := string(raw)
	if line == "" {
		d.dispatch()
		return
	}
	if strings.HasPrefix(line, ":") {
		return
	}

	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")
	switch field {
	case "data":
		if d.hasData {
			d.event.Data += "\n" + value
		} else {
			d.event.Data = value
			d.hasData = true
		}
	case "event":
		d.event.Event = value
	case "id":
		d.event.ID = value
	case "retry":
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			d.event.Retry = ms
		}
	}
}

func (d *SSEDecoder) dispatch() {
	if d.hasData {
		d.fn(d.event)
	}
	d.event = Event{}
	d.hasData = false
}
