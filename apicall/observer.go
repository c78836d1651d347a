package apicall

import (
	"context"
	"time"
)

// Outcome is the final classification of a dispatch.
type Outcome string

const (
	OutcomeResolved       Outcome = "resolved"
	OutcomeHTTPError      Outcome = "http_error"
	OutcomeProtocolError  Outcome = "protocol_error"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeParseError     Outcome = "parse_error"
)

// CallInfo identifies a dispatch to observers.
type CallInfo struct {
	API       string
	Method    Method
	Endpoint  string
	Streaming bool
}

// Result summarises a finished dispatch.
type Result struct {
	Outcome  Outcome
	Status   int
	Chunks   int
	Bytes    int64
	Duration time.Duration
	Err      error
}

// Observer is notified around each dispatch. Calls are synchronous on
// the dispatching goroutine and must not block.
type Observer interface {
	DispatchStarted(ctx context.Context, call CallInfo)
	ChunkDelivered(ctx context.Context, call CallInfo, size int)
	DispatchFinished(ctx context.Context, call CallInfo, result Result)
}

// Observers fans out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	var list multiObserver
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) DispatchStarted(ctx context.Context, call CallInfo) {
	for _, o := range m {
		o.DispatchStarted(ctx, call)
	}
}

func (m multiObserver) ChunkDelivered(ctx context.Context, call CallInfo, size int) {
	for _, o := range m {
		o.ChunkDelivered(ctx, call, size)
	}
}

func (m multiObserver) DispatchFinished(ctx context.Context, call CallInfo, result Result) {
	for _, o := range m {
		o.DispatchFinished(ctx, call, result)
	}
}
