package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCode classifies a failed dispatch.
type ErrorCode string

const (
	ErrCodeTimeout    ErrorCode = "timeout"
	ErrCodeConnection ErrorCode = "connection"
	ErrCodeCanceled   ErrorCode = "canceled"

	// ErrCodeInvalidRequest marks a request the backend could not build,
	// such as an unparsable URL. Nothing was sent.
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
)

// Error is a dispatch failure where no response was received.
type Error struct {
	Code     ErrorCode
	Op       string
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport: %s %s %s: %v", e.Op, e.Endpoint, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err, classifying it by its cause.
func NewError(op, endpoint string, err error) *Error {
	return &Error{Code: classify(err), Op: op, Endpoint: endpoint, Err: err}
}

func classify(err error) ErrorCode {
	if errors.Is(err, context.Canceled) {
		return ErrCodeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrCodeTimeout
	}
	return ErrCodeConnection
}

// NewInvalidRequestError reports a request rejected before sending.
func NewInvalidRequestError(op, endpoint string, err error) *Error {
	return &Error{Code: ErrCodeInvalidRequest, Op: op, Endpoint: endpoint, Err: err}
}

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsConnection reports whether err is a transport connection failure.
func IsConnection(err error) bool { return hasCode(err, ErrCodeConnection) }

// IsCanceled reports whether the dispatch was canceled by its context.
func IsCanceled(err error) bool { return hasCode(err, ErrCodeCanceled) }

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
