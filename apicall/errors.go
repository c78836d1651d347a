package apicall

import (
	"encoding/json"
	"errors"
	"fmt"
)

// StatusClass groups HTTP failure statuses.
type StatusClass string

const (
	ClassAuth       StatusClass = "auth"
	ClassNotFound   StatusClass = "not_found"
	ClassRateLimit  StatusClass = "rate_limit"
	ClassValidation StatusClass = "validation"
	ClassServer     StatusClass = "server"
	ClassUnknown    StatusClass = "unknown"
)

// ClassifyStatus maps a non-2xx status to its class.
func ClassifyStatus(status int) StatusClass {
	switch {
	case status == 401 || status == 403:
		return ClassAuth
	case status == 404:
		return ClassNotFound
	case status == 429:
		return ClassRateLimit
	case status >= 400 && status < 500:
		return ClassValidation
	case status >= 500:
		return ClassServer
	default:
		return ClassUnknown
	}
}

// HTTPError is returned for any response outside 2xx, streaming or not.
type HTTPError struct {
	Status     int
	StatusText string
	// Data is the error body decoded as JSON, when it was valid JSON.
	Data any
	// Body holds up to Config.MaxErrorBodySize bytes of the error body.
	Body []byte
}

func (e *HTTPError) Error() string { return fmt.Sprintf("HTTP response error: %d", e.Status) }

// Code classifies the status.
func (e *HTTPError) Code() StatusClass { return ClassifyStatus(e.Status) }

// Streaming protocol violations.
var (
	ErrNoBody       = errors.New("streaming response has no body")
	ErrSinkRequired = errors.New("streaming response requires a sink")
)

// ProtocolError reports a violated streaming precondition. No body read
// happened.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string { return "apicall: protocol error: " + e.Err.Error() }

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsHTTPError reports whether err carries an HTTP status.
func IsHTTPError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}

// StatusCode returns the status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status, true
	}
	return 0, false
}

// IsProtocolError reports whether err is a streaming protocol violation.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsParseError reports whether err is a JSON decoding failure of a 2xx body.
func IsParseError(err error) bool {
	var (
		syntax   *json.SyntaxError
		typeErr  *json.UnmarshalTypeError
		parseErr *parseError
	)
	return errors.As(err, &parseErr) || errors.As(err, &syntax) || errors.As(err, &typeErr)
}

// parseError marks decode failures so that truncated bodies, which
// encoding/json reports without a typed error, still classify.
type parseError struct {
	api string
	err error
}

func (e *parseError) Error() string { return fmt.Sprintf("apicall: decode %s response: %v", e.api, e.err) }

func (e *parseError) Unwrap() error { return e.err }
