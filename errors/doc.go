// Package errors provides the structured error type used by apikit for
// configuration, definition and validation failures.
//
// Runtime failures of a call (HTTP status, protocol and transport errors) are
// typed in the apicall and transport packages. AppError covers everything that
// goes wrong before a request ever leaves the process.
package errors
