// Package util holds small helpers shared by apikit packages: query
// string construction for endpoints, dotted-path lookup in decoded JSON
// and secret masking for logs.
package util
