// Package nethttp is the net/http backend for transport.Transport.
//
// A Client maps transport requests onto a pooled *http.Client and hands
// response bodies back as chunk readers without buffering them:
//
//	client, err := nethttp.New(nethttp.Config{Timeout: 10 * time.Second})
//	d, err := apicall.NewDispatcher(client, apicall.Config{BaseURL: "https://api.example.com"})
//
// The request timeout bounds non-streaming exchanges only. Streaming
// requests run on a client without a timeout and are bounded by the
// caller's context.
//
// TLS comes from security.TLSConfig, HTTP/2 is configured through
// golang.org/x/net/http2 and an optional token-bucket throttle from
// golang.org/x/time/rate spaces outbound requests.
package nethttp
