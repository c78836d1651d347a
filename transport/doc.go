// Package transport is the boundary between apikit's dispatcher and the
// network. A Transport performs exactly one round trip per Dispatch and
// hands back a Response whose body is read chunk by chunk.
//
// Backends live in subpackages: nethttp drives net/http directly and
// adapter layers interceptors and middleware over any Transport.
// Decorators compose with Chain:
//
//	t := transport.Chain(base, observability.TracingMiddleware(tracer), logging)
package transport
