// Package adapter decorates any transport.Transport with request and
// response interceptors and resilience middleware, in the style of an
// interceptor-based HTTP client.
//
//	a, err := adapter.New(nethttpClient,
//	    adapter.WithBaseURL("https://api.example.com"),
//	    adapter.WithRequestInterceptor(adapter.JSONHeaders(), adapter.RequestID()),
//	    adapter.WithRequestInterceptor(adapter.BearerToken(store)),
//	    adapter.WithMiddleware(adapter.CircuitBreaker(cb), adapter.Bulkhead(bh)),
//	)
//
// Request interceptors run in registration order on a private copy of
// the request, then the middleware chain dispatches it, then response
// interceptors run in order. Any of them can fail the call.
//
// Middleware that guards capacity (Bulkhead, CircuitBreaker) holds its
// slot until the response body is closed, so long-lived streams count
// against the limit for their whole duration.
package adapter
