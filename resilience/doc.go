// Package resilience provides guards that transports wrap around a
// dispatch: a circuit breaker, a bulkhead and a token-bucket rate
// limiter. None of them retries.
//
// Each guard has a two-step form (Allow/Acquire returning a completion
// func) so that a streaming response can hold its slot until the body
// is closed, and an Execute form for plain function calls.
package resilience
