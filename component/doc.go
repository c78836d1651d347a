// Package component defines the lifecycle contract shared by the
// long-lived pieces of an apikit client: transports, telemetry
// exporters and anything else that must be started before the first
// dispatch and stopped on shutdown.
//
// A Registry starts components in registration order and stops them in
// reverse.
package component
