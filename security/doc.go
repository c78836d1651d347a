// Package security holds the TLS settings used by the native transport.
//
//	cfg := security.TLSConfig{CAFile: "/etc/apikit/ca.pem", MinVersion: "1.3"}
//	tlsConfig, err := cfg.Build()
package security
