// Package version reports the apikit build version. Values are set at
// link time:
//
//	go build -ldflags "-X github.com/kbukum/apikit/version.Version=1.4.0"
//
// Without ldflags the VCS stamp from runtime/debug is used.
package version
