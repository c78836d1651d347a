package security

import (
	"crypto/tls"
	"testing"

	"github.com/kbukum/apikit/errors"
	"github.com/kbukum/apikit/security/tlstest"
)

func TestBuildDisabled(t *testing.T) {
	var nilCfg *TLSConfig
	for name, c := range map[string]*TLSConfig{"nil": nilCfg, "zero": {}} {
		t.Run(name, func(t *testing.T) {
			cfg, err := c.Build()
			if err != nil || cfg != nil {
				t.Errorf("expected nil, nil; got %v, %v", cfg, err)
			}
			if c.IsEnabled() {
				t.Error("expected disabled")
			}
		})
	}
}

func TestBuildOptions(t *testing.T) {
	tests := []struct {
		name       string
		cfg        TLSConfig
		minVersion uint16
	}{
		{"skip verify", TLSConfig{SkipVerify: true}, tls.VersionTLS12},
		{"server name", TLSConfig{ServerName: "api.internal"}, tls.VersionTLS12},
		{"tls13", TLSConfig{MinVersion: "1.3"}, tls.VersionTLS13},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := tc.cfg.Build()
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if cfg.MinVersion != tc.minVersion {
				t.Errorf("MinVersion = %x, want %x", cfg.MinVersion, tc.minVersion)
			}
			if cfg.InsecureSkipVerify != tc.cfg.SkipVerify || cfg.ServerName != tc.cfg.ServerName {
				t.Errorf("unexpected config %+v", cfg)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TLSConfig
		wantErr bool
	}{
		{"empty", TLSConfig{}, false},
		{"cert without key", TLSConfig{CertFile: "cert.pem"}, true},
		{"key without cert", TLSConfig{KeyFile: "key.pem"}, true},
		{"bad version", TLSConfig{MinVersion: "1.0"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("expected INVALID_CONFIG, got %v", err)
			}
		})
	}
}

func TestBuildWithCertificates(t *testing.T) {
	certs := tlstest.Generate(t)
	c := TLSConfig{CAFile: certs.CAFile, CertFile: certs.CertFile, KeyFile: certs.KeyFile}

	cfg, err := c.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.RootCAs == nil {
		t.Error("expected RootCAs")
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("expected one client certificate, got %d", len(cfg.Certificates))
	}
}

func TestBuildFileErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  TLSConfig
	}{
		{"missing CA", TLSConfig{CAFile: "/nonexistent/ca.pem"}},
		{"invalid CA", TLSConfig{CAFile: tlstest.WriteInvalidPEM(t)}},
		{"missing key pair", TLSConfig{CertFile: "/nonexistent/c.pem", KeyFile: "/nonexistent/k.pem"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.cfg.Build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
