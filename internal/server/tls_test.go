// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/stemmww/recipeshare/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withPorts makes every port look free or taken for the duration of t.
func withPorts(t *testing.T, available bool) {
	t.Helper()
	old := portChecker
	portChecker = func(int) bool { return available }
	t.Cleanup(func() { portChecker = old })
}

func writeTestCert(t *testing.T) (certFile, keyFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "recipes.example.com"},
		DNSNames:     []string{"recipes.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func TestResolveTLSMode(t *testing.T) {
	withPorts(t, true)

	tests := []struct {
		name     string
		host     string
		tls      config.TLSConfig
		expected TLSMode
	}{
		{"explicit off", "example.com", config.TLSConfig{Mode: "off"}, TLSModeOff},
		{"explicit acme", "localhost", config.TLSConfig{Mode: "ACME"}, TLSModeACME},
		{"explicit manual", "localhost", config.TLSConfig{Mode: "manual"}, TLSModeManual},
		{"auto localhost", "localhost", config.TLSConfig{Mode: "auto"}, TLSModeOff},
		{"auto with cert files", "example.com", config.TLSConfig{CertFile: "c.pem", KeyFile: "k.pem"}, TLSModeManual},
		{"auto with email", "example.com", config.TLSConfig{Email: "ops@example.com"}, TLSModeACME},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Server: config.ServerConfig{Host: tt.host}, TLS: tt.tls}

			mode, err := resolveTLSMode(cfg)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

func TestResolveTLSMode_NoOption(t *testing.T) {
	tests := []struct {
		name  string
		host  string
		email string
		ports bool
	}{
		{"no email", "example.com", "", true},
		{"ip address", "203.0.113.7", "ops@example.com", true},
		{"ports taken", "example.com", "ops@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withPorts(t, tt.ports)
			cfg := &config.Config{
				Server: config.ServerConfig{Host: tt.host},
				TLS:    config.TLSConfig{Mode: "auto", Email: tt.email},
			}

			_, err := resolveTLSMode(cfg)

			assert.ErrorIs(t, err, ErrNoTLSMode)
		})
	}
}

func TestResolveTLSMode_Unknown(t *testing.T) {
	_, err := resolveTLSMode(&config.Config{TLS: config.TLSConfig{Mode: "selfsigned"}})

	assert.ErrorContains(t, err, "unknown TLS mode")
}

func TestValidateACME(t *testing.T) {
	withPorts(t, true)
	cfg := &config.Config{Server: config.ServerConfig{Host: "example.com", Port: 443}}

	assert.ErrorContains(t, validateACME(cfg), "TLS_EMAIL")

	cfg.TLS.Email = "ops@example.com"
	assert.NoError(t, validateACME(cfg))

	withPorts(t, false)
	assert.ErrorContains(t, validateACME(cfg), "port 80")
}

func TestSetupTLS_Off(t *testing.T) {
	result, err := SetupTLS(&config.Config{TLS: config.TLSConfig{Mode: "off"}})

	require.NoError(t, err)
	assert.Equal(t, TLSModeOff, result.Mode)
	assert.Nil(t, result.TLSConfig)
}

func TestSetupTLS_Manual(t *testing.T) {
	certFile, keyFile := writeTestCert(t)
	cfg := &config.Config{TLS: config.TLSConfig{Mode: "manual", CertFile: certFile, KeyFile: keyFile}}

	result, err := SetupTLS(cfg)

	require.NoError(t, err)
	assert.Equal(t, TLSModeManual, result.Mode)
	require.NotNil(t, result.TLSConfig)
	assert.Len(t, result.TLSConfig.Certificates, 1)
}

func TestSetupTLS_ManualErrors(t *testing.T) {
	_, err := SetupTLS(&config.Config{TLS: config.TLSConfig{Mode: "manual"}})
	assert.ErrorContains(t, err, "requires both")

	dir := t.TempDir()
	_, err = SetupTLS(&config.Config{TLS: config.TLSConfig{
		Mode:     "manual",
		CertFile: filepath.Join(dir, "missing.pem"),
		KeyFile:  filepath.Join(dir, "missing.key"),
	}})
	assert.ErrorContains(t, err, "failed to load certificate")
}

func TestSetupTLS_ACME(t *testing.T) {
	withPorts(t, true)
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "recipes.example.com", Port: 443},
		TLS:    config.TLSConfig{Mode: "acme", Email: "ops@example.com", CertDir: t.TempDir()},
	}

	result, err := SetupTLS(cfg)

	require.NoError(t, err)
	assert.Equal(t, TLSModeACME, result.Mode)
	assert.NotNil(t, result.TLSConfig)
	assert.NotNil(t, result.HTTPHandler)
	assert.DirExists(t, filepath.Join(cfg.TLS.CertDir, "acme"))
}
