package tls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// ClientConfig describes how an exporter verifies its collector.
type ClientConfig struct {
	// CAFile is an optional PEM bundle replacing the system roots.
	CAFile string

	// ServerName overrides the name used for certificate verification.
	ServerName string

	// MinVersion is the minimum TLS version ("1.2" or "1.3").
	// Default: "1.2"
	MinVersion string
}

// ToTLSConfig converts ClientConfig to crypto/tls.Config. The returned
// warnings list CA certificates close to expiry.
func (c ClientConfig) ToTLSConfig() (*tls.Config, []string, error) {
	version, err := parseTLSVersion(c.MinVersion)
	if err != nil {
		return nil, nil, err
	}

	tlsConfig := &tls.Config{
		MinVersion: version,
		ServerName: c.ServerName,
	}

	if c.CAFile == "" {
		return tlsConfig, nil, nil
	}

	pool, warnings, err := LoadCABundle(c.CAFile)
	if err != nil {
		return nil, nil, err
	}
	tlsConfig.RootCAs = pool
	return tlsConfig, warnings, nil
}

// LoadCABundle reads every certificate in a PEM file into a pool.
func LoadCABundle(path string) (*x509.CertPool, []string, error) {
	// #nosec G304 - path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	var warnings []string
	count := 0
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse CA certificate in %s: %w", path, err)
		}
		if err := ValidateX509Certificate(cert); err != nil {
			return nil, nil, fmt.Errorf("invalid CA certificate in %s: %w", path, err)
		}
		if _, warning := CheckCertificateExpiration(cert); warning != "" {
			warnings = append(warnings, warning)
		}
		pool.AddCert(cert)
		count++
	}

	if count == 0 {
		return nil, nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, warnings, nil
}

// parseTLSVersion converts a version string to a tls.Version constant.
// TLS 1.0 and 1.1 are rejected.
func parseTLSVersion(v string) (uint16, error) {
	switch v {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS min version %q (valid: 1.2, 1.3)", v)
	}
}
