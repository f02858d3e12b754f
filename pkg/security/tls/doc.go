/*
Package tls builds client TLS configurations for span export destinations.

By default the system roots verify the collector. A destination may name a
PEM bundle instead:

	cfg := tls.ClientConfig{CAFile: "/etc/lantern/collector-ca.pem"}
	tlsConfig, warnings, err := cfg.ToTLSConfig()

Expired or not-yet-valid certificates in the bundle are rejected. Warnings
report certificates expiring within 30 days.
*/
package tls
