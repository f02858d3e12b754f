/*
Package security groups the credential and transport security helpers used
by span export destinations.

# Secrets

Exporter credentials such as the Honeycomb write key are resolved through
a chain of providers, the secrets directory first and the environment last:

	manager, err := secrets.NewManagerFromConfig(cfg.Secrets, logger)
	if err != nil {
		return err
	}
	defer manager.Close()

	key, err := manager.GetSecret(ctx, "HONEYCOMB_WRITE_KEY")

# TLS

OTLP destinations that use a private collector can trust a custom CA bundle:

	tlsCfg, warnings, err := tls.ClientConfig{CAFile: "/etc/lantern/ca.pem"}.ToTLSConfig()
*/
package security
