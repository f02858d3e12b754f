/*
Package secrets resolves exporter credentials from the environment and from
mounted secret files.

# Providers

  - EnvProvider reads a secret from an environment variable. The name is
    upper-cased, hyphens become underscores and an optional prefix is
    prepended, so "honeycomb-write-key" and "HONEYCOMB_WRITE_KEY" both read
    $HONEYCOMB_WRITE_KEY.
  - FileProvider reads one secret per file from a directory, as mounted by
    Kubernetes. Files must be 0600 or 0400. The directory can be watched so
    rotated secrets are picked up without a restart.

# Manager

A Manager chains providers in priority order and also expands
${secret:name} references inside configuration values:

	manager, err := secrets.NewManagerFromConfig(cfg.Secrets, logger)
	if err != nil {
		return err
	}
	defer manager.Close()

	key, err := manager.GetSecret(ctx, "HONEYCOMB_WRITE_KEY")

Secret values are never logged; names are redacted in debug output.
*/
package secrets
