package secrets

import (
	"context"
	"errors"
)

// ErrSecretNotFound is wrapped by providers when a secret does not exist.
var ErrSecretNotFound = errors.New("secret not found")

// SecretProvider retrieves secrets from a backend.
type SecretProvider interface {
	// GetSecret retrieves a secret by name.
	// Returns an error wrapping ErrSecretNotFound if the secret is absent.
	GetSecret(ctx context.Context, name string) (string, error)

	// ListSecrets returns all secret names available from this provider.
	// Values are not included.
	ListSecrets(ctx context.Context) ([]string, error)

	// Provider returns the provider name (env, file).
	Provider() string

	// Supports indicates if this provider can serve the given secret name.
	Supports(name string) bool
}

// RefreshableProvider can reload secrets without restart.
type RefreshableProvider interface {
	SecretProvider

	// Refresh drops any cached values so the next read hits the backend.
	Refresh(ctx context.Context) error
}
