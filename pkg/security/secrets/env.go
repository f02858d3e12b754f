package secrets

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// EnvProvider loads secrets from environment variables.
//
// Example:
//   - Secret name: "honeycomb-write-key"
//   - Env var name: "LANTERN_SECRET_HONEYCOMB_WRITE_KEY" (with prefix "LANTERN_SECRET_")
type EnvProvider struct {
	Prefix string // Optional prefix for environment variables

	lookup func(string) (string, bool)
}

// NewEnvProvider creates a new environment variable secret provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{
		Prefix: prefix,
		lookup: os.LookupEnv,
	}
}

// GetSecret retrieves a secret from an environment variable. An empty
// variable counts as missing.
func (p *EnvProvider) GetSecret(_ context.Context, name string) (string, error) {
	envVar := p.secretNameToEnvVar(name)

	value, ok := p.lookupEnv(envVar)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w in environment: %s (env var: %s)", ErrSecretNotFound, name, envVar)
	}
	return strings.TrimSpace(value), nil
}

// ListSecrets returns the names of all environment variables carrying the
// prefix. Without a prefix nothing is listed.
func (p *EnvProvider) ListSecrets(context.Context) ([]string, error) {
	if p.Prefix == "" {
		return nil, nil
	}

	var names []string
	for _, env := range os.Environ() {
		key, _, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, p.Prefix) {
			continue
		}
		names = append(names, p.envVarToSecretName(key))
	}
	sort.Strings(names)
	return names, nil
}

// Provider returns the provider name.
func (p *EnvProvider) Provider() string {
	return "env"
}

// Supports always returns true so the environment acts as a fallback.
func (p *EnvProvider) Supports(string) bool {
	return true
}

func (p *EnvProvider) lookupEnv(key string) (string, bool) {
	if p.lookup == nil {
		return os.LookupEnv(key)
	}
	return p.lookup(key)
}

// secretNameToEnvVar converts a secret name to an environment variable name.
//
// Example: "honeycomb-write-key" -> "LANTERN_SECRET_HONEYCOMB_WRITE_KEY"
func (p *EnvProvider) secretNameToEnvVar(name string) string {
	return p.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// envVarToSecretName converts an environment variable name back to a secret name.
//
// Example: "LANTERN_SECRET_HONEYCOMB_WRITE_KEY" -> "honeycomb-write-key"
func (p *EnvProvider) envVarToSecretName(envVar string) string {
	name := strings.TrimPrefix(envVar, p.Prefix)
	return strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}
