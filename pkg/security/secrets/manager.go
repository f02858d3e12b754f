package secrets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"lantern-hq/lantern/pkg/config"

	"go.uber.org/zap"
)

// secretRefRegex matches ${secret:name} patterns in configuration values.
var secretRefRegex = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Manager tries each provider in order until one returns a value.
type Manager struct {
	providers []SecretProvider
	logger    *zap.Logger
}

var _ SecretProvider = (*Manager)(nil)

// NewManager creates a manager over providers, highest priority first.
func NewManager(logger *zap.Logger, providers ...SecretProvider) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		providers: providers,
		logger:    logger.Named("secrets"),
	}
}

// NewManagerFromConfig builds the standard chain: the secrets directory
// (when configured, watched for rotation) followed by the environment.
func NewManagerFromConfig(cfg config.SecretsConfig, logger *zap.Logger) (*Manager, error) {
	var providers []SecretProvider
	if cfg.Dir != "" {
		fp, err := NewFileProvider(cfg.Dir, true, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open secrets directory: %w", err)
		}
		providers = append(providers, fp)
	}
	providers = append(providers, NewEnvProvider(cfg.EnvPrefix))
	return NewManager(logger, providers...), nil
}

// GetSecret retrieves a secret from the first provider that has it.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	var lastErr error
	for _, provider := range m.providers {
		if !provider.Supports(name) {
			continue
		}

		value, err := provider.GetSecret(ctx, name)
		if err != nil {
			lastErr = err
			m.logger.Debug("provider failed to get secret",
				zap.String("provider", provider.Provider()),
				zap.String("name", redactSecretName(name)),
				zap.Error(err),
			)
			continue
		}

		m.logger.Debug("secret retrieved",
			zap.String("provider", provider.Provider()),
			zap.String("name", redactSecretName(name)),
		)
		return value, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", name, lastErr)
	}
	return "", fmt.Errorf("%w: %q (no provider supports this secret)", ErrSecretNotFound, name)
}

// ResolveReferences replaces ${secret:name} patterns with secret values.
// Unresolvable references are kept verbatim and reported in the error.
func (m *Manager) ResolveReferences(ctx context.Context, input string) (string, error) {
	var errs []error

	output := secretRefRegex.ReplaceAllStringFunc(input, func(match string) string {
		name := secretRefRegex.FindStringSubmatch(match)[1]
		value, err := m.GetSecret(ctx, name)
		if err != nil {
			errs = append(errs, err)
			return match
		}
		return value
	})

	if len(errs) > 0 {
		return output, fmt.Errorf("failed to resolve secret references: %w", errors.Join(errs...))
	}
	return output, nil
}

// Refresh reloads all refreshable providers.
func (m *Manager) Refresh(ctx context.Context) error {
	var errs []string
	for _, provider := range m.providers {
		refreshable, ok := provider.(RefreshableProvider)
		if !ok {
			continue
		}
		if err := refreshable.Refresh(ctx); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", provider.Provider(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to refresh some providers: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ListSecrets returns all secret names from all providers.
func (m *Manager) ListSecrets(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, provider := range m.providers {
		names, err := provider.ListSecrets(ctx)
		if err != nil {
			m.logger.Warn("failed to list secrets from provider",
				zap.String("provider", provider.Provider()),
				zap.Error(err),
			)
			continue
		}
		for _, name := range names {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Provider returns "manager".
func (m *Manager) Provider() string {
	return "manager"
}

// Supports reports whether any provider supports name.
func (m *Manager) Supports(name string) bool {
	for _, p := range m.providers {
		if p.Supports(name) {
			return true
		}
	}
	return false
}

// Close releases provider resources such as file watchers.
func (m *Manager) Close() error {
	var errs []error
	for _, p := range m.providers {
		if c, ok := p.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// redactSecretName shows only the first and last two characters.
func redactSecretName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
