package main

import (
	"context"

	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/security/secrets"
	"lantern-hq/lantern/pkg/server"
	"lantern-hq/lantern/pkg/telemetry/health"
	"lantern-hq/lantern/pkg/telemetry/logging"
	"lantern-hq/lantern/pkg/telemetry/metrics"
	"lantern-hq/lantern/pkg/telemetry/tracing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// appOptions assembles the service graph for cfg. Start order follows
// dependencies: logging, secrets, metrics, tracing, health, then the
// server. Stop runs in reverse, so the server drains before the tracer
// shuts down.
func appOptions(cfg *config.Config) []fx.Option {
	return []fx.Option{
		fx.Supply(cfg, versionInfo()),
		fx.Supply(fx.Annotated{Name: "version", Target: Version}),
		logging.FXModule,
		fx.Provide(newSecretProvider),
		metrics.FXModule,
		tracing.FXModule,
		health.FXModule,
		server.FXModule,
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
	}
}

// newSecretProvider builds the secret chain used to resolve destination
// credentials and closes it when the application stops.
func newSecretProvider(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (secrets.SecretProvider, error) {
	m, err := secrets.NewManagerFromConfig(cfg.Secrets, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return m.Close()
		},
	})
	return m, nil
}

// watchConfig applies log level changes from the configuration file while
// the application runs. Other settings need a restart.
func watchConfig(path string) fx.Option {
	return fx.Invoke(func(lc fx.Lifecycle, l *logging.Logger, logger *zap.Logger) error {
		w, err := config.NewWatcher(path, logger)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					defer close(done)
					if err := w.Watch(ctx, func(cfg *config.Config) {
						applyReload(l, logger, cfg)
					}); err != nil {
						logger.Error("configuration watcher failed", zap.Error(err))
					}
				}()
				return nil
			},
			OnStop: func(stopCtx context.Context) error {
				cancel()
				select {
				case <-done:
				case <-stopCtx.Done():
				}
				return nil
			},
		})
		return nil
	})
}

func applyReload(l *logging.Logger, logger *zap.Logger, cfg *config.Config) {
	level := cfg.Telemetry.Logging.Level
	previous := l.Level()
	if err := l.SetLevel(level); err != nil {
		logger.Warn("ignoring reloaded log level", zap.String("level", level), zap.Error(err))
		return
	}
	if l.Level() != previous {
		logger.Info("log level changed", zap.String("from", previous), zap.String("to", l.Level()))
	}
}
