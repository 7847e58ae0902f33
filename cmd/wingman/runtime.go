package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wingman/internal/config"
	"github.com/nvandessel/wingman/internal/engine"
	"github.com/nvandessel/wingman/internal/events"
	"github.com/nvandessel/wingman/internal/logging"
	"github.com/nvandessel/wingman/internal/service"
	"github.com/nvandessel/wingman/internal/store"
)

// loadConfig resolves configuration and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.WingmanConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.WingmanConfig
	var err error
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if rulesPath, _ := cmd.Flags().GetString("rules"); rulesPath != "" {
		cfg.Rules.Path = rulesPath
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// appOptions selects which collaborators a command needs.
type appOptions struct {
	store  bool
	events bool
}

// app is the wired analysis stack for one command invocation.
type app struct {
	cfg       *config.WingmanConfig
	logger    *slog.Logger
	decisions *logging.DecisionLogger
	history   store.HistoryStore // nil when history is disabled
	svc       *service.Service
}

// newApp builds the engine and service from configuration.
// Logs go to stderr so stdout stays clean for results and MCP traffic.
func newApp(ctx context.Context, cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	decisions := logging.NewDecisionLogger(cfg.Logging.Dir, cfg.Logging.Level)

	engOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithDecisionLogger(decisions),
	}
	var eng *engine.Engine
	if cfg.Rules.Path != "" {
		eng, err = engine.NewFromFile(cfg.Rules.Path, engOpts...)
	} else {
		eng, err = engine.NewDefault(engOpts...)
	}
	if err != nil {
		decisions.Close()
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithRulesPath(cfg.Rules.Path),
	}

	var hs store.HistoryStore
	if opts.store {
		hs, err = store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			decisions.Close()
			return nil, fmt.Errorf("failed to open history store (%s): %w", cfg.Store, err)
		}
		if hs != nil {
			svcOpts = append(svcOpts, service.WithStore(hs))
		}
	}

	if opts.events && cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, logger)
		if err != nil {
			if hs != nil {
				hs.Close()
			}
			decisions.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		svcOpts = append(svcOpts, service.WithPublisher(pub))
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		decisions: decisions,
		history:   hs,
		svc:       service.New(eng, svcOpts...),
	}, nil
}

// Close releases the store, the publisher and the decision log.
func (a *app) Close() {
	if err := a.svc.Close(); err != nil {
		a.logger.Warn("closing service", "error", err)
	}
	a.decisions.Close()
}
