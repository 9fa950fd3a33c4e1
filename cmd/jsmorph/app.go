package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/jsmorph/pkg/batch"
	"github.com/Sumatoshi-tech/jsmorph/pkg/config"
	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
	"github.com/Sumatoshi-tech/jsmorph/pkg/ruleset"
	"github.com/Sumatoshi-tech/jsmorph/pkg/version"
)

// app bundles what every command needs: configuration, telemetry and an
// engine wired to both.
type app struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
	engine    *rewrite.Engine
}

// newApp loads the configuration and initializes observability for mode.
// The caller must call close.
func newApp(flags *globalFlags, mode observability.AppMode) (*app, error) {
	cfg, err := config.LoadConfig(flags.config)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.FromAppConfig(cfg, mode, version.Version)

	if mode == observability.ModeMCP {
		obsCfg.LogJSON = true
	}

	switch {
	case flags.verbose:
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	case flags.quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	engine, err := rewrite.NewEngine(
		rewrite.WithLogger(providers.Logger),
		rewrite.WithTracer(providers.Tracer),
	)
	if err != nil {
		_ = providers.Shutdown(context.Background())

		return nil, fmt.Errorf("create engine: %w", err)
	}

	return &app{cfg: cfg, providers: providers, logger: providers.Logger, engine: engine}, nil
}

func (a *app) close() {
	err := a.providers.Shutdown(context.Background())
	if err != nil {
		a.logger.Warn("observability shutdown failed", "error", err)
	}
}

// runner builds a batch runner from the batch section of the configuration.
func (a *app) runner(write bool) (*batch.Runner, error) {
	maxSize, err := a.cfg.Batch.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	return batch.NewRunner(batch.Options{
		Workers:         a.cfg.Batch.Workers,
		MaxFileSize:     maxSize,
		IncludeVendored: a.cfg.Batch.IncludeVendored,
		Extensions:      a.cfg.Batch.Extensions,
		Write:           write,
	}, batch.WithLogger(a.logger), batch.WithTracer(a.providers.Tracer)), nil
}

// loadRules reads, validates and compiles a rule-set file. An empty path
// falls back to rules.file from the configuration.
func (a *app) loadRules(ctx context.Context, path string) (*ruleset.Compiled, error) {
	if path == "" {
		path = a.cfg.Rules.File
	}

	if path == "" {
		return nil, ErrNoRuleSet
	}

	resolved, err := resolveUserFilePath(path)
	if err != nil {
		return nil, fmt.Errorf("rule set: %w", err)
	}

	rs, err := ruleset.Load(resolved)
	if err != nil {
		return nil, err
	}

	return rs.Compile(ctx, a.engine, a.logger)
}
