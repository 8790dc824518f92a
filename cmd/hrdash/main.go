// Command hrdash serves the HR dashboard and, when enabled, the session reaper.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/target/hr-dashboard/config"
	"github.com/target/hr-dashboard/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		bootstrap.InitLogger(false).ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}

	logger := bootstrap.InitLogger(cfg.IsDev)
	if err := run(ctx, logger, &cfg); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) error {
	logStartupInfo(ctx, logger, cfg)

	if err := bootstrap.ValidateServiceConfig(cfg); err != nil {
		return err
	}

	infra, err := bootstrap.ConnectSessions(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close infrastructure failed", "error", cerr)
		}
	}()

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config: cfg,
		Infra:  infra,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   cfg,
		Services: services,
		Infra:    infra,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting hr dashboard",
		"api_base_url", cfg.API.BaseURL,
		"session_backend", cfg.Session.Backend,
		"enabled_services", bootstrap.GetEnabledServices(cfg),
		"dev", cfg.IsDev,
	)
}
