package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/target/hr-dashboard/config"
	"github.com/target/hr-dashboard/internal/feature"
	"github.com/target/hr-dashboard/internal/hrapi"
	"github.com/target/hr-dashboard/internal/observability/metrics"
	"github.com/target/hr-dashboard/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	API        *hrapi.Client
	Auth       *service.AuthService
	Workspaces *feature.Registry
	Metrics    *metrics.Metrics
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Infra  *Infrastructure
	Logger *slog.Logger
}

// NewServices wires the backend client, authentication and workspaces.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil || deps.Infra == nil {
		return ServiceContainer{}, errors.New("service deps require config and infrastructure")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	m := metrics.New()

	api, err := hrapi.New(hrapi.Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		Observer:   m,
		Logger:     logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build hr api client: %w", err)
	}

	auth := service.NewAuthService(service.AuthServiceOptions{
		Identity:   hrapi.Identity{Client: api},
		Sessions:   deps.Infra.Sessions,
		SessionTTL: cfg.Session.TTL,
		Logger:     logger,
	})

	var workspaces *feature.Registry
	workspaces = feature.NewRegistry(feature.Deps{
		API:      api,
		Sessions: deps.Infra.Sessions,
		Metrics:  m,
		Logger:   logger,
		OnAuthRejected: func(ctx context.Context, sessionID string) {
			if err := auth.Invalidate(ctx, sessionID); err != nil {
				logger.WarnContext(ctx, "failed to clear rejected session", "error", err)
			}
			workspaces.Forget(sessionID)
		},
	})

	return ServiceContainer{
		API:        api,
		Auth:       auth,
		Workspaces: workspaces,
		Metrics:    m,
	}, nil
}

// ServiceOrchestrationConfig groups what RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Infra    *Infrastructure
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) (*http.Server, error) {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil, nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
		ErrCh:    deps.errCh,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name,
					"error", errMsg,
				)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}
		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}
	return handles
}

// newWorkspaceSweeperService drops workspaces of sessions that stopped
// polling. It runs alongside the HTTP server, which owns the workspaces.
func newWorkspaceSweeperService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeHTTP,
		name: "workspace-sweeper",
		start: func(ctx context.Context) error {
			cfg := deps.cfg.Config
			reaper, err := service.NewReaperService(service.ReaperServiceOptions{
				Sweeper:  deps.cfg.Services.Workspaces,
				IdleTTL:  cfg.Session.WorkspaceIdleTTL,
				Interval: sweepInterval(cfg.Session.WorkspaceIdleTTL),
				Logger:   deps.logger,
				Metrics:  deps.cfg.Services.Metrics,
			})
			if err != nil {
				return err
			}
			return reaper.Run(ctx)
		},
	}
}

// newReaperBackgroundService purges expired sessions from stores without
// native expiry.
func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			if deps.cfg.Infra == nil || deps.cfg.Infra.Purger == nil {
				deps.logger.InfoContext(ctx, "session backend expires entries natively; reaper idle",
					"backend", deps.cfg.Config.Session.Backend)
				<-ctx.Done()
				return nil
			}
			reaper, err := service.NewReaperService(service.ReaperServiceOptions{
				Purger:   deps.cfg.Infra.Purger,
				Interval: deps.cfg.Config.Reaper.Interval,
				Logger:   deps.logger,
				Metrics:  deps.cfg.Services.Metrics,
			})
			if err != nil {
				return err
			}
			return reaper.Run(ctx)
		},
	}
}

// sweepInterval checks a few times per idle window, but at most once a minute.
func sweepInterval(idle time.Duration) time.Duration {
	interval := idle / 4
	if interval < time.Minute {
		return time.Minute
	}
	return interval
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newWorkspaceSweeperService(deps),
		newReaperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) (ServiceStartupResult, error) {
	server, err := startHTTPServerIfEnabled(deps)
	if err != nil {
		return ServiceStartupResult{}, err
	}
	return ServiceStartupResult{
		HTTPServer: server,
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}, nil
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	// One slot per service plus the HTTP listener.
	errCh := make(chan error, len(enabledServices)+2)

	result, err := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})
	if err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return waitForShutdown(shutdownConfig{
		quit:        quit,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		workspaces:  cfg.Services.Workspaces,
		logger:      logger,
		backgrounds: result.Background,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	quit        <-chan os.Signal
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	workspaces  *feature.Registry
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case <-cfg.quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop stops the HTTP server, waits for in-flight loaders and then
// for background services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	if cfg.workspaces != nil {
		done := make(chan struct{})
		go func() {
			cfg.workspaces.Wait()
			close(done)
		}()
		waitForService(done, "workspace loaders", cfg.logger)
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}
	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
