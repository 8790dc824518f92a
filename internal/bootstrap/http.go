package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/hr-dashboard/config"
	"github.com/target/hr-dashboard/internal/feature"
	"github.com/target/hr-dashboard/internal/guard"
	httpx "github.com/target/hr-dashboard/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
	// ErrCh receives listener failures. Optional.
	ErrCh chan<- error
}

// StartHTTPServer builds the router and starts serving in the background.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler, err := buildHTTPHandler(httpHandlerConfig{
		Logger:   logger,
		Services: routerServices(appCfg, cfg.Services, logger),
		HTTP:     appCfg.HTTP,
	})
	if err != nil {
		return nil, err
	}

	return startServer(logger, handler, appCfg.HTTP.Addr, cfg.ErrCh), nil
}

func routerServices(cfg *config.AppConfig, svc ServiceContainer, logger *slog.Logger) httpx.RouterServices {
	metricsPath := ""
	if cfg.Observability.Metrics.IsEnabled() {
		metricsPath = cfg.Observability.Metrics.Path
	}
	return httpx.RouterServices{
		Auth:       svc.Auth,
		Workspaces: svc.Workspaces,
		Surfaces:   feature.Surfaces(),
		Guard: guard.New(guard.EntryPoints{
			Login:    cfg.Entry.Login,
			Admin:    cfg.Entry.Admin,
			Employee: cfg.Entry.Employee,
		}),
		Cookie: httpx.SessionCookie{
			Name:   cfg.Session.CookieName,
			Domain: cfg.HTTP.CookieDomain,
			Secure: cfg.HTTP.CookieSecure,
		},
		Metrics:       svc.Metrics,
		MetricsPath:   metricsPath,
		HTMXScriptURL: cfg.HTTP.HTMXScriptURL,
		IsDev:         cfg.IsDev,
		Logger:        logger,
	}
}

type httpHandlerConfig struct {
	Logger   *slog.Logger
	Services httpx.RouterServices
	HTTP     config.HTTPConfig
}

func buildHTTPHandler(cfg httpHandlerConfig) (http.Handler, error) {
	router, err := httpx.NewRouter(cfg.Services)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	// Order: Recover -> Logging -> Compression -> Router
	h := router
	if cfg.HTTP.CompressionEnabled {
		cfg.Logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.HTTP.CompressionLevel})(h)
	}

	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)
	return h, nil
}

func startServer(logger *slog.Logger, handler http.Handler, addr string, errCh chan<- error) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	// WriteTimeout stays unset so report downloads are not cut off.
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				select {
				case errCh <- fmt.Errorf("http server: %w", err):
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}
	return nil
}
