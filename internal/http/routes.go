package httpx

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	hrdashboard "github.com/target/hr-dashboard"
	"github.com/target/hr-dashboard/internal/feature"
	"github.com/target/hr-dashboard/internal/guard"
	"github.com/target/hr-dashboard/internal/observability/metrics"
)

// Template and static paths relative to the project root, used in dev mode.
const (
	TemplatePathFromRoot = "frontend/templates"
	StaticPathFromRoot   = "frontend/static"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth       AuthService
	Workspaces *feature.Registry
	Surfaces   []*feature.Surface
	Guard      *guard.Guard
	Cookie     SessionCookie
	Metrics    *metrics.Metrics
	// MetricsPath exposes Prometheus metrics when non-empty.
	MetricsPath   string
	HTMXScriptURL string
	// TemplateFS overrides the embedded or on-disk templates (tests).
	TemplateFS fs.FS
	IsDev      bool         // Serve templates and assets from disk
	Logger     *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, err := templateFS(services)
	if err != nil {
		return nil, err
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		DevMode:    services.IsDev && services.TemplateFS == nil,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create template renderer: %w", err)
	}

	entry := services.Guard.EntryPoints()
	mux := http.NewServeMux()
	csrf := CSRFProtection(CSRFConfig{
		CookieDomain: services.Cookie.Domain,
		Secure:       services.Cookie.Secure,
	})

	authHandlers := &AuthHandlers{
		Svc:        services.Auth,
		Workspaces: services.Workspaces,
		Cookie:     services.Cookie,
		Entry:      entry,
		T:          tr,
		HTMXScript: services.HTMXScriptURL,
		Logger:     logger,
	}
	registerAuthRoutes(mux, authHandlers, csrf)

	guardCfg := GuardConfig{
		Auth:    services.Auth,
		Guard:   services.Guard,
		Cookie:  services.Cookie,
		Metrics: services.Metrics,
		Logger:  logger,
	}
	for _, s := range services.Surfaces {
		h := &SurfaceHandlers{
			Surface:    s,
			Workspaces: services.Workspaces,
			Home:       entry.Home(s.Role),
			LogoutURL:  "/auth/logout",
			T:          tr,
			HTMXScript: services.HTMXScriptURL,
			Logger:     logger.With("surface", s.Name),
		}
		roleCheck := RequireRole(guardCfg, s.Name, s.Role)
		registerSurfaceRoutes(mux, h, func(next http.Handler) http.Handler {
			return roleCheck(csrf(next))
		})
	}

	mux.Handle("GET /{$}", http.RedirectHandler(entry.Login, http.StatusSeeOther))
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	if services.MetricsPath != "" && services.Metrics != nil {
		mux.Handle("GET "+services.MetricsPath, services.Metrics.Handler())
	}
	mux.Handle("GET /static/", staticHandler(services.IsDev))

	return mux, nil
}

func templateFS(services RouterServices) (fs.FS, error) {
	if services.TemplateFS != nil {
		return services.TemplateFS, nil
	}
	if services.IsDev {
		return os.DirFS(TemplatePathFromRoot), nil
	}
	sub, err := fs.Sub(hrdashboard.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		return nil, fmt.Errorf("template sub-filesystem: %w", err)
	}
	return sub, nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, csrf func(http.Handler) http.Handler) {
	mux.Handle("GET "+h.Entry.Login, csrf(http.HandlerFunc(h.LoginPage)))
	mux.Handle("POST "+h.Entry.Login, csrf(http.HandlerFunc(h.Login)))
	mux.Handle("POST /auth/logout", csrf(http.HandlerFunc(h.Logout)))
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerSurfaceRoutes(mux *http.ServeMux, h *SurfaceHandlers, wrap func(http.Handler) http.Handler) {
	mux.Handle("GET "+h.Home, wrap(http.HandlerFunc(h.Page)))
	mux.Handle("GET "+h.Home+"/views/{view}", wrap(http.HandlerFunc(h.View)))
	mux.Handle("GET "+h.Home+"/views/{view}/region", wrap(http.HandlerFunc(h.Region)))
	mux.Handle("POST "+h.Home+"/views/{view}/actions/{action}", wrap(http.HandlerFunc(h.Action)))
	mux.Handle("GET "+h.Home+"/downloads/{report}", wrap(http.HandlerFunc(h.Download)))
}

// staticHandler serves /static/* from disk in dev mode and from the embedded
// FS otherwise.
func staticHandler(isDev bool) http.Handler {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(StaticPathFromRoot))), false)
	}
	sub, err := fs.Sub(hrdashboard.StaticFS, StaticPathFromRoot)
	if err != nil {
		slog.Default().Error("failed to create sub-filesystem for static assets", "error", err)
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(StaticPathFromRoot))), false)
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(sub))), true)
}

// staticWithCacheHeaders lets browsers keep embedded assets for an hour and
// forbids caching of on-disk assets during development.
func staticWithCacheHeaders(handler http.Handler, cacheable bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cacheable {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		handler.ServeHTTP(w, r)
	})
}
