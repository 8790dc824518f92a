package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
	"github.com/target/hr-dashboard/internal/guard"
	"github.com/target/hr-dashboard/internal/observability/metrics"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Bool("htmx", IsHTMX(r)),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// GuardConfig holds what RequireRole needs to admit a request.
type GuardConfig struct {
	Auth    AuthService
	Guard   *guard.Guard
	Cookie  SessionCookie
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// RequireRole admits requests whose stored session holds role and redirects
// every other request before any backend call is made: sessions without a
// token go to the login page, sessions of another role go to that role's own
// home. A token stored without a usable profile is cleared on the way out.
func RequireRole(cfg GuardConfig, surface string, role domainauth.Role) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id := cfg.Cookie.Read(r)
			sess, err := cfg.Auth.Session(ctx, id)
			if err != nil {
				logger.ErrorContext(ctx, "session lookup failed", "surface", surface, "error", err)
				http.Error(w, "Session storage is unavailable. Please try again shortly.", http.StatusServiceUnavailable)
				return
			}

			d := cfg.Guard.Evaluate(sess, role)
			cfg.Metrics.GuardDecision(surface, d.State.String())
			if d.Allowed() {
				next.ServeHTTP(w, r.WithContext(SetSessionInContext(ctx, sess)))
				return
			}

			if d.State == guard.Unauthenticated && id != "" {
				if !sess.Empty() {
					if err := cfg.Auth.Invalidate(ctx, id); err != nil {
						logger.WarnContext(ctx, "clear unusable session failed", "error", err)
					}
				}
				cfg.Cookie.Clear(w)
			}
			logger.DebugContext(ctx, "guard redirect",
				"surface", surface,
				"state", d.State.String(),
				"redirect", d.Redirect,
			)
			Redirect(w, r, d.Redirect)
		})
	}
}
