package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
	apperrors "github.com/target/hr-dashboard/internal/errors"
	"github.com/target/hr-dashboard/internal/feature"
	"github.com/target/hr-dashboard/internal/guard"
	"github.com/target/hr-dashboard/internal/hrapi"
	"github.com/target/hr-dashboard/internal/http/ui/viewmodel"
	"github.com/target/hr-dashboard/internal/service"
)

// AuthService is the session behavior the web layer depends on.
type AuthService interface {
	Login(ctx context.Context, username, password string) (domainauth.Session, error)
	Session(ctx context.Context, sessionID string) (domainauth.Session, error)
	Revalidate(ctx context.Context, sessionID string) (domainauth.Session, error)
	Invalidate(ctx context.Context, sessionID string) error
	Logout(ctx context.Context, sessionID string) error
}

var _ AuthService = (*service.AuthService)(nil)

// AuthHandlers serves the sign-in form and sign-out.
type AuthHandlers struct {
	Svc        AuthService
	Workspaces *feature.Registry
	Cookie     SessionCookie
	Entry      guard.EntryPoints
	T          *TemplateRenderer
	HTMXScript string
	Logger     *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// LoginPage renders the sign-in form. A browser that still holds a session is
// sent to its role's home once GET /auth/me confirms the token; a session the
// backend no longer accepts is dropped and the form is shown.
// GET /auth/login.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if id := h.Cookie.Read(r); id != "" {
		sess, err := h.Svc.Revalidate(ctx, id)
		if err != nil {
			h.logger().WarnContext(ctx, "revalidate session failed", "error", err)
		}
		if err == nil && sess.Authenticated() {
			Redirect(w, r, h.Entry.Home(sess.User.Role))
			return
		}
		h.forget(id)
		h.Cookie.Clear(w)
	}
	h.renderLogin(w, r, http.StatusOK, "", "")
}

// Login exchanges the submitted credentials for a session.
// POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, "", "The form could not be read. Please try again.")
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	sess, err := h.Svc.Login(ctx, username, password)
	if err != nil {
		status, msg := loginFailure(err)
		if status >= http.StatusInternalServerError {
			h.logger().ErrorContext(ctx, "login failed", "username", username, "error", err)
		} else {
			h.logger().InfoContext(ctx, "login rejected", "username", username, "error", err)
		}
		h.renderLogin(w, r, status, username, msg)
		return
	}

	// A previous session in this browser is replaced, not shared.
	if old := h.Cookie.Read(r); old != "" && old != sess.ID {
		if err := h.Svc.Logout(ctx, old); err != nil {
			h.logger().WarnContext(ctx, "drop previous session failed", "error", err)
		}
		h.forget(old)
	}

	h.Cookie.Set(w, sess)
	Redirect(w, r, h.Entry.Home(sess.User.Role))
}

// Logout clears the stored session, the workspace and the cookie, then
// returns to the login page.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if id := h.Cookie.Read(r); id != "" {
		if err := h.Svc.Logout(ctx, id); err != nil {
			h.logger().WarnContext(ctx, "logout failed", "error", err)
		}
		h.forget(id)
	}
	h.Cookie.Clear(w)
	Redirect(w, r, h.Entry.Login)
}

// Status reports the current session without contacting the backend.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Svc.Session(r.Context(), h.Cookie.Read(r))
	if err != nil {
		WriteError(w, r, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "session_unavailable", Err: err})
		return
	}
	if !sess.Authenticated() {
		WriteJSON(w, r, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	WriteJSON(w, r, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"username":    sess.User.Username,
			"role":        sess.User.Role,
			"employee_id": sess.User.EmployeeID,
		},
		"home":       h.Entry.Home(sess.User.Role),
		"expires_at": sess.ExpiresAt,
	})
}

func (h *AuthHandlers) forget(id string) {
	if h.Workspaces != nil {
		h.Workspaces.Forget(id)
	}
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, r *http.Request, status int, username, msg string) {
	page := viewmodel.LoginPage{
		Layout: viewmodel.Layout{
			Title:         "Sign in · HR Dashboard",
			PageTitle:     "Sign in",
			CurrentPage:   viewmodel.PageLogin,
			HTMXScriptURL: h.HTMXScript,
			CSRFToken:     GetCSRFToken(r),
		},
		Action:   h.Entry.Login,
		Username: username,
		Error:    msg,
	}
	_ = h.T.RenderFull(w, status, page)
}

// loginFailure maps a login error to a status and the message shown on the form.
func loginFailure(err error) (int, string) {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return http.StatusUnprocessableEntity, appErr.Message
	case errors.Is(err, service.ErrUnknownRole):
		return http.StatusForbidden, "Your account has no access to the HR dashboard."
	case errors.Is(err, hrapi.ErrInvalidCredentials):
		msg := "Invalid username or password."
		var apiErr *hrapi.APIError
		if errors.As(err, &apiErr) && apiErr.Detail() != "" {
			msg = apiErr.Detail()
		}
		return http.StatusUnauthorized, msg
	default:
		return http.StatusBadGateway, "Sign-in is unavailable right now. Please try again."
	}
}
