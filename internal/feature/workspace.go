package feature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
	apperrors "github.com/target/hr-dashboard/internal/errors"
	"github.com/target/hr-dashboard/internal/hrapi"
	obserrors "github.com/target/hr-dashboard/internal/observability/errors"
	"github.com/target/hr-dashboard/internal/observability/metrics"
	"github.com/target/hr-dashboard/internal/ports"
	"github.com/target/hr-dashboard/internal/view"
)

// SessionExpiredNotice replaces a loader's notice when the backend rejected
// the session token.
const SessionExpiredNotice = "Your session has expired. Please sign in again."

// Deps are the collaborators shared by every workspace.
type Deps struct {
	API      *hrapi.Client
	Sessions ports.SessionStore
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Now      func() time.Time

	// OnAuthRejected runs when a loader call comes back 401/403.
	OnAuthRejected func(ctx context.Context, sessionID string)
}

// Workspace is one session's view router and region board for a surface.
type Workspace struct {
	SessionID string
	User      domainauth.UserProfile
	Surface   *Surface
	Router    *view.Router
	Board     *view.Board

	api    *hrapi.Client
	deps   Deps
	logger *slog.Logger

	mu       sync.Mutex
	filters  map[view.Name]url.Values
	lastUsed time.Time

	inflight sync.WaitGroup
	// tracked is the owning registry's loader count, nil when standalone.
	tracked *sync.WaitGroup
}

// NewWorkspace builds the router and board for surface. Backend calls read the
// session token from the store at call time, so a cleared session makes them
// unauthenticated immediately.
func NewWorkspace(sess domainauth.Session, surface *Surface, deps Deps) *Workspace {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	w := &Workspace{
		SessionID: sess.ID,
		User:      sess.User,
		Surface:   surface,
		Board:     view.NewBoard(),
		deps:      deps,
		logger:    deps.Logger.With("surface", surface.Name),
		filters:   make(map[view.Name]url.Values),
		lastUsed:  deps.Now(),
	}
	if deps.API != nil {
		w.api = deps.API.WithToken(w.token)
	}

	defs := make([]view.Definition, 0, len(surface.Views))
	for _, v := range surface.Views {
		callbacks := make([]view.Callback, 0, len(v.Loaders))
		for _, l := range v.Loaders {
			callbacks = append(callbacks, w.loader(v.Name, l))
		}
		defs = append(defs, view.Definition{Name: v.Name, Title: v.Title, OnEnter: callbacks})
	}
	w.Router = view.NewRouter(defs,
		view.WithListener(w.Board),
		view.WithActivationHook(func(name view.Name) {
			deps.Metrics.ViewActivated(surface.Name, string(name))
		}),
	)
	for _, h := range surface.Hooks {
		w.Router.OnEnter(h.View, w.loader(h.View, h.Loader))
	}
	w.Board.OnStale(func(name view.Name, slot string) {
		deps.Metrics.StaleResult(string(name), slot)
		w.logger.Debug("dropped stale loader result", "view", name, "slot", slot)
	})
	return w
}

func (w *Workspace) token(ctx context.Context) string {
	if w.deps.Sessions == nil {
		return ""
	}
	sess, err := w.deps.Sessions.Load(ctx, w.SessionID)
	if err != nil {
		w.logger.WarnContext(ctx, "session lookup failed", "error", err)
		return ""
	}
	return sess.Token
}

// API returns the backend client bound to this workspace's session.
func (w *Workspace) API() *hrapi.Client { return w.api }

// Now returns the workspace clock.
func (w *Workspace) Now() time.Time { return w.deps.Now() }

// EmployeeID returns the linked employee id, or an Unavailable error.
func (w *Workspace) EmployeeID() (int, error) {
	if !w.User.HasEmployee() {
		return 0, apperrors.Unavailable("Your account is not linked to an employee record.")
	}
	return *w.User.EmployeeID, nil
}

// SetFilters replaces the query filters of name.
func (w *Workspace) SetFilters(name view.Name, q url.Values) {
	cp := make(url.Values, len(q))
	for k, v := range q {
		cp[k] = append([]string(nil), v...)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filters[name] = cp
}

// Filters returns a copy of the query filters of name.
func (w *Workspace) Filters(name view.Name) url.Values {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := make(url.Values, len(w.filters[name]))
	for k, v := range w.filters[name] {
		cp[k] = append([]string(nil), v...)
	}
	return cp
}

// Activate switches to name and starts its loaders.
func (w *Workspace) Activate(ctx context.Context, name view.Name) bool {
	w.touch()
	return w.Router.Activate(ctx, name)
}

// Wait blocks until every loader started so far has finished.
func (w *Workspace) Wait() { w.inflight.Wait() }

func (w *Workspace) touch() {
	w.mu.Lock()
	w.lastUsed = w.deps.Now()
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

func (w *Workspace) loader(name view.Name, l Loader) view.Callback {
	return func(ctx context.Context, t view.Ticket) {
		if !w.Board.Begin(t, l.Slot) {
			return
		}
		filters := w.Filters(name)
		lctx := context.WithoutCancel(ctx)

		w.inflight.Add(1)
		if w.tracked != nil {
			w.tracked.Add(1)
		}
		go func() {
			defer w.inflight.Done()
			if w.tracked != nil {
				defer w.tracked.Done()
			}
			data, err := l.Fetch(lctx, w, filters)
			w.deps.Metrics.LoaderResult(string(name), l.Slot, err)
			if err != nil {
				w.fail(lctx, t, name, l, err)
				return
			}
			w.Board.Apply(t, l.Slot, data)
		}()
	}
}

func (w *Workspace) fail(ctx context.Context, t view.Ticket, name view.Name, l Loader, err error) {
	w.logger.WarnContext(ctx, "feature loader failed",
		"view", name,
		"slot", l.Slot,
		"error_class", obserrors.Classify(err),
		"error", err,
	)
	if hrapi.IsAuthRejected(err) {
		if w.deps.OnAuthRejected != nil {
			w.deps.OnAuthRejected(ctx, w.SessionID)
		}
		w.Board.Fail(t, l.Slot, SessionExpiredNotice)
		return
	}
	w.Board.Fail(t, l.Slot, Notice(err, l.Notice))
}

// Notice turns err into region text: validation and availability messages are
// shown as is, backend refusals append the backend detail to fallback.
func Notice(err error, fallback string) string {
	if msg := apperrors.Message(err, ""); msg != "" {
		return msg
	}
	if hrapi.IsAuthRejected(err) {
		return SessionExpiredNotice
	}
	var apiErr *hrapi.APIError
	if errors.As(err, &apiErr) {
		if d := apiErr.Detail(); d != "" {
			return fmt.Sprintf("%s %s", fallback, d)
		}
	}
	return fallback
}

// Registry keeps one workspace per session and surface.
type Registry struct {
	deps  Deps
	mu    sync.Mutex
	items map[string]*Workspace
	group singleflight.Group

	inflight sync.WaitGroup
}

// NewRegistry returns an empty registry sharing deps.
func NewRegistry(deps Deps) *Registry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Registry{deps: deps, items: make(map[string]*Workspace)}
}

func registryKey(sessionID, surface string) string { return sessionID + "/" + surface }

// Open returns the workspace of sess on surface, creating it on first use.
// Concurrent first requests for the same session share one workspace.
func (r *Registry) Open(sess domainauth.Session, surface *Surface) *Workspace {
	key := registryKey(sess.ID, surface.Name)
	if w, ok := r.Lookup(sess.ID, surface.Name); ok {
		w.touch()
		return w
	}

	v, _, _ := r.group.Do(key, func() (any, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if w, ok := r.items[key]; ok {
			return w, nil
		}
		w := NewWorkspace(sess, surface, r.deps)
		w.tracked = &r.inflight
		r.items[key] = w
		return w, nil
	})
	return v.(*Workspace)
}

// Lookup returns an existing workspace.
func (r *Registry) Lookup(sessionID, surface string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[registryKey(sessionID, surface)]
	return w, ok
}

// Forget drops every workspace of sessionID. In-flight loaders finish against
// the detached board.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, w := range r.items {
		if w.SessionID == sessionID {
			delete(r.items, key)
		}
	}
}

// Sweep drops workspaces idle for longer than maxIdle and returns how many
// were removed.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.deps.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, w := range r.items {
		if w.idleSince().Before(cutoff) {
			delete(r.items, key)
			n++
		}
	}
	return n
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Wait blocks until every loader started by a registry workspace finishes,
// including workspaces already forgotten or swept.
func (r *Registry) Wait() { r.inflight.Wait() }
