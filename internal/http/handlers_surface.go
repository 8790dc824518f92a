package httpx

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/target/hr-dashboard/internal/feature"
	"github.com/target/hr-dashboard/internal/http/ui/viewmodel"
	"github.com/target/hr-dashboard/internal/view"
)

const downloadFailure = "Could not download the report."

// SurfaceHandlers serves one surface (admin or employee). Every handler runs
// behind RequireRole, so the session in the request context is authorized.
type SurfaceHandlers struct {
	Surface    *feature.Surface
	Workspaces *feature.Registry
	// Home is the surface's entry point; views live under Home+"/views/".
	Home       string
	LogoutURL  string
	T          *TemplateRenderer
	HTMXScript string
	Logger     *slog.Logger
}

func (h *SurfaceHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *SurfaceHandlers) workspace(r *http.Request) (*feature.Workspace, bool) {
	sess, ok := GetSessionFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return h.Workspaces.Open(sess, h.Surface), true
}

func (h *SurfaceHandlers) viewURL(name view.Name) string {
	return h.Home + "/views/" + url.PathEscape(string(name))
}

func (h *SurfaceHandlers) pageURL(name view.Name, q url.Values) string {
	v := url.Values{}
	for k, vals := range q {
		v[k] = vals
	}
	if name != h.Surface.DefaultView {
		v.Set("view", string(name))
	}
	if len(v) == 0 {
		return h.Home
	}
	return h.Home + "?" + v.Encode()
}

// Page renders the surface with its default view, or ?view= when given.
// GET /admin, GET /employee.
func (h *SurfaceHandlers) Page(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	q := r.URL.Query()
	name := h.Surface.DefaultView
	if v := view.Name(q.Get("view")); v != "" && ws.Router.Has(v) {
		name = v
	}
	q.Del("view")

	ws.SetFilters(name, q)
	ws.Activate(r.Context(), name)
	h.renderPage(w, r, ws, name)
}

// View activates a view. htmx gets the nav and region fragment, plain
// requests the full page. Unknown views are a no-op for htmx; plain requests
// go back to the page of the active view, or the surface home before any.
// GET /{surface}/views/{view}.
func (h *SurfaceHandlers) View(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	name := view.Name(r.PathValue("view"))
	if !ws.Router.Has(name) {
		if IsHTMX(r) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		target := h.Home
		if active := ws.Router.Active(); active != "" {
			target = h.pageURL(active, ws.Filters(active))
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	q := r.URL.Query()
	ws.SetFilters(name, q)
	ws.Activate(r.Context(), name)

	if WantsPartial(r) {
		SetHXPushURL(w, h.pageURL(name, q))
		_ = h.T.Render(w, http.StatusOK, "workspace", h.workspaceModel(r, ws, name))
		return
	}
	h.renderPage(w, r, ws, name)
}

// Region returns the current snapshot of a view's region. A view that is no
// longer active answers 204 so the client stops polling it.
// GET /{surface}/views/{view}/region.
func (h *SurfaceHandlers) Region(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	name := view.Name(r.PathValue("view"))
	if !ws.Router.Has(name) {
		http.NotFound(w, r)
		return
	}
	if !ws.Router.IsActive(name) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_ = h.T.Render(w, http.StatusOK, "region", h.regionModel(r, ws, name))
}

// Action performs a form submission and re-enters its view. The outcome is
// shown as the region's flash.
// POST /{surface}/views/{view}/actions/{action}.
func (h *SurfaceHandlers) Action(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "The form could not be read.", http.StatusBadRequest)
		return
	}
	name := view.Name(r.PathValue("view"))
	err := ws.Perform(r.Context(), name, r.PathValue("action"), r.PostForm)
	if errors.Is(err, feature.ErrUnknownAction) {
		http.NotFound(w, r)
		return
	}

	if WantsPartial(r) {
		_ = h.T.Render(w, http.StatusOK, "workspace", h.workspaceModel(r, ws, name))
		return
	}
	// Post/redirect/get would re-activate and drop the flash, so render in place.
	h.renderPage(w, r, ws, name)
}

// Download streams a backend report. On failure the originating view (?view=)
// is shown with the error as its flash.
// GET /{surface}/downloads/{report}.
func (h *SurfaceHandlers) Download(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	report := r.PathValue("report")
	q := r.URL.Query()
	from := view.Name(q.Get("view"))
	q.Del("view")

	blob, err := ws.Download(r.Context(), report, q)
	if errors.Is(err, feature.ErrUnknownReport) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger().WarnContext(r.Context(), "report download failed", "report", report, "error", err)
		if !ws.Router.Has(from) {
			from = h.Surface.DefaultView
		}
		if !ws.Router.IsActive(from) {
			ws.Activate(r.Context(), from)
		}
		ws.Board.SetFlash(from, feature.FlashError, feature.Notice(err, downloadFailure))
		h.renderPage(w, r, ws, from)
		return
	}

	filename := blob.Filename
	if filename == "" {
		filename = report + extensionFor(blob.ContentType)
	}
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob.Data); err != nil {
		h.logger().DebugContext(r.Context(), "write report failed", "report", report, "error", err)
	}
}

func extensionFor(contentType string) string {
	media, _, _ := mime.ParseMediaType(contentType)
	switch {
	case media == "application/pdf":
		return ".pdf"
	case strings.Contains(media, "spreadsheetml"):
		return ".xlsx"
	case media == "application/vnd.ms-excel":
		return ".xls"
	case media == "text/csv":
		return ".csv"
	default:
		return ""
	}
}

func (h *SurfaceHandlers) renderPage(w http.ResponseWriter, r *http.Request, ws *feature.Workspace, name view.Name) {
	title := ws.Router.TitleOf(name)
	page := viewmodel.SurfacePage{
		Layout: viewmodel.Layout{
			Title:           title + " · HR Dashboard",
			PageTitle:       title,
			CurrentPage:     viewmodel.PageSurface,
			HTMXScriptURL:   h.HTMXScript,
			IsAuthenticated: true,
			User:            &viewmodel.User{Username: ws.User.Username, Role: string(ws.User.Role)},
			LogoutURL:       h.LogoutURL,
			CSRFToken:       GetCSRFToken(r),
		},
		Workspace: h.workspaceModel(r, ws, name),
	}
	_ = h.T.RenderFull(w, http.StatusOK, page)
}

func (h *SurfaceHandlers) workspaceModel(r *http.Request, ws *feature.Workspace, name view.Name) viewmodel.Workspace {
	nav := ws.Router.Nav()
	links := make([]viewmodel.NavLink, 0, len(nav))
	for _, item := range nav {
		links = append(links, viewmodel.NavLink{
			View:   string(item.Name),
			Title:  item.Title,
			URL:    h.viewURL(item.Name),
			Active: item.Active,
		})
	}
	return viewmodel.Workspace{Nav: links, Region: h.regionModel(r, ws, name)}
}

func (h *SurfaceHandlers) regionModel(r *http.Request, ws *feature.Workspace, name view.Name) viewmodel.Region {
	snap := ws.Board.Snapshot(name)
	filters := ws.Filters(name)
	base := h.viewURL(name)
	csrf := GetCSRFToken(r)

	out := viewmodel.Region{
		Surface: h.Surface.Name,
		View:    string(name),
		Title:   ws.Router.TitleOf(name),
		PollURL: base + "/region",
		Pending: snap.Pending(),
	}
	if snap.Flash != nil {
		out.Flash = &viewmodel.Flash{Kind: snap.Flash.Kind, Message: snap.Flash.Message}
	}
	for _, s := range snap.Slots {
		out.Slots = append(out.Slots, viewmodel.Slot{
			Name:      s.Name,
			Status:    s.Status.String(),
			Notice:    s.Notice,
			Template:  h.Surface.Name + "/" + string(name) + "/" + s.Name,
			Data:      s.Data,
			Surface:   h.Surface.Name,
			ViewURL:   base,
			ActionURL: base + "/actions/",
			ReportURL: h.Home + "/downloads/",
			Filters:   filters,
			CSRFToken: csrf,
		})
	}
	return out
}
