package viewmodel

import "net/url"

// Page identifiers rendered by the layout.
const (
	PageLogin   = "login"
	PageSurface = "surface"
)

// LoginPage is the sign-in form.
type LoginPage struct {
	Layout
	Action   string
	Username string
	Error    string
}

// NavLink is one tab of a surface.
type NavLink struct {
	View   string
	Title  string
	URL    string
	Active bool
}

// Flash is the outcome message of the last form action.
type Flash struct {
	Kind    string
	Message string
}

// Slot is one loader's part of a region, ready for its panel template.
type Slot struct {
	Name     string
	Status   string
	Notice   string
	Template string
	Data     any

	// Context shared with the panel.
	Surface   string
	ViewURL   string
	ActionURL string
	ReportURL string
	Filters   url.Values
	CSRFToken string
}

// Loading reports whether the slot is waiting for its loader.
func (s Slot) Loading() bool { return s.Status == "loading" || s.Status == "idle" }

// Ready reports whether the slot holds data.
func (s Slot) Ready() bool { return s.Status == "ready" }

// Failed reports whether the loader failed.
func (s Slot) Failed() bool { return s.Status == "failed" }

// Region is the render target of the active view.
type Region struct {
	Surface string
	View    string
	Title   string
	PollURL string
	Pending bool
	Flash   *Flash
	Slots   []Slot
}

// Workspace is the nav plus region fragment swapped on navigation.
type Workspace struct {
	Nav    []NavLink
	Region Region
}

// SurfacePage is a full admin or employee page.
type SurfacePage struct {
	Layout
	Workspace
}
