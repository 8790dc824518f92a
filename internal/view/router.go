// Package view holds the per-surface view router and the region board that
// feature loaders render into.
package view

import (
	"context"
	"sync"
)

// Name identifies one view (tab) of a surface.
type Name string

// Ticket stamps one on-enter invocation with the activation generation that
// produced it.
type Ticket struct {
	View       Name
	Generation uint64

	router *Router
}

// Current reports whether no newer activation has happened since the ticket
// was issued.
func (t Ticket) Current() bool {
	return t.router != nil && t.router.Generation() == t.Generation
}

// Callback runs when its view is entered. It must not block: long work belongs
// in a goroutine that reports through the ticket.
type Callback func(ctx context.Context, t Ticket)

// Listener mirrors router state onto a rendering target. It is called with the
// router lock held and must not call back into the router.
type Listener interface {
	Deactivate(name Name)
	Activate(name Name, generation uint64)
}

// Definition declares a view, its page title and its initial callbacks.
type Definition struct {
	Name    Name
	Title   string
	OnEnter []Callback
}

// NavItem is one navigation entry as rendered.
type NavItem struct {
	Name   Name
	Title  string
	Active bool
}

type entry struct {
	title     string
	callbacks []Callback
	active    bool
}

// Router tracks exactly one active view among a fixed set.
type Router struct {
	mu        sync.Mutex
	order     []Name
	views     map[Name]*entry
	active    Name
	title     string
	gen       uint64
	listeners []Listener
	onEnter   func(name Name)
}

// Option configures a Router.
type Option func(*Router)

// WithListener attaches a rendering target to the router.
func WithListener(l Listener) Option {
	return func(r *Router) { r.listeners = append(r.listeners, l) }
}

// WithActivationHook registers fn to run after every successful activation.
func WithActivationHook(fn func(name Name)) Option {
	return func(r *Router) { r.onEnter = fn }
}

// NewRouter builds a router over defs. Duplicate names keep the first definition.
func NewRouter(defs []Definition, opts ...Option) *Router {
	r := &Router{views: make(map[Name]*entry, len(defs))}
	for _, d := range defs {
		if _, dup := r.views[d.Name]; dup {
			continue
		}
		r.order = append(r.order, d.Name)
		r.views[d.Name] = &entry{
			title:     d.Title,
			callbacks: append([]Callback(nil), d.OnEnter...),
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnEnter appends cb to the callbacks of name. It returns false for unknown views.
func (r *Router) OnEnter(name Name, cb Callback) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.views[name]
	if !ok || cb == nil {
		return false
	}
	e.callbacks = append(e.callbacks, cb)
	return true
}

// Activate makes name the active view and dispatches its callbacks in order.
// Unknown names are ignored and leave all state untouched. Activating the
// active view again re-runs its callbacks.
func (r *Router) Activate(ctx context.Context, name Name) bool {
	r.mu.Lock()
	e, ok := r.views[name]
	if !ok {
		r.mu.Unlock()
		return false
	}

	for _, n := range r.order {
		if n == name {
			continue
		}
		r.views[n].active = false
		for _, l := range r.listeners {
			l.Deactivate(n)
		}
	}
	e.active = true
	r.active = name
	r.title = e.title
	r.gen++
	gen := r.gen
	for _, l := range r.listeners {
		l.Activate(name, gen)
	}
	callbacks := append([]Callback(nil), e.callbacks...)
	hook := r.onEnter
	r.mu.Unlock()

	if hook != nil {
		hook(name)
	}
	t := Ticket{View: name, Generation: gen, router: r}
	for _, cb := range callbacks {
		cb(ctx, t)
	}
	return true
}

// Has reports whether name is a valid view.
func (r *Router) Has(name Name) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.views[name]
	return ok
}

// Active returns the active view, or "" before the first activation.
func (r *Router) Active() Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// IsActive reports whether name is the active view.
func (r *Router) IsActive(name Name) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.views[name]
	return ok && e.active
}

// Title returns the page title of the active view.
func (r *Router) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

// TitleOf returns the title declared for name.
func (r *Router) TitleOf(name Name) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.views[name]; ok {
		return e.title
	}
	return ""
}

// Generation returns the number of activations so far.
func (r *Router) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Views returns the view names in declaration order.
func (r *Router) Views() []Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Name(nil), r.order...)
}

// Nav returns navigation entries with the active one highlighted.
func (r *Router) Nav() []NavItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]NavItem, 0, len(r.order))
	for _, n := range r.order {
		e := r.views[n]
		items = append(items, NavItem{Name: n, Title: e.title, Active: e.active})
	}
	return items
}
