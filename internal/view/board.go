package view

import (
	"sync"
	"time"
)

// Status is the lifecycle of one region slot.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Slot is one loader's part of a region.
type Slot struct {
	Name       string
	Status     Status
	Data       any
	Notice     string
	Generation uint64
	UpdatedAt  time.Time
}

// Flash is a one-off message shown at the top of a region after a form action.
type Flash struct {
	Kind    string
	Message string
}

// Region is a snapshot of one view's render target.
type Region struct {
	View       Name
	Active     bool
	Generation uint64
	Slots      []Slot
	Flash      *Flash
}

// Pending reports whether any slot is still loading.
func (r Region) Pending() bool {
	for _, s := range r.Slots {
		if s.Status == StatusLoading {
			return true
		}
	}
	return false
}

// Slot returns the named slot, or an idle slot when absent.
func (r Region) Slot(name string) Slot {
	for _, s := range r.Slots {
		if s.Name == name {
			return s
		}
	}
	return Slot{Name: name}
}

type region struct {
	active bool
	gen    uint64
	order  []string
	slots  map[string]*Slot
	flash  *Flash
}

func (r *region) slot(name string) *Slot {
	s, ok := r.slots[name]
	if !ok {
		s = &Slot{Name: name}
		r.slots[name] = s
		r.order = append(r.order, name)
	}
	return s
}

// Board holds one region per view. Results reach a region only while the
// ticket that produced them is the latest activation.
type Board struct {
	mu      sync.Mutex
	gen     uint64
	regions map[Name]*region
	now     func() time.Time
	onStale func(view Name, slot string)
}

var _ Listener = (*Board)(nil)

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{regions: make(map[Name]*region), now: time.Now}
}

// OnStale registers fn to observe dropped results.
func (b *Board) OnStale(fn func(view Name, slot string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStale = fn
}

func (b *Board) region(name Name) *region {
	r, ok := b.regions[name]
	if !ok {
		r = &region{slots: make(map[string]*Slot)}
		b.regions[name] = r
	}
	return r
}

// Deactivate hides the region of name.
func (b *Board) Deactivate(name Name) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.region(name).active = false
}

// Activate shows the region of name, records the generation and marks every
// known slot as loading.
func (b *Board) Activate(name Name, generation uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen = generation
	r := b.region(name)
	r.active = true
	r.gen = generation
	r.flash = nil
	for _, s := range r.slots {
		s.Status = StatusLoading
		s.Notice = ""
		s.Generation = generation
	}
}

// Begin marks slot as loading for t. It returns false when t is stale.
func (b *Board) Begin(t Ticket, slot string) bool {
	return b.write(t, slot, func(s *Slot) {
		s.Status = StatusLoading
		s.Notice = ""
	})
}

// Apply stores data in slot when t is still current.
func (b *Board) Apply(t Ticket, slot string, data any) bool {
	return b.write(t, slot, func(s *Slot) {
		s.Status = StatusReady
		s.Data = data
		s.Notice = ""
	})
}

// Fail records a user-visible notice in slot when t is still current.
func (b *Board) Fail(t Ticket, slot, notice string) bool {
	return b.write(t, slot, func(s *Slot) {
		s.Status = StatusFailed
		s.Data = nil
		s.Notice = notice
	})
}

func (b *Board) write(t Ticket, slot string, fn func(*Slot)) bool {
	b.mu.Lock()
	if t.Generation != b.gen {
		hook := b.onStale
		b.mu.Unlock()
		if hook != nil {
			hook(t.View, slot)
		}
		return false
	}
	defer b.mu.Unlock()

	s := b.region(t.View).slot(slot)
	fn(s)
	s.Generation = t.Generation
	s.UpdatedAt = b.now()
	return true
}

// SetFlash attaches a one-off message to the region of name.
func (b *Board) SetFlash(name Name, kind, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.region(name).flash = &Flash{Kind: kind, Message: message}
}

// Snapshot returns a copy of the region of name.
func (b *Board) Snapshot(name Name) Region {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.regions[name]
	if !ok {
		return Region{View: name}
	}
	out := Region{View: name, Active: r.active, Generation: r.gen}
	if r.flash != nil {
		f := *r.flash
		out.Flash = &f
	}
	out.Slots = make([]Slot, 0, len(r.order))
	for _, n := range r.order {
		out.Slots = append(out.Slots, *r.slots[n])
	}
	return out
}
