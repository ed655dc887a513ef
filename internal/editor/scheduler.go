package editor

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates one display frame.
const DefaultFrameInterval = 16 * time.Millisecond

// ViewState is the part of the panel view that survives a rebuild.
type ViewState struct {
	ScrollTop      float64 `json:"scrollTop"`
	FocusID        string  `json:"focusId,omitempty"`
	SelectionStart *int    `json:"selectionStart,omitempty"`
	SelectionEnd   *int    `json:"selectionEnd,omitempty"`
}

// HasSelection reports whether both selection bounds are known.
func (v ViewState) HasSelection() bool {
	return v.FocusID != "" && v.SelectionStart != nil && v.SelectionEnd != nil
}

// PanelView is the surface that shows the panel.
type PanelView interface {
	Capture() ViewState
	Rebuild(panel Panel)
	Restore(state ViewState)
}

// FrameFunc runs fn on the next frame.
type FrameFunc func(fn func())

// FrameTimer schedules frames on a timer.
func FrameTimer(interval time.Duration) FrameFunc {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return func(fn func()) {
		time.AfterFunc(interval, fn)
	}
}

// PanelScheduler coalesces panel rebuild requests. Requests made before the
// next frame collapse into a single rebuild.
type PanelScheduler struct {
	mu      sync.Mutex
	pending bool
	renders uint64
	frame   FrameFunc
	view    PanelView
	build   func() Panel
}

// SchedulerOption configures a PanelScheduler.
type SchedulerOption func(*PanelScheduler)

// WithFrame sets the frame function.
func WithFrame(frame FrameFunc) SchedulerOption {
	return func(p *PanelScheduler) {
		if frame != nil {
			p.frame = frame
		}
	}
}

// NewPanelScheduler wires a scheduler that rebuilds view from build.
func NewPanelScheduler(view PanelView, build func() Panel, opts ...SchedulerOption) *PanelScheduler {
	p := &PanelScheduler{
		frame: FrameTimer(DefaultFrameInterval),
		view:  view,
		build: build,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// RequestRender rebuilds now when immediate is set, otherwise on the next
// frame.
func (p *PanelScheduler) RequestRender(immediate bool) {
	if immediate {
		p.render()
		return
	}
	p.mu.Lock()
	if p.pending {
		p.mu.Unlock()
		return
	}
	p.pending = true
	p.mu.Unlock()
	p.frame(func() {
		p.mu.Lock()
		p.pending = false
		p.mu.Unlock()
		p.render()
	})
}

// Renders counts completed rebuilds.
func (p *PanelScheduler) Renders() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renders
}

func (p *PanelScheduler) render() {
	if p.view == nil || p.build == nil {
		return
	}
	state := p.view.Capture()
	p.view.Rebuild(p.build())
	p.view.Restore(state)
	p.mu.Lock()
	p.renders++
	p.mu.Unlock()
}
