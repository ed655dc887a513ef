package di

import (
	"sync"

	"github.com/goliatone/go-microsite/internal/editor"
)

// panelSnapshot is the server side panel view. It keeps the last rebuilt
// panel and the view state captured before it.
type panelSnapshot struct {
	mu    sync.Mutex
	panel editor.Panel
	state editor.ViewState
	built bool
}

func newPanelSnapshot() *panelSnapshot {
	return &panelSnapshot{}
}

func (p *panelSnapshot) Capture() editor.ViewState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *panelSnapshot) Rebuild(panel editor.Panel) {
	p.mu.Lock()
	p.panel = panel
	p.built = true
	p.mu.Unlock()
}

func (p *panelSnapshot) Restore(state editor.ViewState) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

func (p *panelSnapshot) Latest() (editor.Panel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.panel, p.built
}
