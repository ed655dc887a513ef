package render

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-microsite/internal/content"
	"golang.org/x/net/html"
)

// SectionRenderer turns one section into a node. A nil node with a nil
// error means the section has nothing to show.
type SectionRenderer interface {
	Render(ctx context.Context, section content.Section, env *Env) (*html.Node, error)
}

// RendererFunc adapts a function to SectionRenderer.
type RendererFunc func(ctx context.Context, section content.Section, env *Env) (*html.Node, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, section content.Section, env *Env) (*html.Node, error) {
	return f(ctx, section, env)
}

// Registry maps section types to renderers. Aliases point one type name at
// another.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]SectionRenderer
	aliases   map[string]string
}

// NewRegistry returns a registry with the built-in section renderers and
// the legacy type aliases.
func NewRegistry() *Registry {
	r := &Registry{
		renderers: map[string]SectionRenderer{},
		aliases:   map[string]string{},
	}
	for sectionType, renderer := range builtinRenderers() {
		r.Register(sectionType, renderer)
	}
	for alias, target := range content.LegacyTypes() {
		r.Alias(alias, target)
	}
	return r
}

// Register binds renderer to sectionType, replacing any previous binding.
func (r *Registry) Register(sectionType string, renderer SectionRenderer) {
	sectionType = strings.TrimSpace(sectionType)
	if sectionType == "" || renderer == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[sectionType] = renderer
}

// Alias makes alias resolve to target.
func (r *Registry) Alias(alias, target string) {
	alias = strings.TrimSpace(alias)
	target = strings.TrimSpace(target)
	if alias == "" || target == "" || alias == target {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = target
}

// Lookup returns the renderer for sectionType, following one alias hop.
// Direct registrations win over aliases.
func (r *Registry) Lookup(sectionType string) (SectionRenderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if renderer, ok := r.renderers[sectionType]; ok {
		return renderer, true
	}
	if target, ok := r.aliases[sectionType]; ok {
		renderer, ok := r.renderers[target]
		return renderer, ok
	}
	return nil, false
}

// Types lists the registered type names, aliases included, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.renderers)+len(r.aliases))
	for key := range r.renderers {
		out = append(out, key)
	}
	for key := range r.aliases {
		if _, ok := r.renderers[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
