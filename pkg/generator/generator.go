// Package generator exposes the microsite prerenderer for embedding hosts.
// Use NewService with a Config and a PageRenderer to write static pages, sitemaps and uploads.
package generator

import internal "github.com/goliatone/go-microsite/internal/generator"

type (
	Service      = internal.Service
	Config       = internal.Config
	BuildOptions = internal.BuildOptions
	BuildResult  = internal.BuildResult
	RenderedPage = internal.RenderedPage
	PageRenderer = internal.PageRenderer
	Option       = internal.Option
)

var (
	ErrServiceDisabled   = internal.ErrServiceDisabled
	ErrOutputDirRequired = internal.ErrOutputDirRequired
	ErrUnsafeRoute       = internal.ErrUnsafeRoute

	WithLogger = internal.WithLogger
	WithClock  = internal.WithClock
	Prerender  = internal.Prerender
)

// NewService wires a prerenderer with the supplied configuration and renderer.
func NewService(cfg Config, renderer PageRenderer, opts ...Option) Service {
	return internal.NewService(cfg, renderer, opts...)
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return internal.NewDisabledService()
}
