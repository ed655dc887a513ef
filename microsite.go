// Package microsite wires the promotion site modules behind a single entry
// point. Hosts embed Module to serve the editor API and rendered pages, or
// to prerender the site.
package microsite

import (
	"context"
	"errors"
	"net/http"

	editorcmd "github.com/goliatone/go-microsite/internal/commands/editor"
	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/di"
	"github.com/goliatone/go-microsite/internal/editor"
	"github.com/goliatone/go-microsite/internal/generator"
	"github.com/goliatone/go-microsite/internal/markdown"
	"github.com/goliatone/go-microsite/internal/render"
	"github.com/goliatone/go-microsite/internal/storage"
	"github.com/goliatone/go-microsite/internal/uploads"
	"github.com/goliatone/go-microsite/internal/validation"
)

// Document is the raw site document.
type Document = content.Document

// Site is the typed view of a Document.
type Site = content.Site

// ContentStore exports the document persistence contract.
type ContentStore = storage.ContentStore

// LiveState exports the live copy consumed by the renderer.
type LiveState = render.LiveState

// Renderer exports the page renderer.
type Renderer = render.Renderer

// EditorStore exports the draft store.
type EditorStore = editor.Store

// EditCommand exports the editor command message.
type EditCommand = editorcmd.EditCommand

// GeneratorService exports the prerender contract.
type GeneratorService = generator.Service

// BuildOptions exports the prerender options.
type BuildOptions = generator.BuildOptions

// BuildResult exports the prerender report.
type BuildResult = generator.BuildResult

// UploadService exports the image upload pipeline.
type UploadService = *uploads.Service

// MarkdownService exports the markdown importer.
type MarkdownService = *markdown.Service

// ValidationReport exports the document check report.
type ValidationReport = validation.Report

// ValidationOptions exports the document check options.
type ValidationOptions = validation.Options

// Option customises the underlying container.
type Option = di.Option

var (
	WithLoggerProvider = di.WithLoggerProvider
	WithSeed           = di.WithSeed
	WithCache          = di.WithCache
	WithMarkdownParser = di.WithMarkdownParser
)

// ErrEditorDisabled is returned by Execute when the editor is off.
var ErrEditorDisabled = errors.New("microsite: editor is disabled")

// Module is the entry point for hosts.
type Module struct {
	container *di.Container
}

// New opens storage and wires every module described by cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying container.
func (m *Module) Container() *di.Container {
	return m.container
}

func (m *Module) Store() ContentStore {
	return m.container.Store()
}

func (m *Module) Live() *LiveState {
	return m.container.Live()
}

func (m *Module) Renderer() *Renderer {
	return m.container.Renderer()
}

// Editor returns the draft store, or nil when the editor is disabled.
func (m *Module) Editor() *EditorStore {
	return m.container.Editor()
}

// Execute applies an edit command to the draft.
func (m *Module) Execute(ctx context.Context, cmd EditCommand) error {
	set := m.container.EditHandlers()
	if set == nil || set.Edit == nil {
		return ErrEditorDisabled
	}
	return set.Edit.Execute(ctx, cmd)
}

func (m *Module) Uploads() UploadService {
	return m.container.Uploads()
}

func (m *Module) Markdown() MarkdownService {
	return m.container.Markdown()
}

func (m *Module) Generator() GeneratorService {
	return m.container.Generator()
}

// Validate checks doc against the site schema and the configured uploads.
func (m *Module) Validate(doc Document) (*ValidationReport, error) {
	return validation.ValidateDocument(doc, ValidationOptions{
		UploadsDir:   m.container.Config.Uploads.Dir,
		PublicPrefix: m.container.Config.Uploads.PublicPrefix,
	})
}

// Prerender writes the live copy to the configured output directory.
func (m *Module) Prerender(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	return m.container.Generator().Build(ctx, m.container.Live().Current(), opts)
}

// Handler returns the HTTP handler serving the API and rendered pages.
func (m *Module) Handler() (http.Handler, error) {
	return m.container.Handler()
}

// Watch publishes external edits of the stored document.
func (m *Module) Watch(ctx context.Context) error {
	return m.container.Watch(ctx)
}

// Close releases storage and live connections.
func (m *Module) Close() error {
	return m.container.Close()
}
