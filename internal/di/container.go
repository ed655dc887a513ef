package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	editorcmd "github.com/goliatone/go-microsite/internal/commands/editor"
	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/editor"
	"github.com/goliatone/go-microsite/internal/generator"
	httpapi "github.com/goliatone/go-microsite/internal/http"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/internal/markdown"
	"github.com/goliatone/go-microsite/internal/media"
	"github.com/goliatone/go-microsite/internal/render"
	"github.com/goliatone/go-microsite/internal/runtimeconfig"
	"github.com/goliatone/go-microsite/internal/storage"
	"github.com/goliatone/go-microsite/internal/uploads"
	"github.com/goliatone/go-microsite/internal/validation"
	"github.com/goliatone/go-microsite/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
)

// Container wires the microsite modules from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	seed          content.Document
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	parser        interfaces.MarkdownParser

	storage  *storage.Handle
	live     *render.LiveState
	renderer *render.Renderer
	static   *render.Renderer
	markdown *markdown.Service
	uploads  *uploads.Service

	draft     *editor.Store
	panels    *editor.PanelRegistry
	panelView *panelSnapshot
	scheduler *editor.PanelScheduler
	edits     *editorcmd.HandlerSet

	generator generator.Service
	api       *httpapi.API

	closeOnce sync.Once
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithSeed sets the initial document of the memory storage driver.
func WithSeed(doc content.Document) Option {
	return func(c *Container) {
		c.seed = doc
	}
}

// WithCache overrides the revision cache.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithMarkdownParser overrides the default goldmark parser.
func WithMarkdownParser(parser interfaces.MarkdownParser) Option {
	return func(c *Container) {
		c.parser = parser
	}
}

// NewContainer validates cfg, opens storage and wires every module around
// the loaded document.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.loggerProvider == nil {
		provider, err := LoggerProviderFromConfig(cfg.Logging)
		if err != nil {
			return nil, err
		}
		c.loggerProvider = provider
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "microsite.di")

	if err := c.configureStorage(ctx); err != nil {
		return nil, err
	}
	doc, err := c.loadDocument(ctx)
	if err != nil {
		_ = c.storage.Close()
		return nil, err
	}
	if err := c.configureMarkdown(); err != nil {
		_ = c.storage.Close()
		return nil, err
	}

	c.live = render.NewLiveState(doc, render.WithLiveLogger(logging.SiteLogger(c.loggerProvider)))
	c.configureRenderers()
	c.uploads = uploads.NewService(cfg.Uploads, uploads.WithLogger(logging.UploadsLogger(c.loggerProvider)))

	if cfg.Editor.Enabled {
		if err := c.configureEditor(doc); err != nil {
			_ = c.storage.Close()
			return nil, err
		}
	}

	c.configureGenerator()
	c.configureAPI()

	c.logger.Info("container.ready",
		"driver", cfg.Storage.Driver,
		"editor", c.draft != nil,
		"revisions", c.storage.Revisions != nil,
	)
	return c, nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	opts := []storage.OpenOption{
		storage.WithLogger(logging.StorageLogger(c.loggerProvider)),
		storage.WithSeed(c.seed),
	}
	if c.cacheService != nil {
		serializer := c.keySerializer
		if serializer == nil {
			serializer = repocache.NewDefaultKeySerializer()
		}
		opts = append(opts, storage.WithCacheService(c.cacheService, serializer))
	}
	handle, err := storage.Open(ctx, c.Config.Storage, opts...)
	if err != nil {
		return err
	}
	c.storage = handle
	return nil
}

// loadDocument reads the stored document. A missing document starts the
// site empty instead of failing.
func (c *Container) loadDocument(ctx context.Context) (content.Document, error) {
	doc, err := c.storage.Store.Load(ctx)
	var notFound *content.NotFoundError
	switch {
	case errors.As(err, &notFound):
		c.logger.Warn("container.document.missing", "key", notFound.Key)
		return content.Document{"pages": []any{}}, nil
	case err != nil:
		return nil, fmt.Errorf("di: load document: %w", err)
	}
	return doc, nil
}

func (c *Container) configureMarkdown() error {
	svc, err := markdown.NewService(markdown.Config{
		Parser: markdown.ParseOptionsFrom(c.Config.Markdown),
	}, c.parser, markdown.WithLogger(logging.MarkdownLogger(c.loggerProvider)))
	if err != nil {
		return err
	}
	c.markdown = svc
	return nil
}

func (c *Container) renderOptions() render.Options {
	opts := render.DefaultOptions()
	cfg := c.Config.Render
	opts.PreferThumbs = cfg.PreferThumbs
	opts.Composition = media.ParseComposition(cfg.Composition)
	if lang := strings.TrimSpace(cfg.Lang); lang != "" {
		opts.Lang = lang
	}
	if brand := strings.TrimSpace(cfg.BrandDefault); brand != "" {
		opts.BrandDefault = brand
	}
	if suffix := strings.TrimSpace(cfg.FooterSuffix); suffix != "" {
		opts.FooterSuffix = suffix
	}
	return opts
}

// configureRenderers builds the served renderer, which listens for live
// reloads, and the static one used for prerendering.
func (c *Container) configureRenderers() {
	logger := logging.RenderLogger(c.loggerProvider)

	served := c.renderOptions()
	served.LiveSocket = httpapi.LiveSocketPath(c.Config.Server.BasePath)
	c.renderer = render.New(
		render.WithOptions(served),
		render.WithMarkdown(c.markdown),
		render.WithLogger(logger),
	)
	c.static = render.New(
		render.WithRegistry(c.renderer.Registry()),
		render.WithOptions(c.renderOptions()),
		render.WithMarkdown(c.markdown),
		render.WithLogger(logger),
	)
}

func (c *Container) configureEditor(doc content.Document) error {
	logger := logging.EditorLogger(c.loggerProvider)
	c.panels = editor.NewPanelRegistry()
	c.draft = editor.NewStore(doc,
		editor.WithPublisher(c.live),
		editor.WithDebounce(c.Config.Editor.Debounce),
		editor.WithLogger(logger),
	)
	c.panelView = newPanelSnapshot()
	c.scheduler = editor.NewPanelScheduler(c.panelView, func() editor.Panel {
		return c.draft.Panel(c.panels)
	}, editor.WithFrame(editor.FrameTimer(c.Config.Editor.FrameInterval)))
	c.draft.SetPanel(c.scheduler)

	set, err := editorcmd.RegisterEditorCommands(nil, c.draft, c.loggerProvider,
		editorcmd.WithSaver(c.storage.Store),
		editorcmd.WithImporter(c.markdown),
	)
	if err != nil {
		return err
	}
	c.edits = set
	return nil
}

func (c *Container) configureGenerator() {
	cfg := c.Config
	c.generator = generator.NewService(generator.Config{
		OutputDir:       cfg.Generator.OutputDir,
		BaseURL:         cfg.Generator.BaseURL,
		CleanBuild:      cfg.Generator.CleanBuild,
		Incremental:     cfg.Generator.Incremental,
		GenerateSitemap: cfg.Generator.Sitemap,
		GenerateRobots:  cfg.Generator.Robots,
		Workers:         cfg.Generator.Workers,
		UploadsDir:      cfg.Uploads.Dir,
		UploadsPrefix:   cfg.Uploads.PublicPrefix,
	}, c.static, generator.WithLogger(logging.GeneratorLogger(c.loggerProvider)))
}

func (c *Container) configureAPI() {
	cfg := c.Config
	opts := []httpapi.Option{
		httpapi.WithBasePath(cfg.Server.BasePath),
		httpapi.WithContentStore(c.storage.Store),
		httpapi.WithLiveState(c.live),
		httpapi.WithRenderer(c.renderer),
		httpapi.WithUploads(c.uploads),
		httpapi.WithValidationOptions(validation.Options{
			UploadsDir:   cfg.Uploads.Dir,
			PublicPrefix: cfg.Uploads.PublicPrefix,
		}),
		httpapi.WithCommandTimeout(cfg.Editor.CommandTimeout),
		httpapi.WithLogger(logging.HTTPLogger(c.loggerProvider)),
	}
	if c.draft != nil {
		opts = append(opts,
			httpapi.EditorFromHandlers(c.draft, c.edits),
			httpapi.WithPanelRegistry(c.panels),
		)
	}
	c.api = httpapi.NewAPI(opts...)
}

// Watch forwards external edits of the stored document to the draft, or to
// the live copy when the editor is disabled. It is a no-op for stores that
// cannot be watched or when Storage.Watch is off.
func (c *Container) Watch(ctx context.Context) error {
	if !c.Config.Storage.Watch {
		return nil
	}
	watcher, ok := c.storage.Store.(storage.Watcher)
	if !ok {
		c.logger.Debug("container.watch.unsupported", "driver", c.Config.Storage.Driver)
		return nil
	}
	return watcher.Watch(ctx, func(doc content.Document) {
		if c.draft != nil {
			if c.draft.Dirty() {
				c.logger.Warn("container.watch.draft_replaced")
			}
			c.draft.Replace(doc)
			return
		}
		c.live.Publish(doc)
	})
}

// Handler returns the HTTP handler of the API.
func (c *Container) Handler() (http.Handler, error) {
	return c.api.Handler()
}

// Close disconnects live clients and closes storage.
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.api != nil {
			c.api.Close()
		}
		if c.storage != nil {
			err = c.storage.Close()
		}
	})
	return err
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

func (c *Container) Store() storage.ContentStore { return c.storage.Store }

// Revisions is nil unless a database driver or snapshot DSN is configured.
func (c *Container) Revisions() *storage.RevisionStore { return c.storage.Revisions }

func (c *Container) Live() *render.LiveState { return c.live }

func (c *Container) Renderer() *render.Renderer { return c.renderer }

// StaticRenderer renders documents without the live reload listener.
func (c *Container) StaticRenderer() *render.Renderer { return c.static }

func (c *Container) Markdown() *markdown.Service { return c.markdown }

func (c *Container) Uploads() *uploads.Service { return c.uploads }

// Editor is nil when the editor is disabled.
func (c *Container) Editor() *editor.Store { return c.draft }

func (c *Container) EditHandlers() *editorcmd.HandlerSet { return c.edits }

func (c *Container) Generator() generator.Service { return c.generator }

func (c *Container) API() *httpapi.API { return c.api }

// LatestPanel returns the last panel built by the frame scheduler.
func (c *Container) LatestPanel() (editor.Panel, bool) {
	if c.panelView == nil {
		return editor.Panel{}, false
	}
	return c.panelView.Latest()
}

// PanelRenders counts scheduled panel rebuilds.
func (c *Container) PanelRenders() uint64 {
	if c.scheduler == nil {
		return 0
	}
	return c.scheduler.Renders()
}
