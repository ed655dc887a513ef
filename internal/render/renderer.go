package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/internal/media"
	"github.com/goliatone/go-microsite/pkg/interfaces"
	"golang.org/x/net/html"
)

// MarkdownConverter renders markdown source to HTML.
type MarkdownConverter interface {
	Convert(source []byte) ([]byte, error)
}

// Options tune page output.
type Options struct {
	// PreferThumbs makes card and hero images use thumbnail variants.
	PreferThumbs bool
	Composition  media.Composition
	Lang         string
	BrandDefault string
	FooterSuffix string
	// Year is printed in the footer. Zero means the current year.
	Year        int
	Stylesheets []string
	Scripts     []string
	// LiveSocket is the websocket path documents listen on for live
	// reloads. Empty disables the listener.
	LiveSocket string
}

// DefaultOptions matches the runtime configuration defaults.
func DefaultOptions() Options {
	return Options{
		PreferThumbs: true,
		Composition:  media.ComposeScaleOnly,
		Lang:         "es",
		BrandDefault: "Ojeda",
		FooterSuffix: "Todos los derechos reservados.",
	}
}

// Env is handed to section renderers.
type Env struct {
	Options  Options
	Markdown MarkdownConverter
	Logger   interfaces.Logger
}

// Image builds an image frame for ref. It returns nil when no URL can be
// resolved, so callers simply skip the media.
func (e *Env) Image(ref media.ImageRef, alt string, preferThumb bool) *html.Node {
	img := ref.Normalize(media.WithComposition(e.Options.Composition))
	src := img.URL(preferThumb)
	if src == "" {
		return nil
	}
	frame := Element("div", Attr("data-img-frame", ""))
	if style := img.Display.FrameStyle(); style != "" {
		SetAttr(frame, "style", style)
	}
	if img.Display.CropMode != "" {
		SetAttr(frame, "data-crop-mode", img.Display.CropMode)
	}
	node := Element("img",
		Attr("src", src),
		Attr("alt", alt),
		Attr("loading", "lazy"),
		Attr("decoding", "async"),
	)
	if img.Full != "" {
		SetAttr(node, "data-fullsrc", img.Full)
	}
	if img.Title != "" {
		SetAttr(node, "title", img.Title)
	}
	if style := img.Display.ImageStyle(); style != "" {
		SetAttr(node, "style", style)
	}
	return Append(frame, node)
}

// Renderer dispatches sections to registered renderers and assembles pages.
// It only reads the documents it is given.
type Renderer struct {
	registry *Registry
	logger   interfaces.Logger
	markdown MarkdownConverter
	opts     Options
	now      func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithRegistry replaces the default registry.
func WithRegistry(registry *Registry) Option {
	return func(r *Renderer) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// WithLogger sets the logger used for dispatch warnings.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMarkdown enables the markdown field of richText sections.
func WithMarkdown(converter MarkdownConverter) Option {
	return func(r *Renderer) {
		r.markdown = converter
	}
}

// WithOptions sets the output options.
func WithOptions(opts Options) Option {
	return func(r *Renderer) {
		r.opts = opts
	}
}

// WithClock sets the time source used for the footer year.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// New builds a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		registry: NewRegistry(),
		logger:   logging.NoOp(),
		opts:     DefaultOptions(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.opts.Composition == "" {
		r.opts.Composition = media.ComposeScaleOnly
	}
	return r
}

// Registry exposes the section registry so callers can add types.
func (r *Renderer) Registry() *Registry { return r.registry }

// Options returns the output options.
func (r *Renderer) Options() Options { return r.opts }

func (r *Renderer) env() *Env {
	return &Env{Options: r.opts, Markdown: r.markdown, Logger: r.logger}
}

// RenderSection renders one section and tags it with data-section-id.
// Unknown types and renderer failures are logged and yield nil.
func (r *Renderer) RenderSection(ctx context.Context, section content.Section) *html.Node {
	logger := logging.WithSectionContext(r.logger, "", section.ID, section.Type)
	renderer, ok := r.registry.Lookup(section.Type)
	if !ok {
		logger.Warn("render.section.unknown_type")
		return nil
	}
	node, err := renderer.Render(ctx, section, r.env())
	if err != nil {
		logger.Warn("render.section.failed", "error", err)
		return nil
	}
	if node == nil {
		return nil
	}
	SetAttr(node, "data-section-id", section.ID)
	return node
}

// RenderPage renders the site shell for pageID. Unknown ids fall back to
// the first page. The returned page is nil when the site has no pages.
func (r *Renderer) RenderPage(ctx context.Context, site *content.Site, pageID string) (*html.Node, *content.Page) {
	page, ok := site.PageOrFirst(pageID)
	if !ok {
		return nil, nil
	}
	shell := Element("div", Attr("class", "site-shell"))
	wrapper := Element("div", Attr("class", "section-wrapper"))
	Append(wrapper, r.RenderHero(page.Hero))
	for _, section := range page.Sections {
		Append(wrapper, r.RenderSection(ctx, section))
	}
	Append(shell,
		r.RenderNav(site, page.ID),
		Append(Element("main"), wrapper),
		r.RenderFooter(site),
	)
	return shell, page
}

// RenderNav renders the top navigation. Only entries pointing at visible
// pages are listed.
func (r *Renderer) RenderNav(site *content.Site, activePageID string) *html.Node {
	header := Element("header", Attr("class", "top-nav"))
	brand := TextElement("div", "top-nav__brand", site.Meta.Title.Or(r.opts.BrandDefault))
	links := Element("nav", Attr("class", "top-nav__links"))
	for _, entry := range site.VisibleNavigation() {
		anchor := TextElement("a", "", capitalise(entry.Label.Or(entry.PageID)))
		SetAttr(anchor, "href", entry.Path)
		if entry.PageID == activePageID {
			AddClass(anchor, "is-active")
		}
		Append(links, anchor)
	}
	return Append(header, brand, links)
}

// RenderFooter renders the copyright line.
func (r *Renderer) RenderFooter(site *content.Site) *html.Node {
	year := r.opts.Year
	if year == 0 {
		year = r.now().Year()
	}
	title := site.Meta.Title.Or(r.opts.BrandDefault)
	line := fmt.Sprintf("© %d %s.", year, title)
	if suffix := strings.TrimSpace(r.opts.FooterSuffix); suffix != "" {
		line += " " + suffix
	}
	return TextElement("footer", "site-footer", line)
}

// RenderBackground renders the background media layer for the mode the
// background resolves to.
func (r *Renderer) RenderBackground(background content.Background) *html.Node {
	layer := Element("div", Attr("id", "background-media"))
	switch background.Mode() {
	case content.BackgroundVideo:
		if strings.TrimSpace(background.Video) == "" {
			return layer
		}
		video := Element("video",
			Attr("autoplay", ""),
			Attr("muted", ""),
			Attr("loop", ""),
			Attr("playsinline", ""),
		)
		if background.Poster != "" {
			SetAttr(video, "poster", background.Poster)
		}
		Append(video, Element("source", Attr("src", background.Video)))
		Append(layer, video)
	case content.BackgroundImage:
		Append(layer, r.env().Image(background.Image, "", false))
	}
	return layer
}

// ThemeVar is one CSS custom property.
type ThemeVar struct {
	Name  string
	Value string
}

// ThemeVariables returns the CSS custom properties for theme, filling the
// defaults for unset values.
func ThemeVariables(theme content.Theme) []ThemeVar {
	or := func(value, fallback string) string {
		if strings.TrimSpace(value) == "" {
			return fallback
		}
		return value
	}
	return []ThemeVar{
		{Name: "--color-primary", Value: or(theme.Colors.Primary, "#fe9200")},
		{Name: "--color-accent", Value: or(theme.Colors.Accent, "#000000")},
		{Name: "--color-text", Value: or(theme.Colors.Text, "#ffffff")},
		{Name: "--color-muted", Value: or(theme.Colors.Muted, "#111111")},
		{Name: "--font-heading", Value: or(theme.Fonts.Heading, "Fredoka One, sans-serif")},
		{Name: "--font-body", Value: or(theme.Fonts.Body, "Poppins, sans-serif")},
	}
}

func capitalise(value string) string {
	if value == "" {
		return ""
	}
	runes := []rune(value)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
