package markdown

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-microsite/pkg/interfaces"
)

// Extension names accepted in ParseOptions.Extensions. Unknown names are
// ignored.
var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

var defaultExtensions = []string{"gfm", "linkify", "tasklist"}

// GoldmarkParser renders Markdown with goldmark. Engines are built once per
// distinct option set and reused; the parser is safe for concurrent use.
type GoldmarkParser struct {
	defaults interfaces.ParseOptions
	engines  sync.Map // engineKey -> goldmark.Markdown
}

// NewGoldmarkParser returns a parser using defaults for Parse and Convert.
// Without extensions it enables gfm, linkify and tasklist. Raw HTML passes
// through unless SafeMode or Sanitize is set.
func NewGoldmarkParser(defaults interfaces.ParseOptions) *GoldmarkParser {
	return &GoldmarkParser{defaults: defaults}
}

// Convert renders a richText markdown field.
func (p *GoldmarkParser) Convert(markdown []byte) ([]byte, error) {
	return p.Parse(markdown)
}

func (p *GoldmarkParser) Parse(markdown []byte) ([]byte, error) {
	return p.ParseWithOptions(markdown, p.defaults)
}

func (p *GoldmarkParser) ParseWithOptions(markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.engine(opts).Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *GoldmarkParser) engine(opts interfaces.ParseOptions) goldmark.Markdown {
	names := extensionNames(opts.Extensions)
	raw := !opts.SafeMode && !opts.Sanitize
	key := fmt.Sprintf("%s|wraps=%t|raw=%t", strings.Join(names, ","), opts.HardWraps, raw)
	if cached, ok := p.engines.Load(key); ok {
		return cached.(goldmark.Markdown)
	}

	extenders := make([]goldmark.Extender, 0, len(names))
	for _, name := range names {
		extenders = append(extenders, extensionRegistry[name])
	}
	var rendererOptions []renderer.Option
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if raw {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}
	md := goldmark.New(
		goldmark.WithExtensions(extenders...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	)
	actual, _ := p.engines.LoadOrStore(key, md)
	return actual.(goldmark.Markdown)
}

// extensionNames resolves requested names to sorted, de-duplicated registry
// keys. Aliases that map to the same extender collapse into one.
func extensionNames(requested []string) []string {
	if len(requested) == 0 {
		requested = defaultExtensions
	}
	seen := map[string]bool{}
	var names []string
	for _, name := range requested {
		key := strings.ToLower(strings.TrimSpace(name))
		switch key {
		case "tables":
			key = "table"
		case "autolink":
			key = "linkify"
		}
		if _, ok := extensionRegistry[key]; !ok || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}
