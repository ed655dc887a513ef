package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/identity"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

var (
	ErrParserRequired = errors.New("markdown importer: parser is required")
	ErrEmptySource    = errors.New("markdown importer: source has no title and no body")
)

// ImporterConfig encapsulates dependencies required to turn markdown into pages.
type ImporterConfig struct {
	Parser interfaces.MarkdownParser
	Logger interfaces.Logger
}

// Importer converts markdown documents into microsite pages. Every page gets
// a single richText section carrying the rendered HTML.
type Importer struct {
	parser interfaces.MarkdownParser
	logger interfaces.Logger
}

// NewImporter builds an Importer from the supplied configuration.
func NewImporter(cfg ImporterConfig) *Importer {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Importer{
		parser: cfg.Parser,
		logger: logger,
	}
}

// ImportPage parses front matter and body from source and returns the page.
func (i *Importer) ImportPage(source []byte) (map[string]any, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}
	return i.PageFromDocument(&interfaces.Document{FrontMatter: fm, Body: body})
}

// PageFromDocument renders doc and maps it to a page. BodyHTML is reused
// when already populated.
func (i *Importer) PageFromDocument(doc *interfaces.Document) (map[string]any, error) {
	if doc == nil {
		return nil, errors.New("markdown importer: document is nil")
	}
	fm := doc.FrontMatter
	body := bytes.TrimSpace(doc.Body)
	title := strings.TrimSpace(fm.Title)
	if title == "" && len(body) == 0 {
		return nil, ErrEmptySource
	}

	rendered := doc.BodyHTML
	if rendered == nil && len(body) > 0 {
		if i.parser == nil {
			return nil, ErrParserRequired
		}
		out, err := i.parser.Parse(body)
		if err != nil {
			return nil, fmt.Errorf("markdown importer: render %s: %w", doc.FilePath, err)
		}
		rendered = out
		doc.BodyHTML = out
	}

	id := pageID(fm, body)
	pageSlug := strings.Trim(strings.TrimSpace(fm.Slug), "/")
	if pageSlug == "" {
		pageSlug = id
	}
	if title == "" {
		title = id
	}

	hero := map[string]any{"title": title}
	if subtitle := strings.TrimSpace(fm.Subtitle); subtitle != "" {
		hero["subtitle"] = subtitle
	}

	sections := []any{}
	if html := strings.TrimSpace(string(rendered)); html != "" {
		sections = append(sections, map[string]any{
			"id":   identity.SectionID(id, content.SectionRichText, 0),
			"type": content.SectionRichText,
			"data": map[string]any{"html": html},
		})
	}

	page := map[string]any{
		"id":       id,
		"slug":     pageSlug,
		"title":    title,
		"hero":     hero,
		"sections": sections,
	}
	if fm.Hidden {
		page["hidden"] = true
	}

	i.logger.Debug("markdown.import.page", "page_id", id, "file", doc.FilePath, "sections", len(sections))
	return page, nil
}

func pageID(fm interfaces.FrontMatter, body []byte) string {
	for _, candidate := range []string{fm.ID, fm.Slug, fm.Title} {
		candidate = strings.Trim(strings.TrimSpace(candidate), "/")
		if candidate == "" {
			continue
		}
		if normalized, err := slug.Default().Normalize(candidate); err == nil && normalized != "" {
			return normalized
		}
	}
	return identity.PageID(body)
}
