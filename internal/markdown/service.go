package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/internal/runtimeconfig"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

// Config controls how the Markdown service discovers and parses files.
type Config struct {
	BasePath  string
	Pattern   string
	Recursive bool
	Parser    interfaces.ParseOptions
}

// ParseOptionsFrom maps runtime markdown settings onto parser options.
func ParseOptionsFrom(cfg runtimeconfig.MarkdownConfig) interfaces.ParseOptions {
	return interfaces.ParseOptions{
		Extensions: append([]string(nil), cfg.Extensions...),
		HardWraps:  cfg.HardWraps,
		SafeMode:   cfg.SafeMode,
	}
}

// Service loads Markdown files from disk, renders them and imports them as pages.
type Service struct {
	cfg      Config
	parser   interfaces.MarkdownParser
	loader   *Loader
	importer *Importer
	logger   interfaces.Logger
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger handed to the importer.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a Markdown service using an underlying loader. When parser
// is nil, a Goldmark parser with the provided default options is created.
func NewService(cfg Config, parser interfaces.MarkdownParser, opts ...ServiceOption) (*Service, error) {
	filesystem, err := prepareFilesystem(cfg.BasePath)
	if err != nil {
		return nil, err
	}

	if parser == nil {
		parser = NewGoldmarkParser(cfg.Parser)
	}

	s := &Service{
		cfg:    cfg,
		parser: parser,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.loader = NewLoader(filesystem, LoaderConfig{
		Pattern:   cfg.Pattern,
		Recursive: cfg.Recursive,
	})
	s.importer = NewImporter(ImporterConfig{Parser: parser, Logger: s.logger})
	return s, nil
}

// Load reads a single Markdown document relative to the configured base path.
func (s *Service) Load(ctx context.Context, path string) (*interfaces.Document, error) {
	doc, err := s.loader.Read(ctx, s.normalisePath(path))
	if err != nil {
		return nil, err
	}
	if err := s.renderDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadDirectory reads every Markdown document within the supplied directory.
func (s *Service) LoadDirectory(ctx context.Context, dir string) ([]*interfaces.Document, error) {
	names, err := s.loader.Discover(ctx, s.normalisePath(dir))
	if err != nil {
		return nil, err
	}
	docs := make([]*interfaces.Document, 0, len(names))
	for _, name := range names {
		doc, err := s.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Render parses Markdown bytes into HTML using the configured parser.
func (s *Service) Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return s.parser.ParseWithOptions(markdown, mergeParseOptions(s.cfg.Parser, opts))
}

// Convert renders a richText markdown field with the default options.
func (s *Service) Convert(markdown []byte) ([]byte, error) {
	return s.parser.ParseWithOptions(markdown, s.cfg.Parser)
}

// ImportPage turns Markdown source with front matter into a page.
func (s *Service) ImportPage(source []byte) (map[string]any, error) {
	return s.importer.ImportPage(source)
}

// ImportFile loads path and converts it into a page.
func (s *Service) ImportFile(ctx context.Context, path string) (map[string]any, error) {
	doc, err := s.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.importer.PageFromDocument(doc)
}

// ImportDirectory converts every Markdown file under dir into a page, in
// file path order.
func (s *Service) ImportDirectory(ctx context.Context, dir string) ([]map[string]any, error) {
	docs, err := s.LoadDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	pages := make([]map[string]any, 0, len(docs))
	var errs []error
	for _, doc := range docs {
		page, err := s.importer.PageFromDocument(doc)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", doc.FilePath, err))
			continue
		}
		pages = append(pages, page)
	}
	return pages, errors.Join(errs...)
}

func (s *Service) renderDocument(ctx context.Context, doc *interfaces.Document) error {
	if doc == nil {
		return nil
	}
	html, err := s.Render(ctx, doc.Body, interfaces.ParseOptions{})
	if err != nil {
		return fmt.Errorf("markdown render document %s: %w", doc.FilePath, err)
	}
	doc.BodyHTML = html
	return nil
}

func (s *Service) normalisePath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "."
	}
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) && strings.TrimSpace(s.cfg.BasePath) != "" {
		if rel, err := filepath.Rel(s.cfg.BasePath, clean); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(clean)
}

func mergeParseOptions(base, override interfaces.ParseOptions) interfaces.ParseOptions {
	result := base
	if len(override.Extensions) > 0 {
		result.Extensions = append([]string(nil), override.Extensions...)
	}
	if override.Sanitize {
		result.Sanitize = true
	}
	if override.HardWraps {
		result.HardWraps = true
	}
	if override.SafeMode {
		result.SafeMode = true
	}
	return result
}

func prepareFilesystem(basePath string) (fs.FS, error) {
	if strings.TrimSpace(basePath) == "" {
		basePath = "."
	}
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("markdown service: stat base path %s: %w", basePath, err)
	}
	return os.DirFS(basePath), nil
}
