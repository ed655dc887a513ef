package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled = errors.New("generator: service disabled")
	// ErrOutputDirRequired is returned when no output directory is configured.
	ErrOutputDirRequired = errors.New("generator: output directory is required")
	errRendererRequired  = errors.New("generator: page renderer is required")
)

// PageRenderer renders a complete HTML document for one page.
type PageRenderer interface {
	SiteDocument(ctx context.Context, site *content.Site, pageID string) ([]byte, error)
}

// Service describes the prerender contract.
type Service interface {
	Build(ctx context.Context, doc content.Document, opts BuildOptions) (*BuildResult, error)
	Clean(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	OutputDir string
	BaseURL   string
	// CleanBuild empties OutputDir before writing.
	CleanBuild bool
	// Incremental skips pages whose output is unchanged since the last build.
	Incremental     bool
	GenerateSitemap bool
	GenerateRobots  bool
	// UploadsDir is copied to OutputDir under UploadsPrefix when set.
	UploadsDir    string
	UploadsPrefix string
	Workers       int
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	// PageIDs limits the build to these pages. Empty builds every route.
	PageIDs []string
	DryRun  bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PagesBuilt   int
	PagesSkipped int
	AssetsCopied int
	Duration     time.Duration
	Rendered     []RenderedPage
	Errors       []error
	DryRun       bool
}

// RenderedPage describes one prerendered route.
type RenderedPage struct {
	PageID   string `json:"pageId"`
	Route    string `json:"route"`
	Output   string `json:"output"`
	Checksum string `json:"checksum"`
	Skipped  bool   `json:"skipped,omitempty"`
	HTML     []byte `json:"-"`
}

// Option configures the service.
type Option func(*service)

// WithLogger sets the generator logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		s.logger = logging.OrNoOp(logger)
	}
}

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a generator with the provided configuration and renderer.
func NewService(cfg Config, renderer PageRenderer, opts ...Option) Service {
	s := &service{
		cfg:      cfg,
		renderer: renderer,
		logger:   logging.NoOp(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

// Prerender writes index.html for "/" and <path>/index.html for every
// visible navigation entry of doc into outDir.
func Prerender(ctx context.Context, renderer PageRenderer, doc content.Document, outDir string) (*BuildResult, error) {
	return NewService(Config{OutputDir: outDir}, renderer).Build(ctx, doc, BuildOptions{})
}

type service struct {
	cfg      Config
	renderer PageRenderer
	logger   interfaces.Logger
	now      func() time.Time
}

type disabledService struct{}

func (disabledService) Build(context.Context, content.Document, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}

func (s *service) Build(ctx context.Context, doc content.Document, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.renderer == nil {
		return nil, errRendererRequired
	}
	outDir := strings.TrimSpace(s.cfg.OutputDir)
	if outDir == "" && !opts.DryRun {
		return nil, ErrOutputDirRequired
	}
	site, err := content.DecodeSite(doc)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	generatedAt := s.now().UTC()
	result := &BuildResult{DryRun: opts.DryRun}
	routes := filterRoutes(siteRoutes(site), opts.PageIDs)

	if s.cfg.CleanBuild && !opts.DryRun {
		if err := s.Clean(ctx); err != nil {
			return nil, err
		}
	}

	manifest := newBuildManifest()
	if s.cfg.Incremental && !opts.DryRun {
		loaded, err := loadManifest(outDir)
		if err != nil {
			s.logger.Warn("generator.manifest.unreadable", "error", err)
		} else {
			manifest = loaded
		}
	}

	var (
		mu          sync.Mutex
		rendered    = make([]RenderedPage, 0, len(routes))
		errorsSlice []error
	)
	collect := func(page RenderedPage, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errorsSlice = append(errorsSlice, err)
			return
		}
		if page.Skipped {
			result.PagesSkipped++
		} else {
			result.PagesBuilt++
		}
		rendered = append(rendered, page)
	}

	build := func(r route) {
		page, err := s.renderRoute(ctx, site, r, manifest, outDir, opts.DryRun)
		collect(page, err)
	}

	workers := s.effectiveWorkerCount(len(routes))
	if workers <= 1 {
		for _, r := range routes {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			build(r)
		}
	} else {
		jobs := make(chan route)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for r := range jobs {
					if err := ctx.Err(); err != nil {
						collect(RenderedPage{}, fmt.Errorf("generator: render %s: %w", r.Path, err))
						continue
					}
					build(r)
				}
			}()
		}
		for _, r := range routes {
			jobs <- r
		}
		close(jobs)
		wg.Wait()
	}
	sortRendered(rendered)

	if !opts.DryRun && len(errorsSlice) == 0 {
		if s.cfg.GenerateSitemap {
			if err := writeFile(filepath.Join(outDir, "sitemap.xml"), []byte(buildSitemap(s.cfg.BaseURL, rendered, generatedAt))); err != nil {
				errorsSlice = append(errorsSlice, err)
			}
		}
		if s.cfg.GenerateRobots {
			if err := writeFile(filepath.Join(outDir, "robots.txt"), []byte(buildRobots(s.cfg.BaseURL, s.cfg.GenerateSitemap))); err != nil {
				errorsSlice = append(errorsSlice, err)
			}
		}
		if strings.TrimSpace(s.cfg.UploadsDir) != "" {
			copied, err := copyTree(ctx, s.cfg.UploadsDir, filepath.Join(outDir, filepath.FromSlash(strings.Trim(s.uploadsPrefix(), "/"))))
			result.AssetsCopied = copied
			if err != nil {
				errorsSlice = append(errorsSlice, err)
			}
		}
		if s.cfg.Incremental {
			manifest.GeneratedAt = generatedAt
			for _, page := range rendered {
				manifest.setPage(manifestPage{
					PageID:     page.PageID,
					Route:      page.Route,
					Output:     page.Output,
					Checksum:   page.Checksum,
					RenderedAt: generatedAt,
				})
			}
			if err := persistManifest(outDir, manifest); err != nil {
				errorsSlice = append(errorsSlice, err)
			}
		}
	}

	result.Rendered = rendered
	result.Duration = time.Since(start)
	s.logger.Info("generator.build.completed",
		"built", result.PagesBuilt,
		"skipped", result.PagesSkipped,
		"assets", result.AssetsCopied,
		"dry_run", opts.DryRun,
		"duration_ms", result.Duration.Milliseconds(),
	)
	if len(errorsSlice) > 0 {
		result.Errors = append(result.Errors, errorsSlice...)
		return result, errors.Join(errorsSlice...)
	}
	return result, nil
}

func (s *service) renderRoute(ctx context.Context, site *content.Site, r route, manifest *buildManifest, outDir string, dryRun bool) (RenderedPage, error) {
	output, err := buildOutputPath(r.Path)
	if err != nil {
		return RenderedPage{}, err
	}
	body, err := s.renderer.SiteDocument(ctx, site, r.PageID)
	if err != nil {
		return RenderedPage{}, fmt.Errorf("generator: render %s: %w", r.Path, err)
	}
	sum := sha256.Sum256(body)
	page := RenderedPage{
		PageID:   r.PageID,
		Route:    r.Path,
		Output:   output,
		Checksum: hex.EncodeToString(sum[:]),
		HTML:     body,
	}
	if dryRun {
		return page, nil
	}

	target := filepath.Join(outDir, filepath.FromSlash(output))
	if s.cfg.Incremental && manifest.shouldSkipPage(page.Route, page.Checksum, page.Output) {
		if _, err := os.Stat(target); err == nil {
			page.Skipped = true
			return page, nil
		}
	}
	if err := writeFile(target, body); err != nil {
		return RenderedPage{}, err
	}
	s.logger.Debug("generator.page.written", "page_id", page.PageID, "route", page.Route, "output", output)
	return page, nil
}

// Clean removes the output directory contents.
func (s *service) Clean(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := strings.TrimSpace(s.cfg.OutputDir)
	if dir == "" {
		return ErrOutputDirRequired
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) effectiveWorkerCount(routes int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > routes {
		workers = routes
	}
	return workers
}

func (s *service) uploadsPrefix() string {
	if prefix := strings.TrimSpace(s.cfg.UploadsPrefix); prefix != "" {
		return prefix
	}
	return "/uploads"
}
