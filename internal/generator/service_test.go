package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/render"
	"github.com/goliatone/go-microsite/pkg/testsupport"
)

type stubRenderer struct {
	calls atomic.Int32
	fail  string
	stamp string
}

func (s *stubRenderer) SiteDocument(_ context.Context, site *content.Site, pageID string) ([]byte, error) {
	s.calls.Add(1)
	if pageID == s.fail {
		return nil, errors.New("boom")
	}
	page, _ := site.PageOrFirst(pageID)
	return []byte(fmt.Sprintf("<html><body data-page=%q>%s</body></html>", page.ID, s.stamp)), nil
}

func loadSite(t *testing.T) content.Document {
	t.Helper()
	raw, err := testsupport.LoadFixture("testdata/site.json")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	doc, err := content.Parse(raw)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func readOutput(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func TestPrerenderWritesVisibleRoutes(t *testing.T) {
	dir := t.TempDir()
	result, err := Prerender(context.Background(), &stubRenderer{}, loadSite(t), dir)
	if err != nil {
		t.Fatalf("prerender: %v", err)
	}
	if result.PagesBuilt != 2 {
		t.Fatalf("expected 2 pages, got %d (%+v)", result.PagesBuilt, result.Rendered)
	}
	if got := readOutput(t, dir, "index.html"); !strings.Contains(got, `data-page="home"`) {
		t.Fatalf("unexpected root page %q", got)
	}
	if got := readOutput(t, dir, "ganadores/index.html"); !strings.Contains(got, `data-page="ganadores"`) {
		t.Fatalf("unexpected ganadores page %q", got)
	}
	for _, hidden := range []string{"secreta/index.html", "rota/index.html"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(hidden))); !os.IsNotExist(err) {
			t.Fatalf("expected %s to be skipped, stat err %v", hidden, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, manifestFileName)); !os.IsNotExist(err) {
		t.Fatalf("manifest should only be written for incremental builds")
	}
}

func TestPrerenderWithRealRenderer(t *testing.T) {
	dir := t.TempDir()
	if _, err := Prerender(context.Background(), render.New(), loadSite(t), dir); err != nil {
		t.Fatalf("prerender: %v", err)
	}
	got := readOutput(t, dir, "ganadores/index.html")
	if !strings.Contains(got, "Ana") {
		t.Fatalf("expected winner card in output")
	}
}

func TestBuildIncrementalSkipsUnchangedPages(t *testing.T) {
	dir := t.TempDir()
	renderer := &stubRenderer{stamp: "v1"}
	logger := testsupport.NewRecordingLogger()
	svc := NewService(Config{OutputDir: dir, Incremental: true, Workers: 2}, renderer, WithLogger(logger))

	first, err := svc.Build(context.Background(), loadSite(t), BuildOptions{})
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	if first.PagesBuilt != 2 || first.PagesSkipped != 0 {
		t.Fatalf("unexpected first result %+v", first)
	}

	second, err := svc.Build(context.Background(), loadSite(t), BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if second.PagesBuilt != 0 || second.PagesSkipped != 2 {
		t.Fatalf("expected unchanged pages to be skipped, got %+v", second)
	}

	renderer.stamp = "v2"
	third, err := svc.Build(context.Background(), loadSite(t), BuildOptions{})
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if third.PagesBuilt != 2 {
		t.Fatalf("expected changed pages to be rewritten, got %+v", third)
	}
	if got := readOutput(t, dir, "index.html"); !strings.Contains(got, "v2") {
		t.Fatalf("expected refreshed output, got %q", got)
	}
	if len(logger.Find("generator.build.completed")) != 3 {
		t.Fatalf("expected a completion log per build")
	}
}

func TestBuildSitemapRobotsAndUploads(t *testing.T) {
	dir := t.TempDir()
	uploadsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(uploadsDir, "ana.jpg"), []byte("jpg"), 0o644); err != nil {
		t.Fatalf("seed upload: %v", err)
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(Config{
		OutputDir:       dir,
		BaseURL:         "https://rifa.example/",
		GenerateSitemap: true,
		GenerateRobots:  true,
		UploadsDir:      uploadsDir,
	}, &stubRenderer{}, WithClock(func() time.Time { return now }))

	result, err := svc.Build(context.Background(), loadSite(t), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.AssetsCopied != 1 {
		t.Fatalf("expected one copied upload, got %d", result.AssetsCopied)
	}
	if got := readOutput(t, dir, "uploads/ana.jpg"); got != "jpg" {
		t.Fatalf("unexpected upload copy %q", got)
	}
	sitemap := readOutput(t, dir, "sitemap.xml")
	for _, want := range []string{
		"<loc>https://rifa.example/</loc>",
		"<loc>https://rifa.example/ganadores/</loc>",
		"<lastmod>2024-05-01T12:00:00Z</lastmod>",
	} {
		if !strings.Contains(sitemap, want) {
			t.Fatalf("sitemap missing %q:\n%s", want, sitemap)
		}
	}
	if robots := readOutput(t, dir, "robots.txt"); !strings.Contains(robots, "Sitemap: https://rifa.example/sitemap.xml") {
		t.Fatalf("unexpected robots %q", robots)
	}
}

func TestBuildDryRunAndFilters(t *testing.T) {
	svc := NewService(Config{}, &stubRenderer{})
	result, err := svc.Build(context.Background(), loadSite(t), BuildOptions{DryRun: true, PageIDs: []string{"ganadores"}})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if len(result.Rendered) != 1 || result.Rendered[0].Route != "/ganadores/" || len(result.Rendered[0].HTML) == 0 {
		t.Fatalf("unexpected dry run result %+v", result.Rendered)
	}
	if _, err := svc.Build(context.Background(), loadSite(t), BuildOptions{}); !errors.Is(err, ErrOutputDirRequired) {
		t.Fatalf("expected ErrOutputDirRequired, got %v", err)
	}
}

func TestBuildCollectsRenderErrors(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{OutputDir: dir, GenerateSitemap: true}, &stubRenderer{fail: "ganadores"})
	result, err := svc.Build(context.Background(), loadSite(t), BuildOptions{})
	if err == nil {
		t.Fatalf("expected render error")
	}
	if result == nil || len(result.Errors) != 1 || result.PagesBuilt != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := os.Stat(filepath.Join(dir, "sitemap.xml")); !os.IsNotExist(err) {
		t.Fatalf("sitemap should not be written after a failed build")
	}
}

func TestCleanBuildEmptiesOutput(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "old", "index.html")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	svc := NewService(Config{OutputDir: dir, CleanBuild: true}, &stubRenderer{})
	if _, err := svc.Build(context.Background(), loadSite(t), BuildOptions{}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale output to be removed")
	}
}

func TestDisabledService(t *testing.T) {
	svc := NewDisabledService()
	if _, err := svc.Build(context.Background(), content.Document{}, BuildOptions{}); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestSiteRoutes(t *testing.T) {
	site := &content.Site{
		Pages: []content.Page{{ID: "a"}, {ID: "b"}},
		Navigation: []content.NavEntry{
			{PageID: "b", Path: "/B"},
			{PageID: "a", Path: "/b/"},
			{PageID: "a", Path: "https://example.com/x"},
			{PageID: "a", Path: "#top"},
		},
	}
	routes := siteRoutes(site)
	if len(routes) != 2 {
		t.Fatalf("expected two routes, got %+v", routes)
	}
	if routes[0] != (route{PageID: "a", Path: "/"}) || routes[1] != (route{PageID: "b", Path: "/b/"}) {
		t.Fatalf("unexpected routes %+v", routes)
	}
}

func TestBuildOutputPath(t *testing.T) {
	cases := map[string]string{
		"/":           "index.html",
		"":            "index.html",
		"/ganadores/": "ganadores/index.html",
		"/a/b":        "a/b/index.html",
	}
	for in, want := range cases {
		got, err := buildOutputPath(in)
		if err != nil || got != want {
			t.Fatalf("buildOutputPath(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := buildOutputPath("/../etc/"); !errors.Is(err, ErrUnsafeRoute) {
		t.Fatalf("expected ErrUnsafeRoute, got %v", err)
	}
}
