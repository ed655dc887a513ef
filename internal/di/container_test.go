package di_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	editorcmd "github.com/goliatone/go-microsite/internal/commands/editor"
	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/di"
	"github.com/goliatone/go-microsite/internal/generator"
	"github.com/goliatone/go-microsite/internal/runtimeconfig"
	"github.com/goliatone/go-microsite/pkg/testsupport"
)

func loadSeed(t *testing.T) content.Document {
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

func memoryConfig(t *testing.T) runtimeconfig.Config {
	t.Helper()
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage = runtimeconfig.StorageConfig{Driver: "memory"}
	cfg.Editor.Debounce = 0
	cfg.Editor.FrameInterval = time.Millisecond
	cfg.Uploads.Dir = t.TempDir()
	cfg.Generator.OutputDir = t.TempDir()
	return cfg
}

func newContainer(t *testing.T, cfg runtimeconfig.Config, opts ...di.Option) (*di.Container, *testsupport.RecordingLogger) {
	t.Helper()
	logger := testsupport.NewRecordingLogger()
	opts = append([]di.Option{di.WithLoggerProvider(logger.Provider())}, opts...)
	container, err := di.NewContainer(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })
	return container, logger
}

func TestContainerWiresEditorToLiveState(t *testing.T) {
	container, logger := newContainer(t, memoryConfig(t), di.WithSeed(loadSeed(t)))

	if container.Editor() == nil || container.EditHandlers() == nil {
		t.Fatalf("expected editor wiring")
	}
	if len(logger.Find("container.ready")) != 1 {
		t.Fatalf("expected container.ready log entry")
	}

	ctx := context.Background()
	edit := container.EditHandlers().Edit
	if err := edit.Execute(ctx, editorcmd.EditCommand{Kind: editorcmd.KindSetField, Path: "meta.title", Value: "Rifa Aniversario"}); err != nil {
		t.Fatalf("set field: %v", err)
	}
	if container.Live().Version() == 0 {
		t.Fatalf("expected the edit to reach the live copy")
	}
	meta, _ := container.Live().Current()["meta"].(map[string]any)
	if meta["title"] != "Rifa Aniversario" {
		t.Fatalf("unexpected live meta %#v", meta)
	}

	if err := edit.Execute(ctx, editorcmd.EditCommand{Kind: editorcmd.KindSave}); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored, err := container.Store().Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if storedMeta, _ := stored["meta"].(map[string]any); storedMeta["title"] != "Rifa Aniversario" {
		t.Fatalf("expected saved title, got %#v", stored["meta"])
	}
}

func TestContainerBatchesPanelRebuilds(t *testing.T) {
	container, _ := newContainer(t, memoryConfig(t), di.WithSeed(loadSeed(t)))

	if err := container.Editor().SelectPage("ganadores"); err != nil {
		t.Fatalf("select page: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := container.LatestPanel(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected a scheduled panel rebuild")
		}
		time.Sleep(2 * time.Millisecond)
	}
	if container.PanelRenders() == 0 {
		t.Fatalf("expected the scheduler to count renders")
	}
}

func TestContainerServesAPI(t *testing.T) {
	container, _ := newContainer(t, memoryConfig(t), di.WithSeed(loadSeed(t)))
	handler, err := container.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"editorEnabled":true`) {
		t.Fatalf("unexpected config response %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ganadores", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected page status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/live/ws") {
		t.Fatalf("served pages should listen for live reloads")
	}
}

func TestContainerGeneratorUsesStaticRenderer(t *testing.T) {
	cfg := memoryConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.Uploads.Dir, "ana.jpg"), []byte("jpg"), 0o644); err != nil {
		t.Fatalf("seed upload: %v", err)
	}
	container, _ := newContainer(t, cfg, di.WithSeed(loadSeed(t)))

	result, err := container.Generator().Build(context.Background(), container.Live().Current(), generator.BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.PagesBuilt != 2 || result.AssetsCopied != 1 {
		t.Fatalf("unexpected build result %+v", result)
	}
	page, err := os.ReadFile(filepath.Join(cfg.Generator.OutputDir, "index.html"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if strings.Contains(string(page), "live/ws") {
		t.Fatalf("static pages must not include the live socket")
	}
}

func TestContainerEditorDisabled(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Editor.Enabled = false
	container, _ := newContainer(t, cfg, di.WithSeed(loadSeed(t)))
	if container.Editor() != nil || container.API().EditorEnabled() {
		t.Fatalf("expected editor to be disabled")
	}
	if _, ok := container.LatestPanel(); ok {
		t.Fatalf("no panel expected without an editor")
	}
}

func TestContainerMissingFileStartsEmpty(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Storage = runtimeconfig.StorageConfig{Driver: "file", Path: filepath.Join(t.TempDir(), "site.json")}
	container, logger := newContainer(t, cfg)
	if len(logger.Find("container.document.missing")) != 1 {
		t.Fatalf("expected missing document warning")
	}
	pages, _ := container.Live().Current()["pages"].([]any)
	if len(pages) != 0 {
		t.Fatalf("expected an empty site, got %#v", pages)
	}
}

func TestContainerWatchPublishesExternalEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.json")
	raw, err := testsupport.LoadFixture("testdata/site.json")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := memoryConfig(t)
	cfg.Editor.Enabled = false
	cfg.Storage = runtimeconfig.StorageConfig{Driver: "file", Path: path, Watch: true}
	container, _ := newContainer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := container.Watch(ctx); err != nil {
		t.Fatalf("watch: %v", err)
	}
	edited := strings.Replace(string(raw), `"pages"`, `"extra": true, "pages"`, 1)
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for container.Live().Current()["extra"] != true {
		if time.Now().After(deadline) {
			t.Fatalf("expected the external edit to be published")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestContainerRejectsInvalidConfig(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Storage.Driver = "s3"
	if _, err := di.NewContainer(context.Background(), cfg); !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestLoggerProviderFromConfig(t *testing.T) {
	provider, err := di.LoggerProviderFromConfig(runtimeconfig.LoggingConfig{Provider: "gologger", Level: "debug", Format: "json"})
	if err != nil || provider == nil {
		t.Fatalf("gologger provider: %v", err)
	}
	if provider.GetLogger("microsite") == nil {
		t.Fatalf("expected a logger")
	}
	if _, err := di.LoggerProviderFromConfig(runtimeconfig.LoggingConfig{Provider: "gologger", Format: "xml"}); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	console, err := di.LoggerProviderFromConfig(runtimeconfig.LoggingConfig{Provider: "console", Level: "warn"})
	if err != nil || console.GetLogger("microsite") == nil {
		t.Fatalf("console provider: %v", err)
	}
}
