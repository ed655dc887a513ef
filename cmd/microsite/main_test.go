package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-microsite/cmd/microsite/internal/bootstrap"
	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/pkg/testsupport"
)

type fixtureSite struct {
	dir        string
	config     string
	document   string
	uploadsDir string
	outputDir  string
}

func newFixtureSite(t *testing.T) fixtureSite {
	t.Helper()
	dir := t.TempDir()
	document, err := testsupport.CopyFixture("testdata/site.json", dir)
	if err != nil {
		t.Fatalf("copy fixture: %v", err)
	}
	site := fixtureSite{
		dir:        dir,
		config:     filepath.Join(dir, "microsite.yaml"),
		document:   document,
		uploadsDir: filepath.Join(dir, "uploads"),
		outputDir:  filepath.Join(dir, "dist"),
	}
	if err := os.MkdirAll(site.uploadsDir, 0o755); err != nil {
		t.Fatalf("mkdir uploads: %v", err)
	}
	cfg := strings.Join([]string{
		"logging:",
		"  level: error",
		"storage:",
		"  driver: file",
		"  path: " + site.document,
		"uploads:",
		"  dir: " + site.uploadsDir,
		"generator:",
		"  output_dir: " + site.outputDir,
		"",
	}, "\n")
	if err := os.WriteFile(site.config, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return site
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--no-color"))
	err := root.Execute()
	return out.String(), err
}

func loadDocument(t *testing.T, path string) content.Document {
	t.Helper()
	doc, err := testsupport.LoadDocument(path)
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	return doc
}

func TestLoadConfigMergesFileAndEnvironment(t *testing.T) {
	site := newFixtureSite(t)
	envFile := filepath.Join(site.dir, ".env")
	if err := os.WriteFile(envFile, []byte("MICROSITE_SERVER_ADDR=:9090\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("MICROSITE_EDITOR_DEBOUNCE", "50ms")
	t.Cleanup(func() { _ = os.Unsetenv("MICROSITE_SERVER_ADDR") })

	cfg, used, err := bootstrap.LoadConfig(bootstrap.Options{ConfigFile: site.config, EnvFile: envFile})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if used != site.config {
		t.Fatalf("expected config file %q, got %q", site.config, used)
	}
	if cfg.Storage.Path != site.document || cfg.Storage.Driver != "file" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected env file override, got %q", cfg.Server.Addr)
	}
	if cfg.Editor.Debounce != 50*time.Millisecond {
		t.Fatalf("expected env debounce override, got %s", cfg.Editor.Debounce)
	}
	if cfg.Uploads.MainWidth != 1000 {
		t.Fatalf("defaults should survive partial config files, got %d", cfg.Uploads.MainWidth)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, _, err := bootstrap.LoadConfig(bootstrap.Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Fatalf("expected missing explicit config to fail")
	}
	if _, _, err := bootstrap.LoadConfig(bootstrap.Options{EnvFile: filepath.Join(t.TempDir(), ".env"), EnvFileRequired: true}); err == nil {
		t.Fatalf("expected missing required env file to fail")
	}
	t.Setenv("MICROSITE_STORAGE_DRIVER", "s3")
	if _, _, err := bootstrap.LoadConfig(bootstrap.Options{}); err == nil {
		t.Fatalf("expected invalid driver to fail validation")
	}
}

func TestRenderCommand(t *testing.T) {
	site := newFixtureSite(t)
	out, err := runCLI(t, "render", "--config", site.config, "--base-url", "https://rifa.example")
	if err != nil {
		t.Fatalf("render: %v\n%s", err, out)
	}
	for _, rel := range []string{"index.html", "ganadores/index.html", "sitemap.xml", "robots.txt"} {
		if _, err := os.Stat(filepath.Join(site.outputDir, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}
	if !strings.Contains(out, "rendered 2 page(s)") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestValidateCommand(t *testing.T) {
	site := newFixtureSite(t)
	out, err := runCLI(t, "validate", "--config", site.config)
	if !errors.Is(err, errInvalidDocument) {
		t.Fatalf("expected missing uploads to fail validation, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "missing") {
		t.Fatalf("expected missing upload report, got %q", out)
	}

	valid := filepath.Join(site.dir, "valid.json")
	doc := `{"pages": [{"id": "home", "title": "Inicio", "hero": {"title": "Rifa"}, "sections": []}]}`
	if err := os.WriteFile(valid, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err = runCLI(t, "validate", valid, "--config", site.config)
	if err != nil {
		t.Fatalf("validate file: %v\n%s", err, out)
	}
	if !strings.Contains(out, "document is valid") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestImportCommand(t *testing.T) {
	site := newFixtureSite(t)
	md := filepath.Join(site.dir, "bases.md")
	source := "---\ntitle: Bases del sorteo\nslug: bases\n---\nParticipa con un **pack**.\n"
	if err := os.WriteFile(md, []byte(source), 0o644); err != nil {
		t.Fatalf("write markdown: %v", err)
	}

	out, err := runCLI(t, "import", md, "--config", site.config, "--dry-run")
	if err != nil {
		t.Fatalf("dry run import: %v\n%s", err, out)
	}
	if pages := loadDocument(t, site.document)["pages"].([]any); len(pages) != 3 {
		t.Fatalf("dry run should not save, got %d pages", len(pages))
	}

	out, err = runCLI(t, "import", md, "--config", site.config)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	doc := loadDocument(t, site.document)
	pages := doc["pages"].([]any)
	if len(pages) != 4 {
		t.Fatalf("expected an appended page, got %d", len(pages))
	}
	if last := pages[3].(map[string]any); last["id"] != "bases" {
		t.Fatalf("unexpected imported page %#v", last)
	}

	dir := filepath.Join(site.dir, "paginas")
	if err := os.MkdirAll(filepath.Join(dir, "extra"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, body := range map[string]string{
		"premios.md":      "---\ntitle: Premios\n---\nTres packs.\n",
		"faq.md":          "---\ntitle: Preguntas\nslug: faq\n---\nRespuestas.\n",
		"extra/oculta.md": "---\ntitle: Oculta\n---\nNo.\n",
		"notas.txt":       "ignored",
	} {
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	out, err = runCLI(t, "import", dir, "--config", site.config)
	if err != nil {
		t.Fatalf("import dir: %v\n%s", err, out)
	}
	if !strings.Contains(out, "imported 2 page(s)") {
		t.Fatalf("expected non-recursive import of two files, got %q", out)
	}
	pages = loadDocument(t, site.document)["pages"].([]any)
	if len(pages) != 6 {
		t.Fatalf("expected 6 pages, got %d", len(pages))
	}
	if pages[4].(map[string]any)["id"] != "faq" || pages[5].(map[string]any)["id"] != "premios" {
		t.Fatalf("expected path-ordered pages, got %v and %v", pages[4], pages[5])
	}
}

func TestDiffCommand(t *testing.T) {
	site := newFixtureSite(t)
	same, err := runCLI(t, "diff", site.document, "--config", site.config)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(same, "no differences") {
		t.Fatalf("unexpected output %q", same)
	}

	raw, err := os.ReadFile(site.document)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	other := filepath.Join(site.dir, "other.json")
	edited := strings.Replace(string(raw), "Rifas Ojeda", "Rifas Aniversario", 1)
	if err := os.WriteFile(other, []byte(edited), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := runCLI(t, "diff", other, "--config", site.config)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, "- ") || !strings.Contains(out, "Rifas Aniversario") {
		t.Fatalf("expected changed lines, got %q", out)
	}
}
