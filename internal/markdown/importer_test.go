package markdown

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-microsite/internal/identity"
	"github.com/goliatone/go-microsite/pkg/interfaces"
	"github.com/goliatone/go-microsite/pkg/testsupport"
)

func newTestImporter(logger interfaces.Logger) *Importer {
	return NewImporter(ImporterConfig{
		Parser: NewGoldmarkParser(interfaces.ParseOptions{}),
		Logger: logger,
	})
}

func TestImportPage(t *testing.T) {
	logger := testsupport.NewRecordingLogger()
	page, err := newTestImporter(logger).ImportPage(readFixture(t, "testdata/site/bases.md"))
	if err != nil {
		t.Fatalf("ImportPage: %v", err)
	}

	if page["id"] != "bases" {
		t.Fatalf("expected id from the slug, got %v", page["id"])
	}
	if page["slug"] != "bases" || page["title"] != "Bases del sorteo" {
		t.Fatalf("unexpected slug/title %v %v", page["slug"], page["title"])
	}
	if _, ok := page["hidden"]; ok {
		t.Fatalf("visible page should not carry hidden flag")
	}
	hero := page["hero"].(map[string]any)
	if hero["title"] != "Bases del sorteo" || hero["subtitle"] != "Lee antes de participar" {
		t.Fatalf("unexpected hero %#v", hero)
	}

	sections := page["sections"].([]any)
	if len(sections) != 1 {
		t.Fatalf("expected one section, got %d", len(sections))
	}
	section := sections[0].(map[string]any)
	if section["type"] != "richText" {
		t.Fatalf("expected richText section, got %v", section["type"])
	}
	if section["id"] != identity.SectionID("bases", "richText", 0) {
		t.Fatalf("expected deterministic section id, got %v", section["id"])
	}
	html := section["data"].(map[string]any)["html"].(string)
	if !strings.Contains(html, "<strong>pack</strong>") || !strings.Contains(html, `href="https://mpago.la/abc"`) {
		t.Fatalf("unexpected html %q", html)
	}
	if len(logger.Find("markdown.import.page")) == 0 {
		t.Fatalf("expected import to be logged")
	}
}

func TestImportPageIDPrecedence(t *testing.T) {
	importer := newTestImporter(nil)

	page, err := importer.ImportPage([]byte("---\nid: Premios 2025\nslug: premios\ntitle: X\n---\nHola"))
	if err != nil {
		t.Fatalf("ImportPage: %v", err)
	}
	if page["id"] != "premios-2025" || page["slug"] != "premios" {
		t.Fatalf("expected id from front matter id, got %v / %v", page["id"], page["slug"])
	}

	page, err = importer.ImportPage([]byte("Sin titulo"))
	if err != nil {
		t.Fatalf("ImportPage: %v", err)
	}
	id, _ := page["id"].(string)
	if !strings.HasPrefix(id, "page-") || page["slug"] != id || page["title"] != id {
		t.Fatalf("expected hashed fallback id, got %#v", page)
	}
	again, _ := importer.ImportPage([]byte("Sin titulo"))
	if again["id"] != id {
		t.Fatalf("expected fallback id to be stable")
	}
}

func TestImportPageTitleOnly(t *testing.T) {
	page, err := newTestImporter(nil).ImportPage([]byte("---\ntitle: Pronto\n---\n"))
	if err != nil {
		t.Fatalf("ImportPage: %v", err)
	}
	if sections := page["sections"].([]any); len(sections) != 0 {
		t.Fatalf("expected no sections, got %#v", sections)
	}
}

func TestImportPageErrors(t *testing.T) {
	if _, err := newTestImporter(nil).ImportPage([]byte("   \n")); !errors.Is(err, ErrEmptySource) {
		t.Fatalf("expected ErrEmptySource, got %v", err)
	}
	noParser := NewImporter(ImporterConfig{})
	if _, err := noParser.ImportPage([]byte("hola")); !errors.Is(err, ErrParserRequired) {
		t.Fatalf("expected ErrParserRequired, got %v", err)
	}
	if _, err := newTestImporter(nil).ImportPage([]byte("---\ntitle: [unclosed\n---\nx")); err == nil {
		t.Fatalf("expected front matter error")
	}
}
