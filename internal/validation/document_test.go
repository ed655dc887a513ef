package validation_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/validation"
)

func loadSite(t *testing.T) content.Document {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", "site.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	doc, err := content.Parse(raw)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestValidateDocumentFixture(t *testing.T) {
	report, err := validation.ValidateDocument(loadSite(t), validation.Options{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %#v", report.Issues)
	}
	if !report.OK() || report.Err() != nil {
		t.Fatalf("expected report to pass")
	}

	wantWarnings := []string{"/pages/0/sections/2/type", "/navigation/2/pageId", "/navigation/3/pageId"}
	if len(report.Warnings) != len(wantWarnings) {
		t.Fatalf("expected %d warnings, got %#v", len(wantWarnings), report.Warnings)
	}
	for i, loc := range wantWarnings {
		if report.Warnings[i].Location != loc {
			t.Fatalf("warning %d: expected %s, got %#v", i, loc, report.Warnings[i])
		}
	}

	wantRefs := []string{"/uploads/ana.jpg", "/uploads/banner.jpg", "/uploads/perfil.jpg"}
	if !reflect.DeepEqual(report.UploadRefs, wantRefs) {
		t.Fatalf("expected refs %v, got %v", wantRefs, report.UploadRefs)
	}
	if len(report.Missing) != 0 {
		t.Fatalf("missing check should be skipped without an uploads dir")
	}
}

func TestValidateDocumentSchemaIssues(t *testing.T) {
	doc := content.Document{
		"pages": []any{
			map[string]any{"title": "sin id", "sections": []any{map[string]any{"id": "x"}}},
		},
		"navigation": []any{map[string]any{"label": "Inicio"}},
	}
	report, err := validation.ValidateDocument(doc, validation.Options{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.OK() {
		t.Fatalf("expected schema issues")
	}
	err = report.Err()
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
	if len(validation.Issues(err)) < 3 {
		t.Fatalf("expected issues for page id, section type and nav pageId, got %#v", validation.Issues(err))
	}
	if err := validation.ValidateSchemaOnly(doc); err == nil {
		t.Fatalf("expected schema only check to fail")
	}
	if err := validation.ValidateSchemaOnly(loadSite(t)); err != nil {
		t.Fatalf("expected fixture to match schema: %v", err)
	}
}

func TestValidateDocumentSemanticIssues(t *testing.T) {
	report, err := validation.ValidateDocument(content.Document{"pages": []any{}}, validation.Options{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(report.Issues) != 1 || report.Issues[0].Location != "/pages" {
		t.Fatalf("expected empty pages issue, got %#v", report.Issues)
	}

	doc := content.Document{"pages": []any{
		map[string]any{"id": "home"},
		map[string]any{"id": "home", "hero": map[string]any{"bannerImage": "data:image/png;base64,AAAA"}},
	}}
	report, err = validation.ValidateDocument(doc, validation.Options{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.DataURIs != 1 {
		t.Fatalf("expected one data URI, got %d", report.DataURIs)
	}
	locations := map[string]bool{}
	for _, issue := range report.Issues {
		locations[issue.Location] = true
	}
	if !locations["/pages/1/id"] || !locations["/pages/1/hero/bannerImage"] {
		t.Fatalf("expected duplicate id and data URI issues, got %#v", report.Issues)
	}
}

func TestValidateDocumentMissingUploadsAndRestore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "banner.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	report, err := validation.ValidateDocument(loadSite(t), validation.Options{UploadsDir: dir})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !reflect.DeepEqual(report.Missing, []string{"/uploads/ana.jpg", "/uploads/perfil.jpg"}) {
		t.Fatalf("unexpected missing %v", report.Missing)
	}
	if report.OK() {
		t.Fatalf("missing uploads must fail the report")
	}

	quarantine := filepath.Join(dir, ".quarantine", "2024")
	if err := os.MkdirAll(quarantine, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(quarantine, "perfil.jpg"), []byte("p"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	report, err = validation.ValidateDocument(loadSite(t), validation.Options{UploadsDir: dir, RestoreMissing: true})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !reflect.DeepEqual(report.Restored, []string{"/uploads/perfil.jpg"}) {
		t.Fatalf("unexpected restored %v", report.Restored)
	}
	if !reflect.DeepEqual(report.Missing, []string{"/uploads/ana.jpg"}) {
		t.Fatalf("unexpected missing after restore %v", report.Missing)
	}
	if _, err := os.Stat(filepath.Join(dir, "perfil.jpg")); err != nil {
		t.Fatalf("expected restored file in uploads dir: %v", err)
	}
}

func TestValidateDocumentNil(t *testing.T) {
	if _, err := validation.ValidateDocument(nil, validation.Options{}); !errors.Is(err, validation.ErrDocumentRequired) {
		t.Fatalf("expected ErrDocumentRequired, got %v", err)
	}
}
