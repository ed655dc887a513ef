package editorcmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/editor"
)

const fixture = `{
  "pages": [
    {
      "id": "home",
      "title": "Inicio",
      "hero": {"title": "Hola"},
      "sections": [
        {"id": "packs", "type": "linkCards", "data": {"cards": [{"title": "Uno", "href": "#"}]}},
        {"id": "info", "type": "richText", "data": {"lines": ["a"]}}
      ]
    },
    {"id": "ganadores", "title": "Ganadores", "sections": []}
  ]
}`

type saverFunc func(ctx context.Context, doc content.Document) error

func (f saverFunc) Save(ctx context.Context, doc content.Document) error { return f(ctx, doc) }

type importerFunc func(source []byte) (map[string]any, error)

func (f importerFunc) ImportPage(source []byte) (map[string]any, error) { return f(source) }

func newStore(t *testing.T) *editor.Store {
	t.Helper()
	doc, err := content.Parse([]byte(fixture))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return editor.NewStore(doc, editor.WithScheduler(func(func()) {}))
}

func intPtr(v int) *int { return &v }

func TestEditHandlerAppliesKinds(t *testing.T) {
	store := newStore(t)
	handler := NewEditHandler(store, nil, nil, nil)
	ctx := context.Background()

	steps := []EditCommand{
		{Kind: KindSetField, Path: "pages.0.sections.0.data.cards.0.title", Value: "Uno editado"},
		{Kind: KindSetLines, Path: []any{"pages", 0, "sections", 1, "data", "lines"}, Text: " uno \n\n dos "},
		{Kind: KindAddHeroButton},
		{Kind: KindAddSection, SectionType: "faq"},
		{Kind: KindMoveSection, Index: intPtr(2), Delta: -2},
		{Kind: KindAddSectionItem, Index: intPtr(1)},
		{Kind: KindRemoveSectionItem, Index: intPtr(1), Item: intPtr(0)},
	}
	for _, step := range steps {
		if err := handler.Execute(ctx, step); err != nil {
			t.Fatalf("%s: %v", step.Kind, err)
		}
	}

	if title, _ := store.Value(editor.Path{"pages", 0, "sections", 1, "data", "cards", 0, "title"}); title != "Nueva opcion" {
		t.Fatalf("expected the added card to remain after removing the first, got %v", title)
	}
	if lines, _ := store.Value(editor.Path{"pages", 0, "sections", 2, "data", "lines"}); len(lines.([]any)) != 2 {
		t.Fatalf("expected trimmed lines, got %#v", lines)
	}
	if kind, _ := store.Value(editor.Path{"pages", 0, "sections", 0, "type"}); kind != "faq" {
		t.Fatalf("expected faq section moved first, got %v", kind)
	}
	buttons, _ := store.Value(editor.Path{"pages", 0, "hero", "buttons"})
	if len(buttons.([]any)) != 1 {
		t.Fatalf("expected one hero button, got %#v", buttons)
	}

	if err := handler.Execute(ctx, EditCommand{Kind: KindSelectPage, PageID: "ganadores"}); err != nil {
		t.Fatalf("select page: %v", err)
	}
	if store.PageID() != "ganadores" {
		t.Fatalf("expected ganadores selected, got %q", store.PageID())
	}
}

func TestEditHandlerValidation(t *testing.T) {
	handler := NewEditHandler(newStore(t), nil, nil, nil)
	cases := []EditCommand{
		{},
		{Kind: "explode"},
		{Kind: KindSetField},
		{Kind: KindSetField, Path: "a..b"},
		{Kind: KindSetField, Path: "pages.999999999999.title"},
		{Kind: KindSetField, Path: []any{"pages", float64(20000000), "title"}},
		{Kind: KindMoveSection, Index: intPtr(0)},
		{Kind: KindRemoveSection},
		{Kind: KindRemoveSectionItem, Index: intPtr(0)},
		{Kind: KindAddSection},
		{Kind: KindApplyPatch},
		{Kind: KindImportMarkdown, Source: "   "},
	}
	for _, tc := range cases {
		err := handler.Execute(context.Background(), tc)
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("%+v: expected validation error, got %v", tc, err)
		}
	}
}

func TestEditHandlerStoreErrorsAreCommandErrors(t *testing.T) {
	handler := NewEditHandler(newStore(t), nil, nil, nil)
	err := handler.Execute(context.Background(), EditCommand{Kind: KindRemoveSection, Index: intPtr(9)})
	if !errors.Is(err, editor.ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}

	err = handler.Execute(context.Background(), EditCommand{Kind: KindSetField, Path: "pages.0.title.x", Value: 1})
	if !errors.Is(err, editor.ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}
}

func TestEditHandlerSave(t *testing.T) {
	store := newStore(t)
	if err := NewEditHandler(store, nil, nil, nil).Execute(context.Background(), EditCommand{Kind: KindSave}); !errors.Is(err, ErrSaveNotConfigured) {
		t.Fatalf("expected ErrSaveNotConfigured, got %v", err)
	}

	var saved content.Document
	handler := NewEditHandler(store, saverFunc(func(_ context.Context, doc content.Document) error {
		saved = doc
		return nil
	}), nil, nil)
	if err := handler.Execute(context.Background(), EditCommand{Kind: KindSetField, Path: "/meta/title", Value: "Rifa"}); err != nil {
		t.Fatalf("set field: %v", err)
	}
	if !store.Dirty() {
		t.Fatalf("expected dirty draft")
	}
	if err := handler.Execute(context.Background(), EditCommand{Kind: KindSave}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if title, _ := editor.GetValueByPath(saved, editor.Path{"meta", "title"}); title != "Rifa" {
		t.Fatalf("expected saved document to carry the edit, got %v", title)
	}
	if store.Dirty() {
		t.Fatalf("expected clean draft after save")
	}
}

func TestEditHandlerApplyPatch(t *testing.T) {
	store := newStore(t)
	handler := NewEditHandler(store, nil, nil, nil)
	cmd, err := DecodeEditCommand([]byte(`{"kind":"applyPatch","patch":[{"op":"replace","path":"/pages/0/hero/title","value":"Parche"}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("apply patch: %v", err)
	}
	if title, _ := store.Value(editor.Path{"pages", 0, "hero", "title"}); title != "Parche" {
		t.Fatalf("expected patched title, got %v", title)
	}

	bad := EditCommand{Kind: KindApplyPatch, Patch: []byte(`[{"op":"remove","path":"/missing/0"}]`)}
	if err := handler.Execute(context.Background(), bad); !errors.Is(err, editor.ErrInvalidPatch) {
		t.Fatalf("expected ErrInvalidPatch, got %v", err)
	}
}

func TestEditHandlerImportMarkdown(t *testing.T) {
	store := newStore(t)
	if err := NewEditHandler(store, nil, nil, nil).Execute(context.Background(), EditCommand{Kind: KindImportMarkdown, Source: "# Hola"}); !errors.Is(err, ErrImportNotConfigured) {
		t.Fatalf("expected ErrImportNotConfigured, got %v", err)
	}

	var got string
	importer := importerFunc(func(source []byte) (map[string]any, error) {
		got = string(source)
		return map[string]any{"id": "bases", "title": "Bases", "slug": "bases"}, nil
	})
	handler := NewEditHandler(store, nil, importer, nil)
	if err := handler.Execute(context.Background(), EditCommand{Kind: KindImportMarkdown, Source: "# Bases"}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got != "# Bases" {
		t.Fatalf("expected importer to receive the source, got %q", got)
	}
	if id, _ := store.Value(editor.Path{"pages", 2, "id"}); id != "bases" {
		t.Fatalf("expected imported page appended, got %v", id)
	}
}

func TestDecodeEditCommand(t *testing.T) {
	cmd, err := DecodeEditCommand([]byte(`{"kind":"moveSection","index":1,"delta":-1}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd.Index == nil || *cmd.Index != 1 || cmd.Delta != -1 {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cmd, err = DecodeEditCommand([]byte(`{"kind":"setField","path":["pages",0,"hero","title"],"value":3}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	path, err := cmd.ResolvePath()
	if err != nil {
		t.Fatalf("resolve path: %v", err)
	}
	if path.String() != "pages.0.hero.title" {
		t.Fatalf("unexpected path %q", path.String())
	}

	if _, err := DecodeEditCommand([]byte(`{"kind":"save"} {}`)); err == nil {
		t.Fatalf("expected trailing data to fail")
	}
}
