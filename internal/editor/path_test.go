package editor

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestParsePath(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Path
	}{
		{name: "dotted", in: "pages.0.hero.title", want: Path{"pages", 0, "hero", "title"}},
		{name: "brackets", in: "pages[1].sections[2].data", want: Path{"pages", 1, "sections", 2, "data"}},
		{name: "pointer", in: "/theme/colors/primary", want: Path{"theme", "colors", "primary"}},
		{name: "pointer escapes", in: "/a~1b/c~0d", want: Path{"a/b", "c~d"}},
		{name: "pointer index", in: "/pages/3", want: Path{"pages", 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePath(tc.in)
			if err != nil {
				t.Fatalf("parse %q: %v", tc.in, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %#v got %#v", tc.want, got)
			}
		})
	}

	for _, bad := range []string{"", "  ", "a..b", "/a//b"} {
		if _, err := ParsePath(bad); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("expected ErrInvalidPath for %q, got %v", bad, err)
		}
	}
}

func TestPathFrom(t *testing.T) {
	got, err := PathFrom([]any{"pages", float64(0), "sections", json.Number("2"), "data"})
	if err != nil {
		t.Fatalf("path from: %v", err)
	}
	want := Path{"pages", 0, "sections", 2, "data"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v got %#v", want, got)
	}
	if _, err := PathFrom([]any{"pages", 1.5}); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected fractional index to fail, got %v", err)
	}
	if _, err := PathFrom([]any{"pages", -1}); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected negative index to fail, got %v", err)
	}
	if _, err := PathFrom([]any{true}); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected bool segment to fail, got %v", err)
	}
}

func TestPathFormatting(t *testing.T) {
	path := Path{"pages", 0, "a/b"}
	if path.String() != "pages.0.a/b" {
		t.Fatalf("unexpected dotted form %q", path.String())
	}
	if path.Pointer() != "/pages/0/a~1b" {
		t.Fatalf("unexpected pointer form %q", path.Pointer())
	}
	extended := path.Append("x")
	if len(path) != 3 || len(extended) != 4 {
		t.Fatalf("append must not modify the receiver")
	}
}

func TestSetValueByPathAutoVivifies(t *testing.T) {
	root := map[string]any{}
	got, err := SetValueByPath(root, Path{"pages", 0, "hero", "title"}, "X")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	want := map[string]any{
		"pages": []any{map[string]any{"hero": map[string]any{"title": "X"}}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v got %#v", want, got)
	}
}

func TestSetValueByPathNilRoot(t *testing.T) {
	got, err := SetValueByPath(nil, Path{0, "id"}, "a")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	want := []any{map[string]any{"id": "a"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v got %#v", want, got)
	}
}

func TestSetValueByPathExtendsLists(t *testing.T) {
	root := map[string]any{"images": []any{"a"}}
	got, err := SetValueByPath(root, Path{"images", 2}, "c")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	images := got.(map[string]any)["images"].([]any)
	if !reflect.DeepEqual(images, []any{"a", nil, "c"}) {
		t.Fatalf("unexpected list %#v", images)
	}
}

func TestSetValueByPathReplacesNull(t *testing.T) {
	root := map[string]any{"hero": nil}
	if _, err := SetValueByPath(root, Path{"hero", "buttons", 0, "label"}, "Go"); err != nil {
		t.Fatalf("set: %v", err)
	}
	label, ok := GetValueByPath(root, Path{"hero", "buttons", 0, "label"})
	if !ok || label != "Go" {
		t.Fatalf("expected label Go got %v (%v)", label, ok)
	}
}

func TestSetValueByPathConflictLeavesDocument(t *testing.T) {
	root := map[string]any{"title": "plain", "list": []any{"a"}}
	before, _ := json.Marshal(root)

	if _, err := SetValueByPath(root, Path{"title", "nested"}, 1); !errors.Is(err, ErrPathConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := SetValueByPath(root, Path{"list", "name"}, 1); !errors.Is(err, ErrPathConflict) {
		t.Fatalf("expected conflict on list key, got %v", err)
	}
	if _, err := SetValueByPath(root, Path{"fresh", "deep", "title", "x"}, 1); err != nil {
		t.Fatalf("fresh branch should vivify: %v", err)
	}
	delete(root, "fresh")

	after, _ := json.Marshal(root)
	if string(before) != string(after) {
		t.Fatalf("document changed on failed write: %s -> %s", before, after)
	}
}

func TestPathIndexBound(t *testing.T) {
	if _, err := ParsePath("pages.20000000.title"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath from parse, got %v", err)
	}
	if _, err := ParsePath("/pages/10001"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for pointer index, got %v", err)
	}
	if _, err := PathFrom([]any{"pages", float64(20000000), "title"}); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath from json segments, got %v", err)
	}
	if _, err := PathFrom([]any{"pages", json.Number("10001")}); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath from json number, got %v", err)
	}
	if _, err := PathFrom([]any{"pages", MaxPathIndex}); err != nil {
		t.Fatalf("index at the bound should parse: %v", err)
	}

	root := map[string]any{"pages": []any{"home"}}
	before, _ := json.Marshal(root)
	if _, err := SetValueByPath(root, Path{"pages", 20000000, "title"}, "x"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath from set, got %v", err)
	}
	if _, err := SetValueByPath(root, Path{"pages", "20000000"}, "x"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for numeric key on list, got %v", err)
	}
	after, _ := json.Marshal(root)
	if string(before) != string(after) {
		t.Fatalf("document changed on rejected write: %s -> %s", before, after)
	}
	if pages := root["pages"].([]any); len(pages) != 1 {
		t.Fatalf("expected list untouched, got %d entries", len(pages))
	}
}

func TestSetValueByPathNumericKeyOnMap(t *testing.T) {
	root := map[string]any{"data": map[string]any{}}
	if _, err := SetValueByPath(root, Path{"data", 0}, "zero"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if root["data"].(map[string]any)["0"] != "zero" {
		t.Fatalf("expected numeric key stored as string, got %#v", root["data"])
	}
}

func TestGetValueByPath(t *testing.T) {
	root := map[string]any{
		"pages": []any{map[string]any{"id": "home"}},
	}
	if value, ok := GetValueByPath(root, Path{"pages", 0, "id"}); !ok || value != "home" {
		t.Fatalf("expected home got %v", value)
	}
	if _, ok := GetValueByPath(root, Path{"pages", 4, "id"}); ok {
		t.Fatalf("expected missing index")
	}
	if _, ok := GetValueByPath(root, Path{"pages", 0, "id", "x"}); ok {
		t.Fatalf("expected scalar traversal to fail")
	}
	if value, ok := GetValueByPath(root, Path{"pages", "0", "id"}); !ok || value != "home" {
		t.Fatalf("expected string index to resolve, got %v", value)
	}
}
