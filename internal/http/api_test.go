package http

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	editorcmd "github.com/goliatone/go-microsite/internal/commands/editor"
	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/editor"
	"github.com/goliatone/go-microsite/internal/render"
	"github.com/goliatone/go-microsite/internal/runtimeconfig"
	"github.com/goliatone/go-microsite/internal/storage"
	"github.com/goliatone/go-microsite/internal/uploads"
	"github.com/goliatone/go-microsite/pkg/testsupport"
)

type testServer struct {
	handler http.Handler
	api     *API
	store   *storage.MemoryStore
	live    *render.LiveState
	draft   *editor.Store
}

func loadDocument(t *testing.T) content.Document {
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

func setupAPI(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	doc := loadDocument(t)

	store := storage.NewMemoryStore(doc)
	live := render.NewLiveState(doc)
	draft := editor.NewStore(doc,
		editor.WithScheduler(func(fn func()) { fn() }),
		editor.WithPublisher(live),
	)
	cfg := runtimeconfig.DefaultConfig().Uploads
	cfg.Dir = t.TempDir()

	base := []Option{
		WithContentStore(store),
		WithLiveState(live),
		WithRenderer(render.New()),
		WithUploads(uploads.NewService(cfg)),
		WithEditor(draft, editorcmd.NewEditHandler(draft, store, nil, nil)),
	}
	api := NewAPI(append(base, opts...)...)
	handler, err := api.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	t.Cleanup(api.Close)
	return &testServer{handler: handler, api: api, store: store, live: live, draft: draft}
}

func doJSONRequest(t *testing.T, handler http.Handler, method, path string, body any, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch value := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(value)
	default:
		payload, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != expectedStatus {
		t.Fatalf("%s %s: expected status %d got %d body=%s", method, path, expectedStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rec.Body.String())
	}
}

func multipartImage(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestAPI_ConfigAndContent(t *testing.T) {
	srv := setupAPI(t)

	var cfg map[string]bool
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/config", nil, http.StatusOK), &cfg)
	if !cfg["editorEnabled"] || !cfg["liveSocket"] {
		t.Fatalf("unexpected config %#v", cfg)
	}

	var doc map[string]any
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/content", nil, http.StatusOK), &doc)
	if doc["meta"].(map[string]any)["title"] != "Rifas Ojeda" {
		t.Fatalf("unexpected document %#v", doc["meta"])
	}

	doJSONRequest(t, srv.handler, http.MethodPut, "/api/content", "{not json", http.StatusBadRequest)
	doJSONRequest(t, srv.handler, http.MethodPut, "/api/content", "", http.StatusBadRequest)

	var rejected errorResponse
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodPut, "/api/content", map[string]any{"pages": []any{}}, http.StatusUnprocessableEntity), &rejected)
	if rejected.Error != "validation_failed" || len(rejected.Issues) == 0 {
		t.Fatalf("expected validation issues, got %#v", rejected)
	}
	if srv.live.Version() != 0 {
		t.Fatalf("rejected document must not reach the live copy")
	}

	doc["meta"].(map[string]any)["title"] = "Rifas Nuevas"
	var saved struct {
		OK       bool  `json:"ok"`
		Warnings []any `json:"warnings"`
	}
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodPut, "/api/content", doc, http.StatusOK), &saved)
	if !saved.OK || len(saved.Warnings) == 0 {
		t.Fatalf("expected ok with fixture warnings, got %#v", saved)
	}

	stored, err := srv.store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored["meta"].(map[string]any)["title"] != "Rifas Nuevas" {
		t.Fatalf("store not updated: %#v", stored["meta"])
	}
	if srv.live.Version() != 1 {
		t.Fatalf("expected one live publish, got %d", srv.live.Version())
	}
	if srv.draft.Dirty() {
		t.Fatalf("replaced draft should match the saved document")
	}
}

func TestAPI_Upload(t *testing.T) {
	srv := setupAPI(t)

	body, contentType := multipartImage(t, "Mi Foto.png", encodePNG(t, 1200, 60), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rec.Code, rec.Body.String())
	}
	var result uploads.Result
	decodeJSONBody(t, rec, &result)
	if !strings.HasPrefix(result.URL, "/uploads/") || !strings.HasSuffix(result.URL, "_mi-foto.png") {
		t.Fatalf("unexpected url %q", result.URL)
	}
	if result.Thumb == "" {
		t.Fatalf("expected thumbnail url")
	}

	served := httptest.NewRecorder()
	srv.handler.ServeHTTP(served, httptest.NewRequest(http.MethodGet, result.URL, nil))
	if served.Code != http.StatusOK || served.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("expected stored file to be served, got %d %q", served.Code, served.Header().Get("Content-Type"))
	}

	body, contentType = multipartImage(t, "notas.txt", []byte("hola mundo"), nil)
	req = httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 got %d", rec.Code)
	}

	doJSONRequest(t, srv.handler, http.MethodPost, "/api/upload", map[string]any{"image": "x"}, http.StatusBadRequest)
}

func TestAPI_UploadTooLarge(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig().Uploads
	cfg.Dir = t.TempDir()
	cfg.MaxBytes = 64
	srv := setupAPI(t, WithUploads(uploads.NewService(cfg)))

	body, contentType := multipartImage(t, "grande.png", encodePNG(t, 200, 200), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAPI_EditorFlow(t *testing.T) {
	srv := setupAPI(t)

	command := map[string]any{"kind": "setField", "path": "pages.0.hero.title", "value": "Rifa Aniversario"}
	var state editorState
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodPost, "/api/editor/commands", command, http.StatusOK), &state)
	if !state.Dirty || state.PageID != "home" || state.Pushes == 0 {
		t.Fatalf("unexpected state %#v", state)
	}

	page := doJSONRequest(t, srv.handler, http.MethodGet, "/", nil, http.StatusOK)
	if !strings.Contains(page.Body.String(), "Rifa Aniversario") {
		t.Fatalf("live page should show the edited title")
	}
	if page.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", page.Header().Get("Content-Type"))
	}

	var diff struct {
		Changed bool              `json:"changed"`
		Lines   []editor.DiffLine `json:"lines"`
	}
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/editor/diff", nil, http.StatusOK), &diff)
	if !diff.Changed {
		t.Fatalf("expected draft diff")
	}
	text := doJSONRequest(t, srv.handler, http.MethodGet, "/api/editor/diff?format=text", nil, http.StatusOK)
	if !strings.Contains(text.Body.String(), "+ ") || !strings.Contains(text.Body.String(), `"title": "Rifa Aniversario"`) {
		t.Fatalf("unexpected text diff %s", text.Body.String())
	}

	doJSONRequest(t, srv.handler, http.MethodPost, "/api/editor/save", nil, http.StatusOK)
	stored, _ := srv.store.Load(context.Background())
	hero := stored["pages"].([]any)[0].(map[string]any)["hero"].(map[string]any)
	if hero["title"] != "Rifa Aniversario" {
		t.Fatalf("save did not reach the store: %#v", hero["title"])
	}
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/editor/diff", nil, http.StatusOK), &diff)
	if diff.Changed {
		t.Fatalf("expected no diff after save")
	}

	export := doJSONRequest(t, srv.handler, http.MethodGet, "/api/editor/export", nil, http.StatusOK)
	if !strings.Contains(export.Header().Get("Content-Disposition"), "site-content.json") {
		t.Fatalf("expected download header")
	}
	if !strings.HasPrefix(export.Body.String(), "{\n  \"") {
		t.Fatalf("expected two space indented export")
	}

	var draft struct {
		State    editorState    `json:"state"`
		Document map[string]any `json:"document"`
	}
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/editor/draft", nil, http.StatusOK), &draft)
	if draft.State.Dirty || draft.Document["pages"] == nil {
		t.Fatalf("unexpected draft %#v", draft.State)
	}
}

func TestAPI_EditorErrors(t *testing.T) {
	srv := setupAPI(t)

	doJSONRequest(t, srv.handler, http.MethodPost, "/api/editor/commands", "{", http.StatusBadRequest)
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/editor/commands", map[string]any{"kind": "teleport"}, http.StatusBadRequest)
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/editor/commands", map[string]any{"kind": "removeSection", "index": 9}, http.StatusNotFound)
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/editor/commands", map[string]any{"kind": "setField", "path": "pages.0.title.x", "value": 1}, http.StatusBadRequest)
	doJSONRequest(t, srv.handler, http.MethodPost, "/api/editor/commands", map[string]any{"kind": "selectPage", "pageId": "nope"}, http.StatusNotFound)
	doJSONRequest(t, srv.handler, http.MethodGet, "/api/editor/panel?page=nope", nil, http.StatusNotFound)

	if srv.draft.Dirty() {
		t.Fatalf("failed commands must leave the draft untouched")
	}
}

func TestAPI_EditorPanelAndUpload(t *testing.T) {
	srv := setupAPI(t)

	var panel editor.Panel
	decodeJSONBody(t, doJSONRequest(t, srv.handler, http.MethodGet, "/api/editor/panel?page=ganadores", nil, http.StatusOK), &panel)
	if panel.PageID != "ganadores" || len(panel.Sections) != 1 {
		t.Fatalf("unexpected panel %q with %d sections", panel.PageID, len(panel.Sections))
	}

	body, contentType := multipartImage(t, "ana.png", encodePNG(t, 50, 50), map[string]string{
		"path": "pages.1.sections.0.data.cards.0.image",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/editor/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rec.Code, rec.Body.String())
	}
	var uploaded uploadResponse
	decodeJSONBody(t, rec, &uploaded)
	value, ok := srv.draft.Value(editor.Path{"pages", 1, "sections", 0, "data", "cards", 0, "image"})
	if !ok {
		t.Fatalf("expected uploaded image in the draft")
	}
	image, isMap := value.(map[string]any)
	if !isMap || image["src"] != uploaded.URL || image["thumb"] != uploaded.Thumb {
		t.Fatalf("unexpected draft image %#v", value)
	}

	body, contentType = multipartImage(t, "ana.txt", []byte("no"), map[string]string{"path": "pages.1.hero.bannerImage"})
	req = httptest.NewRequest(http.MethodPost, "/api/editor/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 got %d", rec.Code)
	}
	if _, ok := srv.draft.Value(editor.Path{"pages", 1, "hero", "bannerImage"}); ok {
		t.Fatalf("failed upload must not touch the draft")
	}
}

func TestAPI_EditorDisabled(t *testing.T) {
	store := storage.NewMemoryStore(loadDocument(t))
	api := NewAPI(WithContentStore(store))
	handler, err := api.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var cfg map[string]bool
	decodeJSONBody(t, doJSONRequest(t, handler, http.MethodGet, "/api/config", nil, http.StatusOK), &cfg)
	if cfg["editorEnabled"] {
		t.Fatalf("editor should be disabled")
	}
	doJSONRequest(t, handler, http.MethodGet, "/api/editor/draft", nil, http.StatusNotFound)
	doJSONRequest(t, handler, http.MethodPost, "/api/upload", nil, http.StatusServiceUnavailable)
}

func TestAPI_PageResolution(t *testing.T) {
	srv := setupAPI(t)

	rec := doJSONRequest(t, srv.handler, http.MethodGet, "/ganadores", nil, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `data-page-id="ganadores"`) {
		t.Fatalf("expected ganadores page")
	}
	rec = doJSONRequest(t, srv.handler, http.MethodGet, "/no-existe/", nil, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `data-page-id="home"`) {
		t.Fatalf("unknown paths should render the first page")
	}
	rec = doJSONRequest(t, srv.handler, http.MethodGet, "/?page=secreta", nil, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `data-page-id="secreta"`) {
		t.Fatalf("explicit page parameter should select hidden pages for preview")
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&content.NotFoundError{Resource: "page", Key: "x"}, http.StatusNotFound},
		{uploads.ErrUploadTooLarge, http.StatusRequestEntityTooLarge},
		{uploads.ErrUnsupportedType, http.StatusUnsupportedMediaType},
		{editor.ErrInvalidPatch, http.StatusBadRequest},
		{os.ErrPermission, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if status, _ := mapError(tc.err); status != tc.status {
			t.Fatalf("%v: expected %d got %d", tc.err, tc.status, status)
		}
	}
}
