package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	editorcmd "github.com/goliatone/go-microsite/internal/commands/editor"
	"github.com/goliatone/go-microsite/internal/editor"
)

type editorState struct {
	PageID string `json:"pageId"`
	Dirty  bool   `json:"dirty"`
	Pushes uint64 `json:"pushes"`
}

type uploadResponse struct {
	URL   string      `json:"url"`
	Thumb string      `json:"thumb,omitempty"`
	Path  string      `json:"path"`
	State editorState `json:"state"`
}

func (api *API) registerEditorRoutes(r chi.Router) {
	r.Route("/editor", func(r chi.Router) {
		r.Get("/draft", api.handleDraft)
		r.Post("/commands", api.handleCommand)
		r.Post("/save", api.handleSave)
		r.Post("/upload", api.handleEditorUpload)
		r.Get("/panel", api.handlePanel)
		r.Get("/diff", api.handleDiff)
		r.Get("/export", api.handleExport)
	})
}

func (api *API) state() editorState {
	return editorState{
		PageID: api.draft.PageID(),
		Dirty:  api.draft.Dirty(),
		Pushes: api.draft.Pushes(),
	}
}

func (api *API) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if api.timeout > 0 {
		return context.WithTimeout(ctx, api.timeout)
	}
	return context.WithCancel(ctx)
}

func (api *API) handleDraft(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":    api.state(),
		"document": api.draft.Draft(),
	})
}

func (api *API) handleCommand(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r, api.contentLimit)
	if err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, err.Error())
		return
	}
	msg, err := editorcmd.DecodeEditCommand(raw)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	ctx, cancel := api.commandContext(r.Context())
	defer cancel()
	if err := api.edits.Execute(ctx, msg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.state())
}

func (api *API) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.commandContext(r.Context())
	defer cancel()
	if err := api.edits.Execute(ctx, editorcmd.EditCommand{Kind: editorcmd.KindSave}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.state())
}

// handleEditorUpload stores the "image" field and writes the result into the
// draft at the form's "path".
func (api *API) handleEditorUpload(w http.ResponseWriter, r *http.Request) {
	if api.uploads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	req, cleanup, err := api.uploadRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cleanup()

	path, err := editor.ParsePath(r.FormValue("path"))
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := api.draft.ApplyUpload(r.Context(), api.uploads, path, req)
	if err != nil {
		api.logger.Warn("http.editor.upload_failed", "path", path.String(), "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		URL:   result.URL,
		Thumb: result.Thumb,
		Path:  path.String(),
		State: api.state(),
	})
}

func (api *API) handlePanel(w http.ResponseWriter, r *http.Request) {
	if pageID := r.URL.Query().Get("page"); pageID != "" && pageID != api.draft.PageID() {
		if err := api.draft.SelectPage(pageID); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, api.draft.Panel(api.panels))
}

func (api *API) handleDiff(w http.ResponseWriter, r *http.Request) {
	diff, err := api.draft.Diff()
	if err != nil {
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, diff.String())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"changed": diff.Changed(),
		"lines":   diff.Lines,
	})
}

func (api *API) handleExport(w http.ResponseWriter, _ *http.Request) {
	data, err := api.draft.Export()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="site-content.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
