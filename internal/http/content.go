package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/uploads"
	"github.com/goliatone/go-microsite/internal/validation"
)

// multipartOverhead is allowed on top of the upload limit for form headers.
const multipartOverhead = 1 << 20

func (api *API) registerContentRoutes(r chi.Router) {
	r.Get("/content", api.handleGetContent)
	r.Put("/content", api.handlePutContent)
}

func (api *API) registerUploadRoutes(r chi.Router) {
	r.Post("/upload", api.handleUpload)
}

func (api *API) registerStaticUploads(r chi.Router) {
	if api.uploads == nil || strings.TrimSpace(api.uploads.Dir()) == "" {
		return
	}
	prefix := joinPath(api.uploads.PublicPrefix(), "")
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(api.uploads.Dir())))
	r.Handle(prefix+"/*", files)
}

func (api *API) handleGetContent(w http.ResponseWriter, r *http.Request) {
	if api.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	doc, err := api.store.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (api *API) handlePutContent(w http.ResponseWriter, r *http.Request) {
	if api.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	raw, err := readBody(r, api.contentLimit)
	if err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, err.Error())
		return
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		badRequest(w, "document required")
		return
	}
	doc, err := content.Parse(raw)
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := validation.ValidateDocument(doc, api.validation)
	if err != nil {
		writeError(w, err)
		return
	}
	if !report.OK() {
		api.logger.Warn("http.content.rejected", "issues", len(report.Issues))
		writeError(w, report.Err())
		return
	}

	if err := api.store.Save(r.Context(), doc); err != nil {
		writeError(w, err)
		return
	}
	api.logger.Info("http.content.saved", "warnings", len(report.Warnings))

	switch {
	case api.draft != nil:
		// The draft store publishes to the live copy.
		api.draft.Replace(doc)
	case api.live != nil:
		api.live.Publish(doc)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"warnings": report.Warnings,
	})
}

func (api *API) handleUpload(w http.ResponseWriter, r *http.Request) {
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

	result, err := api.uploads.Upload(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// uploadRequest reads the "image" field of a multipart form.
func (api *API) uploadRequest(w http.ResponseWriter, r *http.Request) (uploads.Request, func(), error) {
	noop := func() {}
	if limit := api.uploads.MaxBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return uploads.Request{}, noop, uploads.ErrUploadTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return uploads.Request{}, noop, uploads.ErrNoFile
		}
		return uploads.Request{}, noop, err
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return uploads.Request{}, noop, uploads.ErrNoFile
		}
		return uploads.Request{}, noop, err
	}
	cleanup := func() {
		_ = file.Close()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return uploads.Request{
		Filename: header.Filename,
		Reader:   file,
		Size:     header.Size,
	}, cleanup, nil
}
