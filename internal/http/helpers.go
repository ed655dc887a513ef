package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-microsite/internal/commands"
	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/editor"
	"github.com/goliatone/go-microsite/internal/markdown"
	"github.com/goliatone/go-microsite/internal/uploads"
	"github.com/goliatone/go-microsite/internal/validation"
)

type errorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message,omitempty"`
	Issues  []validation.ValidationIssue `json:"issues,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" || trimmedBase == "/" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	var notFound *content.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: notFound.Error(),
		}
	}
	if errors.Is(err, editor.ErrPageNotFound) ||
		errors.Is(err, editor.ErrSectionNotFound) ||
		errors.Is(err, editor.ErrItemNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: err.Error(),
		}
	}

	if commands.TimedOut(err) {
		return http.StatusGatewayTimeout, errorResponse{
			Error:   "timeout",
			Message: err.Error(),
		}
	}

	var maxBytes *http.MaxBytesError
	if errors.Is(err, uploads.ErrUploadTooLarge) || errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge, errorResponse{
			Error:   "too_large",
			Message: err.Error(),
		}
	}
	if errors.Is(err, uploads.ErrUnsupportedType) {
		return http.StatusUnsupportedMediaType, errorResponse{
			Error:   "unsupported_media_type",
			Message: err.Error(),
		}
	}

	if errors.Is(err, validation.ErrSchemaValidation) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
			Issues:  validation.Issues(err),
		}
	}

	var fieldErrs ozzo.Errors
	if errors.As(err, &fieldErrs) {
		return http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		}
	}

	if errors.Is(err, content.ErrInvalidDocument) ||
		errors.Is(err, uploads.ErrNoFile) ||
		errors.Is(err, editor.ErrInvalidPath) ||
		errors.Is(err, editor.ErrPathConflict) ||
		errors.Is(err, editor.ErrInvalidPatch) ||
		errors.Is(err, editor.ErrInvalidMove) ||
		errors.Is(err, editor.ErrNoItemTemplate) ||
		errors.Is(err, markdown.ErrEmptySource) ||
		goerrors.IsCategory(err, goerrors.CategoryValidation) {
		return http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, io.EOF
	}
	defer r.Body.Close()
	if limit > 0 {
		return io.ReadAll(io.LimitReader(r.Body, limit))
	}
	return io.ReadAll(r.Body)
}
