package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goliatone/go-microsite/internal/content"
)

func (api *API) registerPageRoutes(r chi.Router) {
	if api.live == nil || api.renderer == nil {
		return
	}
	r.Get("/*", api.handlePage)
}

// handlePage renders the live copy. The page comes from the "page" query
// parameter when present, otherwise from the navigation entry matching the
// path. Unknown paths render the first page.
func (api *API) handlePage(w http.ResponseWriter, r *http.Request) {
	site, err := content.DecodeSite(api.live.Current())
	if err != nil {
		writeError(w, err)
		return
	}
	pageID := strings.TrimSpace(r.URL.Query().Get("page"))
	if pageID == "" {
		pageID = site.ResolvePageID(r.URL.Path)
	}
	body, err := api.renderer.SiteDocument(r.Context(), site, pageID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
