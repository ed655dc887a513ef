package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	command "github.com/goliatone/go-command"
	editorcmd "github.com/goliatone/go-microsite/internal/commands/editor"
	"github.com/goliatone/go-microsite/internal/editor"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/internal/render"
	"github.com/goliatone/go-microsite/internal/storage"
	"github.com/goliatone/go-microsite/internal/uploads"
	"github.com/goliatone/go-microsite/internal/validation"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

// DefaultContentLimit caps JSON request bodies.
const DefaultContentLimit = 5 << 20

// API serves the site document, uploads, editor and rendered pages.
type API struct {
	basePath     string
	store        storage.ContentStore
	live         *render.LiveState
	renderer     *render.Renderer
	uploads      *uploads.Service
	draft        *editor.Store
	edits        command.Commander[editorcmd.EditCommand]
	panels       *editor.PanelRegistry
	validation   validation.Options
	timeout      time.Duration
	contentLimit int64
	logger       interfaces.Logger
	hub          *liveHub
}

// Option mutates the API configuration.
type Option func(*API)

// NewAPI constructs an API instance.
func NewAPI(opts ...Option) *API {
	api := &API{
		basePath:     "/api",
		contentLimit: DefaultContentLimit,
		logger:       logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath overrides the API prefix (defaults to "/api").
func WithBasePath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithContentStore wires the persisted document.
func WithContentStore(store storage.ContentStore) Option {
	return func(api *API) {
		api.store = store
	}
}

// WithLiveState wires the live copy pages are rendered from.
func WithLiveState(live *render.LiveState) Option {
	return func(api *API) {
		api.live = live
	}
}

// WithRenderer sets the page renderer.
func WithRenderer(renderer *render.Renderer) Option {
	return func(api *API) {
		api.renderer = renderer
	}
}

// WithUploads wires the upload service. Its directory is also served under
// its public prefix.
func WithUploads(service *uploads.Service) Option {
	return func(api *API) {
		api.uploads = service
	}
}

// WithEditor enables the editor routes. handler executes edit commands
// against store.
func WithEditor(store *editor.Store, handler command.Commander[editorcmd.EditCommand]) Option {
	return func(api *API) {
		api.draft = store
		api.edits = handler
	}
}

// WithPanelRegistry sets the section editors used by the panel endpoint.
func WithPanelRegistry(registry *editor.PanelRegistry) Option {
	return func(api *API) {
		api.panels = registry
	}
}

// WithValidationOptions tunes the checks run before a document is replaced.
func WithValidationOptions(opts validation.Options) Option {
	return func(api *API) {
		api.validation = opts
	}
}

// WithCommandTimeout bounds editor command execution.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(api *API) {
		if timeout > 0 {
			api.timeout = timeout
		}
	}
}

// WithContentLimit caps JSON request bodies.
func WithContentLimit(limit int64) Option {
	return func(api *API) {
		if limit > 0 {
			api.contentLimit = limit
		}
	}
}

// WithLogger sets the API logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		api.logger = logging.OrNoOp(logger)
	}
}

// EditorEnabled reports whether the editor routes are mounted.
func (api *API) EditorEnabled() bool {
	return api != nil && api.draft != nil && api.edits != nil
}

// Register attaches the endpoints to r.
func (api *API) Register(r chi.Router) error {
	if r == nil {
		return errors.New("http: router is required")
	}
	if api == nil {
		return errors.New("http: api is nil")
	}

	base := joinPath(api.basePath, "")
	r.Route(base, func(r chi.Router) {
		r.Get("/config", api.handleConfig)
		api.registerContentRoutes(r)
		api.registerUploadRoutes(r)
		if api.EditorEnabled() {
			api.registerEditorRoutes(r)
		}
		if api.live != nil {
			api.liveHub()
			r.Get("/live/ws", api.handleLiveSocket)
		}
	})
	api.registerStaticUploads(r)
	api.registerPageRoutes(r)
	return nil
}

// Handler returns a router with the request middleware and every endpoint
// registered.
func (api *API) Handler() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.requestLogger)
	r.Use(middleware.Recoverer)
	if err := api.Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

// LiveSocketPath is the websocket route documents listen on.
func (api *API) LiveSocketPath() string {
	return LiveSocketPath(api.basePath)
}

// LiveSocketPath returns the websocket route for an API mounted at basePath.
func LiveSocketPath(basePath string) string {
	return joinPath(basePath, "live/ws")
}

// Close disconnects live reload clients.
func (api *API) Close() {
	if api != nil && api.hub != nil {
		api.hub.close()
	}
}

func (api *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		api.logger.Debug("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(started).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (api *API) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"editorEnabled": api.EditorEnabled(),
		"liveSocket":    api.live != nil,
	})
}

func commandHandlerFrom(set *editorcmd.HandlerSet) command.Commander[editorcmd.EditCommand] {
	if set == nil || set.Edit == nil {
		return nil
	}
	return set.Edit
}

// EditorFromHandlers is a WithEditor shortcut for a registered handler set.
func EditorFromHandlers(store *editor.Store, set *editorcmd.HandlerSet) Option {
	return WithEditor(store, commandHandlerFrom(set))
}
