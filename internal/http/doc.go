// Package http serves the microsite over a chi router.
//
// Routes mount under the configured base path (default /api):
//   - Config: GET /config
//   - Content: GET /content, PUT /content (full replace, validated first)
//   - Uploads: POST /upload (multipart field "image"), static files under the public upload prefix
//   - Editor: /editor/draft, /editor/commands, /editor/save, /editor/upload, /editor/panel,
//     /editor/diff, /editor/export
//   - Live reload: GET /live/ws
//
// Every other GET path renders the live copy for the page the path resolves to.
package http
