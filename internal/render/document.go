package render

import (
	"bytes"
	"context"
	"html/template"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/goliatone/go-microsite/internal/content"
)

const documentShell = `<!DOCTYPE html>
<html lang="{{ .Lang | default "es" }}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
{{- with .Description }}
<meta name="description" content="{{ . | trunc 160 }}">
{{- end }}
{{- range .Stylesheets }}
<link rel="stylesheet" href="{{ . }}">
{{- end }}
<style>:root{ {{- .ThemeCSS -}} }</style>
</head>
<body data-page-id="{{ .PageID }}">
<div id="background-overlay"></div>
{{ .Background }}
<div id="app">{{ .Body }}</div>
{{- range .Scripts }}
<script src="{{ . }}" defer></script>
{{- end }}
{{- with .LiveSocket }}
<script>
(function () {
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  var socket = new WebSocket(scheme + location.host + {{ . }});
  socket.onmessage = function () { location.reload(); };
})();
</script>
{{- end }}
</body>
</html>
`

var shellTemplate = template.Must(template.New("document").Funcs(sprig.FuncMap()).Parse(documentShell))

// DocumentData is the view model of the HTML shell.
type DocumentData struct {
	Lang        string
	Title       string
	Description string
	PageID      string
	ThemeCSS    template.CSS
	Stylesheets []string
	Scripts     []string
	LiveSocket  string
	Background  template.HTML
	Body        template.HTML
}

// Document renders a complete HTML page for pageID from doc.
func (r *Renderer) Document(ctx context.Context, doc content.Document, pageID string) ([]byte, error) {
	site, err := content.DecodeSite(doc)
	if err != nil {
		return nil, err
	}
	return r.SiteDocument(ctx, site, pageID)
}

// SiteDocument is Document for an already decoded site.
func (r *Renderer) SiteDocument(ctx context.Context, site *content.Site, pageID string) ([]byte, error) {
	shell, page := r.RenderPage(ctx, site, pageID)
	if page == nil {
		return nil, &content.NotFoundError{Resource: "page", Key: pageID}
	}
	body, err := RenderHTML(shell)
	if err != nil {
		return nil, err
	}
	background, err := RenderHTML(r.RenderBackground(site.Theme.Background))
	if err != nil {
		return nil, err
	}

	title := page.Title.String()
	if siteTitle := site.Meta.Title.String(); siteTitle != "" {
		if title == "" {
			title = siteTitle
		} else {
			title += " | " + siteTitle
		}
	}

	data := DocumentData{
		Lang:        r.opts.Lang,
		Title:       strings.TrimSpace(title),
		Description: site.Meta.Description.String(),
		PageID:      page.ID,
		ThemeCSS:    template.CSS(ThemeCSS(site.Theme)),
		Stylesheets: r.opts.Stylesheets,
		Scripts:     r.opts.Scripts,
		LiveSocket:  r.opts.LiveSocket,
		Background:  template.HTML(background),
		Body:        template.HTML(body),
	}
	var buf bytes.Buffer
	if err := shellTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ThemeCSS renders the theme variables as CSS declarations.
func ThemeCSS(theme content.Theme) string {
	var b strings.Builder
	for _, v := range ThemeVariables(theme) {
		b.WriteString(v.Name)
		b.WriteString(": ")
		b.WriteString(cssValue(v.Value))
		b.WriteString(";")
	}
	return b.String()
}

// cssValue drops characters that could end the declaration or the style
// element.
func cssValue(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '\\', '\n', '\r':
			return -1
		}
		return r
	}, value)
}
