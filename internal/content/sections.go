package content

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-microsite/internal/media"
)

// Canonical section types.
const (
	SectionRichText       = "richText"
	SectionLinkCards      = "linkCards"
	SectionImageGrid      = "imageGrid"
	SectionImageCarousel  = "imageCarousel"
	SectionImageHighlight = "imageHighlight"
	SectionCTA            = "cta"
	SectionWinnerCards    = "winnerCards"
	SectionKeyValue       = "keyValue"
	SectionFAQ            = "faq"
)

// legacyTypes maps the Spanish names used by older documents to canonical
// types. The legacy name doubles as the CSS modifier of the section.
var legacyTypes = map[string]string{
	"textoInformativo": SectionRichText,
	"opcionesCompra":   SectionLinkCards,
	"galeriaImagenes":  SectionImageGrid,
	"carruselImagenes": SectionImageCarousel,
	"detalleVisual":    SectionImageHighlight,
	"botonAccion":      SectionCTA,
	"muroGanadores":    SectionWinnerCards,
}

// LegacyTypes returns a copy of the legacy alias table.
func LegacyTypes() map[string]string {
	out := make(map[string]string, len(legacyTypes))
	for k, v := range legacyTypes {
		out[k] = v
	}
	return out
}

// CanonicalType resolves legacy aliases. Unknown names are returned as-is.
func CanonicalType(sectionType string) string {
	if canonical, ok := legacyTypes[sectionType]; ok {
		return canonical
	}
	return sectionType
}

// DecodeData decodes section data into T. Missing data decodes as the zero T.
func DecodeData[T any](section Section) (T, error) {
	var out T
	if len(section.Data) == 0 {
		return out, nil
	}
	raw, err := json.Marshal(section.Data)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("section %q (%s): %w", section.ID, section.Type, err)
	}
	return out, nil
}

type RichTextData struct {
	Title    Text   `json:"title"`
	Lines    []Text `json:"lines"`
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
}

type LinkCard struct {
	Title    Text           `json:"title"`
	Subtitle Text           `json:"subtitle"`
	Href     string         `json:"href"`
	Image    media.ImageRef `json:"image"`
}

type LinkCardsData struct {
	Title Text       `json:"title"`
	Cards []LinkCard `json:"cards"`
}

// GalleryImage is an image grid or carousel entry. Entries may be a bare
// URL or an object; both become an object reference.
type GalleryImage struct {
	Ref      media.ImageRef
	Alt      Text
	Title    Text
	Subtitle Text
	Href     string
}

func (g *GalleryImage) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = GalleryImage{}
	switch typed := raw.(type) {
	case string:
		if typed != "" {
			g.Ref = media.ObjectRef(map[string]any{"src": typed})
		}
	case map[string]any:
		g.Ref = media.ObjectRef(typed)
		g.Alt = Text(stringField(typed, "alt"))
		g.Title = Text(stringField(typed, "title"))
		g.Subtitle = Text(stringField(typed, "subtitle"))
		g.Href = stringField(typed, "href")
	}
	return nil
}

func (g GalleryImage) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Ref)
}

// Source returns the entry src, falling back to image when allowImage is set.
func (g GalleryImage) Source(allowImage bool) string {
	obj, _ := g.Ref.Value().(map[string]any)
	if src := stringField(obj, "src"); src != "" {
		return src
	}
	if allowImage {
		return media.ResolveImageSrc(obj["image"], false)
	}
	return ""
}

type ImageGridData struct {
	Title  Text           `json:"title"`
	Images []GalleryImage `json:"images"`
}

type ImageCarouselData struct {
	Title       Text           `json:"title"`
	Description Text           `json:"description"`
	Images      []GalleryImage `json:"images"`
}

type Slide struct {
	Title Text           `json:"title"`
	Body  Text           `json:"body"`
	Image media.ImageRef `json:"image"`
}

type ImageHighlightData struct {
	Title  Text           `json:"title"`
	Body   Text           `json:"body"`
	Image  media.ImageRef `json:"image"`
	Slides []Slide        `json:"slides"`
}

type CTAData struct {
	Title       Text           `json:"title"`
	Body        Text           `json:"body"`
	Href        string         `json:"href"`
	ButtonLabel Text           `json:"buttonLabel"`
	Image       media.ImageRef `json:"image"`
}

type WinnerCard struct {
	Winner   Text           `json:"winner"`
	Prize    Text           `json:"prize"`
	Ticket   Text           `json:"ticket"`
	Date     Text           `json:"date"`
	Location Text           `json:"location"`
	Image    media.ImageRef `json:"image"`
}

type WinnerCardsData struct {
	Title Text         `json:"title"`
	Cards []WinnerCard `json:"cards"`
}

type KeyValueItem struct {
	K Text `json:"k"`
	V Text `json:"v"`
}

type KeyValueData struct {
	Title Text           `json:"title"`
	Items []KeyValueItem `json:"items"`
}

type FAQItem struct {
	Q Text `json:"q"`
	A Text `json:"a"`
}

type FAQData struct {
	Title Text      `json:"title"`
	Items []FAQItem `json:"items"`
}

// sectionTemplates seed new sections added from the editor.
var sectionTemplates = map[string]map[string]any{
	SectionRichText: {
		"title": "Nuevo bloque",
		"lines": []any{"Contenido editable"},
	},
	SectionLinkCards: {
		"title": "Nuevas opciones",
		"cards": []any{map[string]any{"title": "Titulo", "subtitle": "Descripcion", "href": "#", "image": ""}},
	},
	SectionImageGrid: {
		"images": []any{map[string]any{"src": "", "href": ""}},
	},
	SectionImageCarousel: {
		"title":       "Galeria",
		"description": "",
		"images":      []any{""},
	},
	SectionImageHighlight: {
		"title": "Destacado",
		"body":  "Descripcion",
		"image": "",
	},
	SectionCTA: {
		"title":       "Llamado a la accion",
		"body":        "Descripcion",
		"href":        "#",
		"buttonLabel": "Ver mas",
		"image":       "",
	},
	SectionWinnerCards: {
		"title": "Ganadores",
		"cards": []any{map[string]any{"winner": "Nombre", "prize": "Premio", "ticket": "", "date": "", "location": "", "image": ""}},
	},
	SectionKeyValue: {
		"title": "Datos",
		"items": []any{map[string]any{"k": "Clave", "v": "Valor"}},
	},
	SectionFAQ: {
		"title": "Preguntas frecuentes",
		"items": []any{map[string]any{"q": "Pregunta", "a": "Respuesta"}},
	},
}

// TemplateTypes lists the section types that can be added from the editor.
func TemplateTypes() []string {
	out := make([]string, 0, len(sectionTemplates))
	for key := range sectionTemplates {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// NewSection returns a fresh section of sectionType in document form.
func NewSection(sectionType, id string) (map[string]any, error) {
	canonical := CanonicalType(strings.TrimSpace(sectionType))
	template, ok := sectionTemplates[canonical]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, sectionType)
	}
	data, _ := CloneValue(template).(map[string]any)
	return map[string]any{
		"id":   id,
		"type": canonical,
		"data": data,
	}, nil
}

func stringField(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	switch v := obj[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}
