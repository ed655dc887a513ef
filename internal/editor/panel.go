package editor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/media"
)

// UnsupportedSectionNotice is shown for sections without an editor.
const UnsupportedSectionNotice = "Tipo de seccion no soportado por el editor."

// FieldKind tells the view which input to draw.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldLines  FieldKind = "lines"
	FieldImage  FieldKind = "image"
	FieldSelect FieldKind = "select"
	FieldNotice FieldKind = "notice"
)

// Option is a select choice.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// Field is one editable input. Edits are sent back as commands targeting
// Path. Image fields also accept uploads at UploadPath.
type Field struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Kind       FieldKind `json:"kind"`
	Path       Path      `json:"path,omitempty"`
	UploadPath Path      `json:"uploadPath,omitempty"`
	Value      string    `json:"value"`
	Options    []Option  `json:"options,omitempty"`
}

// Action is a button that sends Command when pressed.
type Action struct {
	Label    string         `json:"label"`
	Command  map[string]any `json:"command"`
	Disabled bool           `json:"disabled,omitempty"`
}

// Group is a fieldset. Items hold repeated sub groups such as cards.
type Group struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Fields  []Field  `json:"fields,omitempty"`
	Items   []Group  `json:"items,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}

// Panel is the full editor panel for one page.
type Panel struct {
	PageID       string  `json:"pageId"`
	PageIndex    int     `json:"pageIndex"`
	Pages        Field   `json:"pages"`
	Hero         Group   `json:"hero"`
	Sections     []Group `json:"sections"`
	SectionTypes Field   `json:"sectionTypes"`
	Theme        Group   `json:"theme"`
}

// SectionForm is what a section editor contributes for one section.
type SectionForm struct {
	Fields []Field
	Items  []Group
	Add    *Action
}

// SectionEditorFunc builds the form for a section. base points at the
// section data and index is the section position in the page.
type SectionEditorFunc func(data map[string]any, base Path, index int) SectionForm

// PanelRegistry maps section types to their editors.
type PanelRegistry struct {
	mu      sync.RWMutex
	editors map[string]SectionEditorFunc
}

// NewPanelRegistry returns a registry holding the built-in editors.
func NewPanelRegistry() *PanelRegistry {
	r := &PanelRegistry{editors: map[string]SectionEditorFunc{}}
	r.Register(content.SectionRichText, richTextEditor)
	r.Register(content.SectionLinkCards, linkCardsEditor)
	r.Register(content.SectionImageGrid, imageGridEditor)
	r.Register(content.SectionImageCarousel, imageCarouselEditor)
	r.Register(content.SectionImageHighlight, imageHighlightEditor)
	r.Register(content.SectionCTA, ctaEditor)
	r.Register(content.SectionWinnerCards, winnerCardsEditor)
	r.Register(content.SectionKeyValue, keyValueEditor)
	r.Register(content.SectionFAQ, faqEditor)
	return r
}

// Register adds or replaces the editor for sectionType.
func (r *PanelRegistry) Register(sectionType string, fn SectionEditorFunc) {
	if r == nil || fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editors[strings.TrimSpace(sectionType)] = fn
}

// Lookup returns the editor for sectionType, resolving legacy names.
func (r *PanelRegistry) Lookup(sectionType string) (SectionEditorFunc, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.editors[sectionType]; ok {
		return fn, true
	}
	fn, ok := r.editors[content.CanonicalType(sectionType)]
	return fn, ok
}

var defaultPanelRegistry = NewPanelRegistry()

// BuildPanel builds the panel for pageID with the built-in editors.
func BuildPanel(doc content.Document, pageID string) Panel {
	return defaultPanelRegistry.Build(doc, pageID)
}

// Panel builds the panel for the current draft and page.
func (s *Store) Panel(registry *PanelRegistry) Panel {
	if registry == nil {
		registry = defaultPanelRegistry
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return registry.Build(s.draft, s.pageID)
}

// Build builds the panel for pageID. A missing page falls back to the first.
func (r *PanelRegistry) Build(doc content.Document, pageID string) Panel {
	pages, _ := doc["pages"].([]any)
	page, pageIndex := findPage(doc, pageID)
	if page == nil && len(pages) > 0 {
		page, _ = pages[0].(map[string]any)
		pageIndex = 0
		pageID, _ = stringAt(page, "id")
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	panel := Panel{
		PageID:       pageID,
		PageIndex:    pageIndex,
		Pages:        pageSelector(pages, pageID),
		SectionTypes: sectionTypeSelector(),
	}
	pagePath := Path{"pages", pageIndex}
	if page != nil {
		panel.Hero = heroGroup(mapAt(page, "hero"), pagePath.Append("hero"))
		sections, _ := page["sections"].([]any)
		panel.Sections = make([]Group, 0, len(sections))
		for idx, item := range sections {
			section, _ := item.(map[string]any)
			panel.Sections = append(panel.Sections, r.sectionGroup(section, pagePath.Append("sections", idx), idx, len(sections)))
		}
	}
	panel.Theme = themeGroup(mapAt(doc, "theme"))
	return panel
}

func pageSelector(pages []any, current string) Field {
	field := Field{ID: "page-selector", Label: "Pagina actual", Kind: FieldSelect, Value: current}
	for _, item := range pages {
		page, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := stringAt(page, "id")
		label, _ := stringAt(page, "title")
		if label == "" {
			label = id
		}
		field.Options = append(field.Options, Option{Value: id, Label: label, Selected: id == current})
	}
	return field
}

func sectionTypeSelector() Field {
	types := content.TemplateTypes()
	sort.Strings(types)
	field := Field{ID: "section-type", Label: "Agregar seccion", Kind: FieldSelect}
	for _, t := range types {
		field.Options = append(field.Options, Option{Value: t, Label: t})
	}
	if len(types) > 0 {
		field.Value = types[0]
	}
	return field
}

func heroGroup(hero map[string]any, base Path) Group {
	group := Group{
		ID:    "hero",
		Title: "Hero",
		Fields: []Field{
			textField("Titulo", hero, base, "title"),
			textField("Subtitulo", hero, base, "subtitle"),
			imageField("Imagen de perfil", hero, base, "profileImage"),
			imageField("Banner", hero, base, "bannerImage"),
		},
	}

	buttons, _ := hero["buttons"].([]any)
	for idx, item := range buttons {
		button, _ := item.(map[string]any)
		itemPath := base.Append("buttons", idx)
		group.Items = append(group.Items, Group{
			ID:    fieldID(itemPath),
			Title: fmt.Sprintf("Boton %d", idx+1),
			Fields: []Field{
				textField("Etiqueta", button, itemPath, "label"),
				textField("URL", button, itemPath, "href"),
			},
			Actions: []Action{removeAction(map[string]any{"kind": "removeHeroButton", "index": idx})},
		})
	}
	social, _ := hero["social"].([]any)
	for idx, item := range social {
		link, _ := item.(map[string]any)
		itemPath := base.Append("social", idx)
		group.Items = append(group.Items, Group{
			ID:    fieldID(itemPath),
			Title: fmt.Sprintf("Social %d", idx+1),
			Fields: []Field{
				textField("Plataforma", link, itemPath, "platform"),
				textField("URL", link, itemPath, "url"),
			},
			Actions: []Action{removeAction(map[string]any{"kind": "removeHeroSocial", "index": idx})},
		})
	}
	group.Actions = []Action{
		{Label: "Agregar boton", Command: map[string]any{"kind": "addHeroButton"}},
		{Label: "Agregar social", Command: map[string]any{"kind": "addHeroSocial"}},
	}
	return group
}

func (r *PanelRegistry) sectionGroup(section map[string]any, base Path, index, total int) Group {
	sectionType, _ := stringAt(section, "type")
	group := Group{
		ID:     fieldID(base),
		Title:  fmt.Sprintf("%d. %s", index+1, sectionType),
		Fields: []Field{textField("Identificador", section, base, "id")},
		Actions: []Action{
			{Label: "Subir", Command: map[string]any{"kind": "moveSection", "index": index, "delta": -1}, Disabled: index == 0},
			{Label: "Bajar", Command: map[string]any{"kind": "moveSection", "index": index, "delta": 1}, Disabled: index == total-1},
			{Label: "Eliminar", Command: map[string]any{"kind": "removeSection", "index": index}},
		},
	}
	editor, ok := r.Lookup(sectionType)
	if !ok {
		group.Fields = append(group.Fields, Field{
			ID:    fieldID(base.Append("notice")),
			Label: UnsupportedSectionNotice,
			Kind:  FieldNotice,
		})
		return group
	}
	form := editor(mapAt(section, "data"), base.Append("data"), index)
	group.Fields = append(group.Fields, form.Fields...)
	group.Items = form.Items
	if form.Add != nil {
		group.Actions = append(group.Actions, *form.Add)
	}
	return group
}

func themeGroup(theme map[string]any) Group {
	base := Path{"theme"}
	colors := mapAt(theme, "colors")
	background := mapAt(theme, "background")
	colorPath := base.Append("colors")
	backgroundPath := base.Append("background")

	mode := Field{
		ID:    fieldID(backgroundPath.Append("backgroundMode")),
		Label: "Modo de fondo",
		Kind:  FieldSelect,
		Path:  backgroundPath.Append("backgroundMode"),
		Value: backgroundMode(background),
	}
	for _, option := range []string{content.BackgroundNone, content.BackgroundVideo, content.BackgroundImage} {
		mode.Options = append(mode.Options, Option{Value: option, Label: option, Selected: option == mode.Value})
	}

	return Group{
		ID:    "theme",
		Title: "Tema y fondos",
		Fields: []Field{
			withDefault(textField("Color primario", colors, colorPath, "primary"), "#fe9200"),
			withDefault(textField("Color secundario", colors, colorPath, "accent"), "#000000"),
			withDefault(textField("Color texto", colors, colorPath, "text"), "#ffffff"),
			mode,
			textField("Video de fondo (URL)", background, backgroundPath, "video"),
			imageField("Poster video", background, backgroundPath, "poster"),
			imageField("Imagen de fondo", background, backgroundPath, "image"),
		},
	}
}

func backgroundMode(background map[string]any) string {
	bg := content.Background{}
	if mode, ok := stringAt(background, "backgroundMode"); ok {
		bg.BackgroundMode = mode
	}
	if video, ok := stringAt(background, "video"); ok {
		bg.Video = video
	}
	bg.Image = media.RefFrom(background["image"])
	return bg.Mode()
}

func richTextEditor(data map[string]any, base Path, _ int) SectionForm {
	lines, _ := data["lines"].([]any)
	text := make([]string, 0, len(lines))
	for _, line := range lines {
		text = append(text, scalarString(line))
	}
	return SectionForm{Fields: []Field{
		textField("Titulo", data, base, "title"),
		{
			ID:    fieldID(base.Append("lines")),
			Label: "Lineas (una por fila)",
			Kind:  FieldLines,
			Path:  base.Append("lines"),
			Value: strings.Join(text, "\n"),
		},
	}}
}

func linkCardsEditor(data map[string]any, base Path, index int) SectionForm {
	return SectionForm{
		Fields: []Field{textField("Titulo", data, base, "title")},
		Items: listItems(data, base, "cards", index, "Opcion", func(card map[string]any, path Path) []Field {
			return []Field{
				textField("Titulo", card, path, "title"),
				textField("Subtitulo", card, path, "subtitle"),
				textField("URL", card, path, "href"),
				imageField("Imagen", card, path, "image"),
			}
		}),
		Add: addItemAction("Agregar opcion", index),
	}
}

func imageGridEditor(data map[string]any, base Path, index int) SectionForm {
	return SectionForm{
		Items: listItems(data, base, "images", index, "Imagen", func(image map[string]any, path Path) []Field {
			return []Field{
				imageField("Imagen", image, path, "src"),
				textField("Link opcional", image, path, "href"),
			}
		}),
		Add: addItemAction("Agregar imagen", index),
	}
}

func imageCarouselEditor(data map[string]any, base Path, index int) SectionForm {
	form := SectionForm{
		Fields: []Field{
			textField("Titulo", data, base, "title"),
			textField("Descripcion", data, base, "description"),
		},
		Add: addItemAction("Agregar imagen", index),
	}
	images, _ := data["images"].([]any)
	for idx, image := range images {
		path := base.Append("images", idx)
		form.Items = append(form.Items, Group{
			ID:      fieldID(path),
			Title:   fmt.Sprintf("Imagen %d", idx+1),
			Fields:  []Field{imageValueField("Imagen", image, path)},
			Actions: []Action{removeItemAction(index, idx)},
		})
	}
	return form
}

func imageHighlightEditor(data map[string]any, base Path, index int) SectionForm {
	return SectionForm{
		Fields: []Field{
			textField("Titulo", data, base, "title"),
			textField("Descripcion", data, base, "body"),
			imageField("Imagen", data, base, "image"),
		},
		Items: listItems(data, base, "slides", index, "Diapositiva", func(slide map[string]any, path Path) []Field {
			return []Field{
				textField("Titulo", slide, path, "title"),
				textField("Descripcion", slide, path, "body"),
				imageField("Imagen", slide, path, "image"),
			}
		}),
		Add: addItemAction("Agregar diapositiva", index),
	}
}

func ctaEditor(data map[string]any, base Path, _ int) SectionForm {
	return SectionForm{Fields: []Field{
		textField("Titulo", data, base, "title"),
		textField("Mensaje", data, base, "body"),
		textField("Texto boton", data, base, "buttonLabel"),
		textField("URL boton", data, base, "href"),
		imageField("Imagen", data, base, "image"),
	}}
}

func winnerCardsEditor(data map[string]any, base Path, index int) SectionForm {
	return SectionForm{
		Fields: []Field{textField("Titulo", data, base, "title")},
		Items: listItems(data, base, "cards", index, "Ganador", func(card map[string]any, path Path) []Field {
			return []Field{
				textField("Nombre", card, path, "winner"),
				textField("Premio", card, path, "prize"),
				textField("Ticket", card, path, "ticket"),
				textField("Fecha", card, path, "date"),
				textField("Ubicacion", card, path, "location"),
				imageField("Imagen", card, path, "image"),
			}
		}),
		Add: addItemAction("Agregar ganador", index),
	}
}

func keyValueEditor(data map[string]any, base Path, index int) SectionForm {
	return SectionForm{
		Fields: []Field{textField("Titulo", data, base, "title")},
		Items: listItems(data, base, "items", index, "Dato", func(item map[string]any, path Path) []Field {
			return []Field{
				textField("Clave", item, path, "k"),
				textField("Valor", item, path, "v"),
			}
		}),
		Add: addItemAction("Agregar dato", index),
	}
}

func faqEditor(data map[string]any, base Path, index int) SectionForm {
	return SectionForm{
		Fields: []Field{textField("Titulo", data, base, "title")},
		Items: listItems(data, base, "items", index, "Pregunta", func(item map[string]any, path Path) []Field {
			return []Field{
				textField("Pregunta", item, path, "q"),
				textField("Respuesta", item, path, "a"),
			}
		}),
		Add: addItemAction("Agregar pregunta", index),
	}
}

func listItems(data map[string]any, base Path, key string, section int, title string, fields func(item map[string]any, path Path) []Field) []Group {
	list, _ := data[key].([]any)
	groups := make([]Group, 0, len(list))
	for idx, item := range list {
		obj, _ := item.(map[string]any)
		path := base.Append(key, idx)
		groups = append(groups, Group{
			ID:      fieldID(path),
			Title:   fmt.Sprintf("%s %d", title, idx+1),
			Fields:  fields(obj, path),
			Actions: []Action{removeItemAction(section, idx)},
		})
	}
	return groups
}

func addItemAction(label string, section int) *Action {
	return &Action{Label: label, Command: map[string]any{"kind": "addSectionItem", "index": section}}
}

func removeItemAction(section, item int) Action {
	return removeAction(map[string]any{"kind": "removeSectionItem", "index": section, "item": item})
}

func removeAction(command map[string]any) Action {
	return Action{Label: "Eliminar", Command: command}
}

func textField(label string, obj map[string]any, base Path, key string) Field {
	path := base.Append(key)
	return Field{
		ID:    fieldID(path),
		Label: label,
		Kind:  FieldText,
		Path:  path,
		Value: scalarString(obj[key]),
	}
}

// imageField edits the URL of an image. Object refs are edited through their
// src key so crop settings survive typing a new URL.
func imageField(label string, obj map[string]any, base Path, key string) Field {
	return imageValueField(label, obj[key], base.Append(key))
}

func imageValueField(label string, value any, path Path) Field {
	field := Field{
		ID:         fieldID(path),
		Label:      label,
		Kind:       FieldImage,
		Path:       path,
		UploadPath: path,
	}
	if _, ok := value.(map[string]any); ok {
		field.Path = path.Append("src")
		field.Value = media.ResolveImageSrc(value, false)
		return field
	}
	field.Value = scalarString(value)
	return field
}

func withDefault(field Field, fallback string) Field {
	if strings.TrimSpace(field.Value) == "" {
		field.Value = fallback
	}
	return field
}

func fieldID(path Path) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, "field")
	for _, segment := range path {
		parts = append(parts, fmt.Sprint(segment))
	}
	return strings.Join(parts, "-")
}

func scalarString(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}

func stringAt(obj map[string]any, key string) (string, bool) {
	if obj == nil {
		return "", false
	}
	value, ok := obj[key].(string)
	return value, ok
}

func mapAt(obj map[string]any, key string) map[string]any {
	if obj == nil {
		return nil
	}
	child, _ := obj[key].(map[string]any)
	return child
}
