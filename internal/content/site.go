package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-microsite/internal/media"
)

// DefaultPageID is used when a site has no pages to point at.
const DefaultPageID = "home"

// Site is the typed view over a Document.
type Site struct {
	Meta       Meta       `json:"meta"`
	Theme      Theme      `json:"theme"`
	Navigation []NavEntry `json:"navigation,omitempty"`
	Pages      []Page     `json:"pages"`
}

type Meta struct {
	Title       Text `json:"title"`
	Description Text `json:"description,omitempty"`
}

type Theme struct {
	Colors     Colors     `json:"colors"`
	Fonts      Fonts      `json:"fonts"`
	Background Background `json:"background"`
}

type Colors struct {
	Primary string `json:"primary,omitempty"`
	Accent  string `json:"accent,omitempty"`
	Text    string `json:"text,omitempty"`
	Muted   string `json:"muted,omitempty"`
}

type Fonts struct {
	Heading string `json:"heading,omitempty"`
	Body    string `json:"body,omitempty"`
}

// Background modes.
const (
	BackgroundNone  = "none"
	BackgroundVideo = "video"
	BackgroundImage = "image"
)

type Background struct {
	BackgroundMode string         `json:"backgroundMode,omitempty"`
	Video          string         `json:"video,omitempty"`
	Poster         string         `json:"poster,omitempty"`
	Image          media.ImageRef `json:"image,omitzero"`
}

// Mode returns the explicit background mode, or the one implied by which
// media field is set.
func (b Background) Mode() string {
	switch mode := strings.ToLower(strings.TrimSpace(b.BackgroundMode)); mode {
	case BackgroundNone, BackgroundVideo, BackgroundImage:
		return mode
	}
	if strings.TrimSpace(b.Video) != "" {
		return BackgroundVideo
	}
	if !b.Image.IsZero() {
		return BackgroundImage
	}
	return BackgroundNone
}

type NavEntry struct {
	Label  Text   `json:"label,omitempty"`
	PageID string `json:"pageId"`
	Path   string `json:"path"`
}

type Page struct {
	ID       string    `json:"id"`
	Slug     string    `json:"slug,omitempty"`
	Title    Text      `json:"title"`
	Hidden   bool      `json:"hidden,omitempty"`
	Hero     Hero      `json:"hero"`
	Sections []Section `json:"sections"`
}

type Hero struct {
	Title        Text           `json:"title"`
	Subtitle     Text           `json:"subtitle,omitempty"`
	ProfileImage media.ImageRef `json:"profileImage,omitzero"`
	BannerImage  media.ImageRef `json:"bannerImage,omitzero"`
	Buttons      []Button       `json:"buttons,omitempty"`
	Social       []Social       `json:"social,omitempty"`
	Effect       string         `json:"effect,omitempty"`
}

type Button struct {
	Label Text   `json:"label"`
	Href  string `json:"href"`
}

type Social struct {
	Platform string `json:"platform,omitempty"`
	URL      string `json:"url"`
	Label    Text   `json:"label,omitempty"`
}

// Section is a typed block. Data is interpreted by the handler registered
// for Type.
type Section struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// DecodeSite builds the typed view of doc.
func DecodeSite(doc Document) (*Site, error) {
	if doc == nil {
		return nil, ErrInvalidDocument
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	var site Site
	if err := json.Unmarshal(raw, &site); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &site, nil
}

// EncodeSite converts site back into the generic document form.
func EncodeSite(site *Site) (Document, error) {
	if site == nil {
		return nil, ErrInvalidDocument
	}
	raw, err := json.Marshal(site)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// PageByID returns the page with id.
func (s *Site) PageByID(id string) (*Page, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Pages {
		if s.Pages[i].ID == id {
			return &s.Pages[i], true
		}
	}
	return nil, false
}

// PageOrFirst returns the page with id, or the first page.
func (s *Site) PageOrFirst(id string) (*Page, bool) {
	if page, ok := s.PageByID(id); ok {
		return page, true
	}
	if s == nil || len(s.Pages) == 0 {
		return nil, false
	}
	return &s.Pages[0], true
}

// FirstPageID returns the id of the first page or DefaultPageID.
func (s *Site) FirstPageID() string {
	if s != nil && len(s.Pages) > 0 && s.Pages[0].ID != "" {
		return s.Pages[0].ID
	}
	return DefaultPageID
}

// VisibleNavigation lists entries pointing at existing, non hidden pages.
func (s *Site) VisibleNavigation() []NavEntry {
	if s == nil {
		return nil
	}
	out := make([]NavEntry, 0, len(s.Navigation))
	for _, entry := range s.Navigation {
		page, ok := s.PageByID(entry.PageID)
		if !ok || page.Hidden {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// ResolvePageID maps a request path to a page id through the navigation,
// falling back to the first page.
func (s *Site) ResolvePageID(path string) string {
	target := NormalisePath(path)
	if s != nil {
		for _, entry := range s.Navigation {
			if entry.PageID != "" && NormalisePath(entry.Path) == target {
				return entry.PageID
			}
		}
	}
	return s.FirstPageID()
}

// NormalisePath lowercases path and ensures a trailing slash.
func NormalisePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	path = strings.ToLower(path)
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}
