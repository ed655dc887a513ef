package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

// DefaultDebounce is the quiet period before draft edits reach the live copy.
const DefaultDebounce = 200 * time.Millisecond

var (
	ErrPageNotFound    = errors.New("editor: page not found")
	ErrSectionNotFound = errors.New("editor: section not found")
	ErrItemNotFound    = errors.New("editor: list item not found")
	ErrInvalidMove     = errors.New("editor: section cannot move in that direction")
	ErrNoItemTemplate  = errors.New("editor: section type has no item list")
)

// Publisher receives structural clones of the draft.
type Publisher interface {
	Publish(doc content.Document)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(doc content.Document)

func (f PublisherFunc) Publish(doc content.Document) { f(doc) }

// PanelRenderer rebuilds the editing panel.
type PanelRenderer interface {
	RequestRender(immediate bool)
}

// UpdateOptions tunes what happens after a mutation.
type UpdateOptions struct {
	RerenderPanel bool
}

// Store owns the editor draft and the current page pointer. Mutators passed
// to the Update helpers run while the store lock is held and must not call
// back into the Store.
type Store struct {
	mu        sync.Mutex
	draft     content.Document
	saved     content.Document
	pageID    string
	publisher Publisher
	panel     PanelRenderer
	schedule  func(func())
	logger    interfaces.Logger
	now       func() time.Time
	pushes    uint64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPublisher sets the live copy receiver.
func WithPublisher(publisher Publisher) StoreOption {
	return func(s *Store) {
		s.publisher = publisher
	}
}

// WithDebounce sets the quiet period for live pushes.
func WithDebounce(window time.Duration) StoreOption {
	return func(s *Store) {
		if window <= 0 {
			s.schedule = func(fn func()) { fn() }
			return
		}
		s.schedule = debounce.New(window)
	}
}

// WithScheduler replaces the debouncer. Tests pass a manual queue here.
func WithScheduler(schedule func(func())) StoreOption {
	return func(s *Store) {
		if schedule != nil {
			s.schedule = schedule
		}
	}
}

// WithPanel attaches the panel renderer.
func WithPanel(panel PanelRenderer) StoreOption {
	return func(s *Store) {
		s.panel = panel
	}
}

// WithLogger sets the store logger.
func WithLogger(logger interfaces.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logging.OrNoOp(logger)
	}
}

// WithClock overrides the clock used for new section ids.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a store around a clone of doc. The first page becomes the
// current page.
func NewStore(doc content.Document, opts ...StoreOption) *Store {
	s := &Store{
		schedule: debounce.New(DefaultDebounce),
		logger:   logging.NoOp(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.reset(doc)
	return s
}

func (s *Store) reset(doc content.Document) {
	if doc == nil {
		doc = content.Document{}
	}
	s.draft = content.Clone(doc)
	s.saved = content.Clone(doc)
	s.pageID = firstPageID(s.draft)
}

// SetPanel attaches a panel renderer after construction.
func (s *Store) SetPanel(panel PanelRenderer) {
	s.mu.Lock()
	s.panel = panel
	s.mu.Unlock()
}

// Draft returns a structural clone of the draft.
func (s *Store) Draft() content.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return content.Clone(s.draft)
}

// Saved returns a clone of the last loaded or saved document.
func (s *Store) Saved() content.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return content.Clone(s.saved)
}

// Dirty reports whether the draft differs from the saved document.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, errA := content.Marshal(s.draft)
	b, errB := content.Marshal(s.saved)
	if errA != nil || errB != nil {
		return true
	}
	return string(a) != string(b)
}

// PageID returns the current page id.
func (s *Store) PageID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageID
}

// PageIndex returns the index of the current page, 0 when it is missing.
func (s *Store) PageIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, idx := findPage(s.draft, s.pageID)
	if idx < 0 {
		return 0
	}
	return idx
}

// Pushes counts live pushes delivered so far.
func (s *Store) Pushes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushes
}

// Replace swaps the draft for doc, as after a reload from storage. The
// current page is kept when it still exists.
func (s *Store) Replace(doc content.Document) {
	s.mu.Lock()
	pageID := s.pageID
	s.reset(doc)
	if _, idx := findPage(s.draft, pageID); idx >= 0 {
		s.pageID = pageID
	}
	s.mu.Unlock()
	s.changed(UpdateOptions{RerenderPanel: true})
}

// SelectPage moves the current page pointer.
func (s *Store) SelectPage(pageID string) error {
	pageID = strings.TrimSpace(pageID)
	s.mu.Lock()
	if _, idx := findPage(s.draft, pageID); idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrPageNotFound, &content.NotFoundError{Resource: "page", Key: pageID})
	}
	s.pageID = pageID
	panel := s.panel
	s.mu.Unlock()
	if panel != nil {
		panel.RequestRender(true)
	}
	return nil
}

// UpdateSite hands the whole draft to mutator.
func (s *Store) UpdateSite(mutator func(doc content.Document), opts UpdateOptions) {
	s.mu.Lock()
	if mutator != nil {
		mutator(s.draft)
	}
	s.mu.Unlock()
	s.changed(opts)
}

// UpdatePage hands the current page to mutator. The page always carries a
// sections list.
func (s *Store) UpdatePage(mutator func(page map[string]any), opts UpdateOptions) error {
	return s.updatePage(func(page map[string]any) bool {
		if mutator != nil {
			mutator(page)
		}
		return true
	}, opts)
}

// updatePage runs mutator on the current page and schedules a push only when
// it reports an applied edit.
func (s *Store) updatePage(mutator func(page map[string]any) bool, opts UpdateOptions) error {
	s.mu.Lock()
	page, _ := findPage(s.draft, s.pageID)
	if page == nil {
		pageID := s.pageID
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrPageNotFound, &content.NotFoundError{Resource: "page", Key: pageID})
	}
	if _, ok := page["sections"].([]any); !ok {
		page["sections"] = []any{}
	}
	applied := mutator(page)
	s.mu.Unlock()
	if applied {
		s.changed(opts)
	}
	return nil
}

// UpdateHero hands the current page hero to mutator. Buttons and social
// lists always exist.
func (s *Store) UpdateHero(mutator func(hero map[string]any), opts UpdateOptions) error {
	return s.UpdatePage(func(page map[string]any) {
		hero := ensureMap(page, "hero")
		ensureList(hero, "buttons")
		ensureList(hero, "social")
		if mutator != nil {
			mutator(hero)
		}
	}, opts)
}

// UpdateSection hands the section at index of the current page to mutator.
// A missing index leaves the draft untouched and schedules nothing.
func (s *Store) UpdateSection(index int, mutator func(section map[string]any), opts UpdateOptions) error {
	var missing bool
	err := s.updatePage(func(page map[string]any) bool {
		section := sectionAt(page, index)
		if section == nil {
			missing = true
			return false
		}
		if mutator != nil {
			mutator(section)
		}
		return true
	}, opts)
	if err != nil {
		return err
	}
	if missing {
		return fmt.Errorf("%w: index %d", ErrSectionNotFound, index)
	}
	return nil
}

// UpdateTheme hands the theme to mutator. Colors, fonts and background maps
// always exist.
func (s *Store) UpdateTheme(mutator func(theme map[string]any), opts UpdateOptions) {
	s.UpdateSite(func(doc content.Document) {
		theme := ensureMap(doc, "theme")
		ensureMap(theme, "colors")
		ensureMap(theme, "fonts")
		ensureMap(theme, "background")
		if mutator != nil {
			mutator(theme)
		}
	}, opts)
}

// SetField writes value at an absolute path in the draft.
func (s *Store) SetField(path Path, value any) error {
	normalized, err := content.Normalize(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	root, err := SetValueByPath(s.draft, path, normalized)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if doc, ok := root.(map[string]any); ok {
		s.draft = doc
	}
	s.mu.Unlock()
	s.changed(UpdateOptions{})
	return nil
}

// SetLines splits text into trimmed, non-empty lines and stores them as a
// list at path.
func (s *Store) SetLines(path Path, text string) error {
	lines := []any{}
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if err := s.SetField(path, lines); err != nil {
		return err
	}
	s.requestPanel(false)
	return nil
}

// Value reads the draft at path.
func (s *Store) Value(path Path) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := GetValueByPath(s.draft, path)
	if !ok {
		return nil, false
	}
	return content.CloneValue(value), true
}

// AddSection appends a section of sectionType to the current page and
// returns its id.
func (s *Store) AddSection(sectionType string) (string, error) {
	var (
		id     string
		addErr error
	)
	err := s.UpdatePage(func(page map[string]any) {
		sections, _ := page["sections"].([]any)
		id = s.uniqueSectionID(sections, content.CanonicalType(strings.TrimSpace(sectionType)))
		section, err := content.NewSection(sectionType, id)
		if err != nil {
			addErr = err
			return
		}
		page["sections"] = append(sections, section)
	}, UpdateOptions{RerenderPanel: true})
	if err != nil {
		return "", err
	}
	if addErr != nil {
		return "", addErr
	}
	return id, nil
}

func (s *Store) uniqueSectionID(sections []any, sectionType string) string {
	base := sectionType + "-" + strconv.FormatInt(s.now().UnixMilli(), 10)
	taken := make(map[string]struct{}, len(sections))
	for _, item := range sections {
		if section, ok := item.(map[string]any); ok {
			if id, ok := section["id"].(string); ok {
				taken[id] = struct{}{}
			}
		}
	}
	id := base
	for n := 2; ; n++ {
		if _, exists := taken[id]; !exists {
			return id
		}
		id = base + "-" + strconv.Itoa(n)
	}
}

// MoveSection moves the section at index by delta positions.
func (s *Store) MoveSection(index, delta int) error {
	var moveErr error
	err := s.UpdatePage(func(page map[string]any) {
		sections, _ := page["sections"].([]any)
		target := index + delta
		if index < 0 || index >= len(sections) {
			moveErr = fmt.Errorf("%w: index %d", ErrSectionNotFound, index)
			return
		}
		if target < 0 || target >= len(sections) {
			moveErr = fmt.Errorf("%w: %d to %d", ErrInvalidMove, index, target)
			return
		}
		moved := sections[index]
		rest := append(sections[:index:index], sections[index+1:]...)
		out := make([]any, 0, len(sections))
		out = append(out, rest[:target]...)
		out = append(out, moved)
		out = append(out, rest[target:]...)
		page["sections"] = out
	}, UpdateOptions{RerenderPanel: true})
	if err != nil {
		return err
	}
	return moveErr
}

// RemoveSection deletes the section at index from the current page.
func (s *Store) RemoveSection(index int) error {
	var removeErr error
	err := s.UpdatePage(func(page map[string]any) {
		sections, _ := page["sections"].([]any)
		updated, ok := removeAt(sections, index)
		if !ok {
			removeErr = fmt.Errorf("%w: index %d", ErrSectionNotFound, index)
			return
		}
		page["sections"] = updated
	}, UpdateOptions{RerenderPanel: true})
	if err != nil {
		return err
	}
	return removeErr
}

// AddHeroButton appends a placeholder button to the hero.
func (s *Store) AddHeroButton() error {
	return s.UpdateHero(func(hero map[string]any) {
		buttons, _ := hero["buttons"].([]any)
		hero["buttons"] = append(buttons, map[string]any{"label": "Nuevo boton", "href": "#"})
	}, UpdateOptions{RerenderPanel: true})
}

// AddHeroSocial appends a placeholder social link to the hero.
func (s *Store) AddHeroSocial() error {
	return s.UpdateHero(func(hero map[string]any) {
		social, _ := hero["social"].([]any)
		hero["social"] = append(social, map[string]any{"platform": "instagram", "url": ""})
	}, UpdateOptions{RerenderPanel: true})
}

// RemoveHeroButton deletes the hero button at index.
func (s *Store) RemoveHeroButton(index int) error {
	return s.removeHeroItem("buttons", index)
}

// RemoveHeroSocial deletes the hero social link at index.
func (s *Store) RemoveHeroSocial(index int) error {
	return s.removeHeroItem("social", index)
}

func (s *Store) removeHeroItem(key string, index int) error {
	var removeErr error
	err := s.UpdateHero(func(hero map[string]any) {
		list, _ := hero[key].([]any)
		updated, ok := removeAt(list, index)
		if !ok {
			removeErr = fmt.Errorf("%w: hero %s %d", ErrItemNotFound, key, index)
			return
		}
		hero[key] = updated
	}, UpdateOptions{RerenderPanel: true})
	if err != nil {
		return err
	}
	return removeErr
}

// AddSectionItem appends the type specific placeholder item to the list of
// the section at index.
func (s *Store) AddSectionItem(index int) error {
	var addErr error
	err := s.UpdateSection(index, func(section map[string]any) {
		sectionType, _ := section["type"].(string)
		tmpl, ok := itemTemplates[content.CanonicalType(sectionType)]
		if !ok {
			addErr = fmt.Errorf("%w: %s", ErrNoItemTemplate, sectionType)
			return
		}
		data := ensureMap(section, "data")
		list, _ := data[tmpl.list].([]any)
		data[tmpl.list] = append(list, content.CloneValue(tmpl.item))
	}, UpdateOptions{RerenderPanel: true})
	if err != nil {
		return err
	}
	return addErr
}

// RemoveSectionItem deletes item from the list of the section at index.
func (s *Store) RemoveSectionItem(index, item int) error {
	var removeErr error
	err := s.UpdateSection(index, func(section map[string]any) {
		sectionType, _ := section["type"].(string)
		tmpl, ok := itemTemplates[content.CanonicalType(sectionType)]
		if !ok {
			removeErr = fmt.Errorf("%w: %s", ErrNoItemTemplate, sectionType)
			return
		}
		data := ensureMap(section, "data")
		list, _ := data[tmpl.list].([]any)
		updated, ok := removeAt(list, item)
		if !ok {
			removeErr = fmt.Errorf("%w: %s %d", ErrItemNotFound, tmpl.list, item)
			return
		}
		data[tmpl.list] = updated
	}, UpdateOptions{RerenderPanel: true})
	if err != nil {
		return err
	}
	return removeErr
}

// AddPage appends page to the site. Pages that are not hidden also get a
// navigation entry pointing at /<slug>. The stored page id is returned,
// suffixed when the id is already taken.
func (s *Store) AddPage(page map[string]any) (string, error) {
	if page == nil {
		return "", errors.New("editor: page is required")
	}
	page, _ = content.CloneValue(page).(map[string]any)
	var id string
	s.UpdateSite(func(doc content.Document) {
		base, _ := stringAt(page, "id")
		if base = strings.TrimSpace(base); base == "" {
			base = "page"
		}
		id = base
		for n := 2; ; n++ {
			if _, idx := findPage(doc, id); idx < 0 {
				break
			}
			id = base + "-" + strconv.Itoa(n)
		}
		page["id"] = id
		if _, ok := page["sections"].([]any); !ok {
			page["sections"] = []any{}
		}
		pages, _ := doc["pages"].([]any)
		doc["pages"] = append(pages, page)

		if hidden, _ := page["hidden"].(bool); hidden {
			return
		}
		slug, _ := stringAt(page, "slug")
		if slug = strings.Trim(strings.TrimSpace(slug), "/"); slug == "" {
			slug = id
		}
		label, _ := stringAt(page, "title")
		if label == "" {
			label = id
		}
		nav, _ := doc["navigation"].([]any)
		doc["navigation"] = append(nav, map[string]any{"label": label, "pageId": id, "path": "/" + slug})
	}, UpdateOptions{RerenderPanel: true})
	return id, nil
}

// Flush pushes the draft to the live copy now.
func (s *Store) Flush() {
	s.pushLive()
}

func (s *Store) changed(opts UpdateOptions) {
	s.schedule(s.pushLive)
	if opts.RerenderPanel {
		s.requestPanel(false)
	}
}

func (s *Store) requestPanel(immediate bool) {
	s.mu.Lock()
	panel := s.panel
	s.mu.Unlock()
	if panel != nil {
		panel.RequestRender(immediate)
	}
}

func (s *Store) pushLive() {
	s.mu.Lock()
	snapshot := content.Clone(s.draft)
	publisher := s.publisher
	s.pushes++
	pushes := s.pushes
	pageID := s.pageID
	s.mu.Unlock()
	if publisher == nil {
		return
	}
	publisher.Publish(snapshot)
	s.logger.Debug("editor.live.pushed", "page_id", pageID, "push", pushes)
}

type itemTemplate struct {
	list string
	item any
}

var itemTemplates = map[string]itemTemplate{
	content.SectionLinkCards: {
		list: "cards",
		item: map[string]any{"title": "Nueva opcion", "subtitle": "", "href": "#", "image": ""},
	},
	content.SectionImageGrid:     {list: "images", item: map[string]any{"src": "", "href": ""}},
	content.SectionImageCarousel: {list: "images", item: ""},
	content.SectionImageHighlight: {
		list: "slides",
		item: map[string]any{"title": "", "body": "", "image": ""},
	},
	content.SectionWinnerCards: {
		list: "cards",
		item: map[string]any{"winner": "Nuevo ganador", "prize": "", "ticket": "", "date": "", "location": "", "image": ""},
	},
	content.SectionKeyValue: {list: "items", item: map[string]any{"k": "", "v": ""}},
	content.SectionFAQ:      {list: "items", item: map[string]any{"q": "", "a": ""}},
}

func firstPageID(doc content.Document) string {
	pages, _ := doc["pages"].([]any)
	for _, item := range pages {
		page, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := page["id"].(string); ok && id != "" {
			return id
		}
	}
	return content.DefaultPageID
}

func findPage(doc content.Document, pageID string) (map[string]any, int) {
	pages, _ := doc["pages"].([]any)
	for idx, item := range pages {
		page, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id, _ := page["id"].(string); id == pageID {
			return page, idx
		}
	}
	return nil, -1
}

func sectionAt(page map[string]any, index int) map[string]any {
	sections, _ := page["sections"].([]any)
	if index < 0 || index >= len(sections) {
		return nil
	}
	section, _ := sections[index].(map[string]any)
	return section
}

func ensureMap(parent map[string]any, key string) map[string]any {
	if child, ok := parent[key].(map[string]any); ok {
		return child
	}
	child := map[string]any{}
	parent[key] = child
	return child
}

func ensureList(parent map[string]any, key string) []any {
	if list, ok := parent[key].([]any); ok {
		return list
	}
	list := []any{}
	parent[key] = list
	return list
}

func removeAt(list []any, index int) ([]any, bool) {
	if index < 0 || index >= len(list) {
		return list, false
	}
	out := make([]any, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...), true
}
