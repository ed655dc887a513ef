package render

import (
	"sync"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

// Update describes a change of the live copy.
type Update struct {
	Version uint64 `json:"version"`
	PageID  string `json:"pageId"`
}

// LiveState holds the document pages are rendered from. It stores and hands
// out structural clones only, so neither publishers nor readers can reach
// into each other's copy.
type LiveState struct {
	mu          sync.RWMutex
	doc         content.Document
	pageID      string
	version     uint64
	nextID      uint64
	subscribers map[uint64]func(Update)
	logger      interfaces.Logger
}

// LiveOption configures a LiveState.
type LiveOption func(*LiveState)

// WithLiveLogger sets the logger.
func WithLiveLogger(logger interfaces.Logger) LiveOption {
	return func(s *LiveState) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewLiveState seeds the live copy with doc.
func NewLiveState(doc content.Document, opts ...LiveOption) *LiveState {
	s := &LiveState{
		doc:         content.Clone(doc),
		subscribers: map[uint64]func(Update){},
		logger:      logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.pageID = pageOrFirst(s.doc, "")
	return s
}

// Publish replaces the live copy with a clone of doc and notifies
// subscribers. The selected page is kept when it still exists.
func (s *LiveState) Publish(doc content.Document) {
	clone := content.Clone(doc)
	s.mu.Lock()
	s.doc = clone
	s.pageID = pageOrFirst(clone, s.pageID)
	s.version++
	update := Update{Version: s.version, PageID: s.pageID}
	subscribers := s.snapshotSubscribers()
	s.mu.Unlock()

	s.logger.Debug("render.live.published", "version", update.Version, "page_id", update.PageID)
	for _, fn := range subscribers {
		fn(update)
	}
}

// Current returns a clone of the live copy.
func (s *LiveState) Current() content.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return content.Clone(s.doc)
}

// Version counts publishes.
func (s *LiveState) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// PageID returns the selected page.
func (s *LiveState) PageID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageID
}

// SelectPage points the live view at pageID and returns the id actually
// selected, which is the first page when pageID is unknown.
func (s *LiveState) SelectPage(pageID string) string {
	s.mu.Lock()
	selected := pageOrFirst(s.doc, pageID)
	if selected == s.pageID {
		s.mu.Unlock()
		return selected
	}
	s.pageID = selected
	update := Update{Version: s.version, PageID: selected}
	subscribers := s.snapshotSubscribers()
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(update)
	}
	return selected
}

// Subscribe registers fn for updates and returns a cancel function.
func (s *LiveState) Subscribe(fn func(Update)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

func (s *LiveState) snapshotSubscribers() []func(Update) {
	out := make([]func(Update), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		out = append(out, fn)
	}
	return out
}

func pageOrFirst(doc content.Document, pageID string) string {
	pages, _ := doc["pages"].([]any)
	first := ""
	for _, raw := range pages {
		page, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, _ := page["id"].(string)
		if first == "" {
			first = id
		}
		if pageID != "" && id == pageID {
			return id
		}
	}
	if first == "" {
		return content.DefaultPageID
	}
	return first
}
