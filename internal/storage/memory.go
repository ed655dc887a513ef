package storage

import (
	"context"
	"sync"

	"github.com/goliatone/go-microsite/internal/content"
)

// MemoryStore keeps the document in process. Load and Save copy.
type MemoryStore struct {
	mu  sync.RWMutex
	doc content.Document
}

func NewMemoryStore(seed content.Document) *MemoryStore {
	return &MemoryStore{doc: content.Clone(seed)}
}

func (s *MemoryStore) Load(ctx context.Context) (content.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, &content.NotFoundError{Resource: "document", Key: "memory"}
	}
	return content.Clone(s.doc), nil
}

func (s *MemoryStore) Save(ctx context.Context, doc content.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentRequired
	}
	clone := content.Clone(doc)
	s.mu.Lock()
	s.doc = clone
	s.mu.Unlock()
	return nil
}
