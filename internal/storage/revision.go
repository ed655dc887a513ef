package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/identity"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

// DefaultDocumentKey names the site document inside the revision table.
const DefaultDocumentKey = "site"

const revisionNamespace = "site_revision"

// Revision is one stored copy of the document.
type Revision struct {
	bun.BaseModel `bun:"table:site_revisions,alias:r"`

	ID          uuid.UUID `bun:",pk,type:uuid" json:"id"`
	DocumentKey string    `bun:"document_key,notnull" json:"documentKey"`
	Version     int64     `bun:"version,notnull" json:"version"`
	Checksum    string    `bun:"checksum,notnull" json:"checksum"`
	Payload     string    `bun:"payload,notnull" json:"-"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// Document decodes the stored payload.
func (r *Revision) Document() (content.Document, error) {
	if r == nil {
		return nil, ErrDocumentRequired
	}
	return content.Parse([]byte(r.Payload))
}

// NewRevisionRepository creates the go-repository-bun repository for revisions.
func NewRevisionRepository(db *bun.DB) repository.Repository[*Revision] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Revision]{
		NewRecord:          func() *Revision { return &Revision{} },
		GetID:              func(rev *Revision) uuid.UUID { return rev.ID },
		SetID:              func(rev *Revision, id uuid.UUID) { rev.ID = id },
		GetIdentifier:      func() string { return "checksum" },
		GetIdentifierValue: func(rev *Revision) string { return rev.Checksum },
	})
}

// RevisionStore appends a revision on every changed Save and loads the
// latest one. It satisfies ContentStore.
type RevisionStore struct {
	db     *bun.DB
	repo   repository.Repository[*Revision]
	cached repository.Repository[*Revision]

	cacheService cache.CacheService
	cachePrefix  string

	key    string
	limit  int
	now    func() time.Time
	logger interfaces.Logger

	mu sync.Mutex
}

type RevisionOption func(*RevisionStore)

// WithRevisionCache caches revision lookups by id. Revisions are immutable
// so only Prune needs to invalidate.
func WithRevisionCache(cacheService cache.CacheService, serializer cache.KeySerializer) RevisionOption {
	return func(s *RevisionStore) {
		if cacheService == nil || serializer == nil {
			return
		}
		s.cached = repositorycache.New(s.repo, cacheService, serializer)
		s.cacheService = cacheService
		s.cachePrefix = revisionNamespace + cache.KeySeparator
	}
}

// WithRevisionLimit keeps at most n revisions after each append. Zero keeps all.
func WithRevisionLimit(n int) RevisionOption {
	return func(s *RevisionStore) {
		if n >= 0 {
			s.limit = n
		}
	}
}

func WithDocumentKey(key string) RevisionOption {
	return func(s *RevisionStore) {
		if key = strings.TrimSpace(key); key != "" {
			s.key = key
		}
	}
}

func WithRevisionClock(now func() time.Time) RevisionOption {
	return func(s *RevisionStore) {
		if now != nil {
			s.now = now
		}
	}
}

func WithRevisionLogger(logger interfaces.Logger) RevisionOption {
	return func(s *RevisionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewRevisionStore(db *bun.DB, opts ...RevisionOption) *RevisionStore {
	repo := NewRevisionRepository(db)
	s := &RevisionStore{
		db:     db,
		repo:   repo,
		cached: repo,
		key:    DefaultDocumentKey,
		now:    time.Now,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// EnsureSchema creates the revision table when missing.
func (s *RevisionStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*Revision)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("storage: create revision table: %w", err)
	}
	return nil
}

func (s *RevisionStore) Load(ctx context.Context) (content.Document, error) {
	latest, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return latest.Document()
}

func (s *RevisionStore) Save(ctx context.Context, doc content.Document) error {
	_, err := s.Append(ctx, doc)
	return err
}

// Append stores doc as a new revision. When doc matches the latest revision
// that revision is returned and nothing is written.
func (s *RevisionStore) Append(ctx context.Context, doc content.Document) (*Revision, error) {
	sum, raw, err := Checksum(doc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.Latest(ctx)
	var notFound *content.NotFoundError
	switch {
	case errors.As(err, &notFound):
		latest = nil
	case err != nil:
		return nil, err
	}
	if latest != nil && latest.Checksum == sum {
		return latest, nil
	}

	version := int64(1)
	if latest != nil {
		version = latest.Version + 1
	}
	rev := &Revision{
		ID:          identity.RevisionUUID(s.key, version),
		DocumentKey: s.key,
		Version:     version,
		Checksum:    sum,
		Payload:     string(raw),
		CreatedAt:   s.now().UTC(),
	}
	record, err := s.repo.Create(ctx, rev)
	if err != nil {
		return nil, fmt.Errorf("storage: create revision: %w", err)
	}
	s.logger.Info("storage.revision.saved", "document", s.key, "version", version, "checksum", sum[:12])

	if s.limit > 0 {
		if _, err := s.Prune(ctx, s.limit); err != nil {
			return record, err
		}
	}
	return record, nil
}

// Latest returns the newest revision.
func (s *RevisionStore) Latest(ctx context.Context) (*Revision, error) {
	records, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &content.NotFoundError{Resource: "revision", Key: s.key}
	}
	return records[0], nil
}

// List returns revisions newest first. A limit of zero returns all.
func (s *RevisionStore) List(ctx context.Context, limit int) ([]*Revision, error) {
	byKey := repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.document_key = ?", s.key)
	})
	newestFirst := repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.version DESC")
	})
	var (
		records []*Revision
		err     error
	)
	if limit > 0 {
		records, _, err = s.repo.List(ctx, byKey, newestFirst, repository.SelectPaginate(limit, 0))
	} else {
		records, _, err = s.repo.List(ctx, byKey, newestFirst)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list revisions: %w", err)
	}
	return records, nil
}

// Get returns the revision with id.
func (s *RevisionStore) Get(ctx context.Context, id uuid.UUID) (*Revision, error) {
	record, err := s.cached.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "revision", id.String())
	}
	if record.DocumentKey != s.key {
		return nil, &content.NotFoundError{Resource: "revision", Key: id.String()}
	}
	return record, nil
}

// Prune deletes all but the newest keep revisions and reports how many were
// removed.
func (s *RevisionStore) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	records, err := s.List(ctx, 0)
	if err != nil {
		return 0, err
	}
	if len(records) <= keep {
		return 0, nil
	}
	removed := 0
	for _, record := range records[keep:] {
		if err := s.repo.Delete(ctx, &Revision{ID: record.ID}); err != nil {
			return removed, fmt.Errorf("storage: prune revision %s: %w", record.ID, err)
		}
		removed++
	}
	if err := s.invalidateCache(ctx); err != nil {
		s.logger.Warn("storage.revision.cache_invalidate_failed", "error", err)
	}
	s.logger.Debug("storage.revision.pruned", "document", s.key, "removed", removed, "kept", keep)
	return removed, nil
}

func (s *RevisionStore) invalidateCache(ctx context.Context) error {
	if s.cacheService == nil || s.cachePrefix == "" {
		return nil
	}
	return s.cacheService.DeleteByPrefix(ctx, s.cachePrefix)
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &content.NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
