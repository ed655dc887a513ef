package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/internal/runtimeconfig"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrDriverUnknown = errors.New("storage: unknown driver")

// Handle is an opened storage stack.
type Handle struct {
	Store ContentStore
	// Revisions is set for database drivers and when a snapshot DSN is configured.
	Revisions   *RevisionStore
	Snapshotter *Snapshotter

	closers []func() error
}

// Close stops the snapshotter and closes the databases.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	if h.Snapshotter != nil {
		h.Snapshotter.Stop()
	}
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

type openOptions struct {
	logger     interfaces.Logger
	seed       content.Document
	cache      repocache.CacheService
	serializer repocache.KeySerializer
}

type OpenOption func(*openOptions)

func WithLogger(logger interfaces.Logger) OpenOption {
	return func(o *openOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSeed sets the initial document of the memory driver.
func WithSeed(doc content.Document) OpenOption {
	return func(o *openOptions) {
		o.seed = doc
	}
}

// WithCacheService overrides the revision cache built from CacheTTL.
func WithCacheService(svc repocache.CacheService, serializer repocache.KeySerializer) OpenOption {
	return func(o *openOptions) {
		o.cache = svc
		o.serializer = serializer
	}
}

// Open builds the store for cfg.Driver. The snapshotter, when configured,
// is already running and stops with ctx or Close.
func Open(ctx context.Context, cfg runtimeconfig.StorageConfig, opts ...OpenOption) (*Handle, error) {
	options := openOptions{logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.cache == nil && cfg.CacheTTL > 0 {
		cacheCfg := repocache.DefaultConfig()
		cacheCfg.TTL = cfg.CacheTTL
		svc, err := repocache.NewCacheService(cacheCfg)
		if err != nil {
			return nil, fmt.Errorf("storage: cache service: %w", err)
		}
		options.cache = svc
		options.serializer = repocache.NewDefaultKeySerializer()
	}

	handle := &Handle{}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case DriverFile:
		handle.Store = NewFileStore(cfg.Path, WithFileLogger(options.logger))
	case DriverMemory, "":
		handle.Store = NewMemoryStore(options.seed)
	case DriverSQLite, DriverPostgres:
		revisions, closer, err := openRevisions(ctx, driver, cfg.DSN, cfg, options)
		if err != nil {
			return nil, err
		}
		handle.closers = append(handle.closers, closer)
		handle.Revisions = revisions
		handle.Store = revisions
	default:
		return nil, fmt.Errorf("%w: %s", ErrDriverUnknown, cfg.Driver)
	}

	if handle.Revisions == nil && strings.TrimSpace(cfg.SnapshotDSN) != "" {
		revisions, closer, err := openRevisions(ctx, DriverForDSN(cfg.SnapshotDSN), cfg.SnapshotDSN, cfg, options)
		if err != nil {
			_ = handle.Close()
			return nil, err
		}
		handle.closers = append(handle.closers, closer)
		handle.Revisions = revisions
	}

	if schedule := strings.TrimSpace(cfg.SnapshotSchedule); schedule != "" {
		if handle.Revisions == nil || driver == DriverSQLite || driver == DriverPostgres {
			options.logger.Warn("storage.snapshot.skipped", "reason", "no separate revision store", "driver", driver)
		} else {
			snap, err := NewSnapshotter(handle.Store, handle.Revisions, schedule, WithSnapshotLogger(options.logger))
			if err != nil {
				_ = handle.Close()
				return nil, err
			}
			if err := snap.Start(ctx); err != nil {
				_ = handle.Close()
				return nil, err
			}
			handle.Snapshotter = snap
		}
	}

	options.logger.Info("storage.opened", "driver", driver, "revisions", handle.Revisions != nil)
	return handle, nil
}

func openRevisions(ctx context.Context, driver, dsn string, cfg runtimeconfig.StorageConfig, options openOptions) (*RevisionStore, func() error, error) {
	db, err := OpenDB(driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	revisions := NewRevisionStore(db,
		WithRevisionLimit(cfg.RevisionLimit),
		WithRevisionLogger(options.logger),
		WithRevisionCache(options.cache, options.serializer),
	)
	if err := revisions.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return revisions, db.Close, nil
}

// OpenDB opens a bun database for the sqlite or postgres driver.
func OpenDB(driver, dsn string) (*bun.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("storage: dsn is required")
	}
	switch driver {
	case DriverSQLite:
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		db := bun.NewDB(sqlDB, sqlitedialect.New())
		db.SetMaxOpenConns(1)
		return db, nil
	case DriverPostgres:
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrDriverUnknown, driver)
	}
}

// DriverForDSN picks postgres for postgres URLs and sqlite otherwise.
func DriverForDSN(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}
