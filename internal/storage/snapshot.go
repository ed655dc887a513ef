package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

// RevisionAppender stores a document as a revision.
type RevisionAppender interface {
	Append(ctx context.Context, doc content.Document) (*Revision, error)
}

// Snapshotter copies the primary store into a revision store on a cron
// schedule.
type Snapshotter struct {
	source   ContentStore
	target   RevisionAppender
	schedule string
	logger   interfaces.Logger

	mu   sync.Mutex
	cron *cron.Cron
	runs int
}

type SnapshotOption func(*Snapshotter)

func WithSnapshotLogger(logger interfaces.Logger) SnapshotOption {
	return func(s *Snapshotter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSnapshotter validates schedule, a standard five field cron expression
// or a descriptor such as @hourly.
func NewSnapshotter(source ContentStore, target RevisionAppender, schedule string, opts ...SnapshotOption) (*Snapshotter, error) {
	if source == nil || target == nil {
		return nil, errors.New("storage: snapshot source and target are required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("storage: snapshot schedule %q: %w", schedule, err)
	}
	s := &Snapshotter{
		source:   source,
		target:   target,
		schedule: schedule,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Start runs snapshots until Stop is called or ctx is done.
func (s *Snapshotter) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.Run(ctx); err != nil {
			s.logger.Warn("storage.snapshot.failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("storage: schedule snapshot: %w", err)
	}
	c.Start()
	s.cron = c
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	s.logger.Info("storage.snapshot.scheduled", "schedule", s.schedule)
	return nil
}

// Stop halts the schedule and waits for a running snapshot to finish.
func (s *Snapshotter) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Run takes one snapshot now.
func (s *Snapshotter) Run(ctx context.Context) (*Revision, error) {
	doc, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	rev, err := s.target.Append(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	s.logger.Debug("storage.snapshot.taken", "version", rev.Version)
	return rev, nil
}

// Runs counts completed snapshots.
func (s *Snapshotter) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}
