package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-yaml"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DefaultWatchDebounce groups bursts of file events into one reload.
const DefaultWatchDebounce = 250 * time.Millisecond

// FileStore keeps the document in a single JSON or YAML file.
type FileStore struct {
	path     string
	format   string
	debounce time.Duration
	logger   interfaces.Logger

	mu           sync.Mutex
	lastChecksum string
}

type FileOption func(*FileStore)

// WithFormat overrides the format picked from the file extension.
func WithFormat(format string) FileOption {
	return func(s *FileStore) {
		switch strings.ToLower(strings.TrimSpace(format)) {
		case FormatYAML, "yml":
			s.format = FormatYAML
		case FormatJSON:
			s.format = FormatJSON
		}
	}
}

func WithWatchDebounce(d time.Duration) FileOption {
	return func(s *FileStore) {
		if d > 0 {
			s.debounce = d
		}
	}
}

func WithFileLogger(logger interfaces.Logger) FileOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewFileStore(path string, opts ...FileOption) *FileStore {
	s := &FileStore{
		path:     filepath.Clean(path),
		format:   formatFromPath(path),
		debounce: DefaultWatchDebounce,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Format returns FormatJSON or FormatYAML.
func (s *FileStore) Format() string { return s.format }

func (s *FileStore) Load(ctx context.Context) (content.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &content.NotFoundError{Resource: "document", Key: s.path}
		}
		return nil, fmt.Errorf("storage: read %s: %w", s.path, err)
	}
	doc, err := s.decode(raw)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lastChecksum = checksumBytes(raw)
	s.mu.Unlock()
	return doc, nil
}

func (s *FileStore) Save(ctx context.Context, doc content.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := s.Encode(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("storage: create dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(s.path, raw); err != nil {
		return fmt.Errorf("storage: write %s: %w", s.path, err)
	}
	s.lastChecksum = checksumBytes(raw)
	s.logger.Info("storage.file.saved", "path", s.path, "bytes", len(raw), "format", s.format)
	return nil
}

// Encode renders doc in the store's format.
func (s *FileStore) Encode(doc content.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrDocumentRequired
	}
	raw, err := content.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("storage: encode: %w", err)
	}
	if s.format != FormatYAML {
		return raw, nil
	}
	out, err := yaml.JSONToYAML(raw)
	if err != nil {
		return nil, fmt.Errorf("storage: encode yaml: %w", err)
	}
	return out, nil
}

func (s *FileStore) decode(raw []byte) (content.Document, error) {
	if s.format == FormatYAML {
		converted, err := yaml.YAMLToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", content.ErrInvalidDocument, err)
		}
		raw = converted
	}
	return content.Parse(raw)
}

// Watch calls fn with the reloaded document whenever the file changes on
// disk. Writes made through Save are not reported. Watching stops when ctx
// is done.
func (s *FileStore) Watch(ctx context.Context, fn func(content.Document)) error {
	if fn == nil {
		return errors.New("storage: watch callback is required")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("storage: watch: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("storage: watch %s: %w", dir, err)
	}

	debounced := debounce.New(s.debounce)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != s.path {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					debounced(func() {
						if ctx.Err() == nil {
							s.reload(fn)
						}
					})
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("storage.file.watch_error", "path", s.path, "error", err)
			}
		}
	}()
	s.logger.Debug("storage.file.watching", "path", s.path)
	return nil
}

func (s *FileStore) reload(fn func(content.Document)) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("storage.file.reload_failed", "path", s.path, "error", err)
		}
		return
	}
	sum := checksumBytes(raw)
	s.mu.Lock()
	if sum == s.lastChecksum {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	doc, err := s.decode(raw)
	if err != nil {
		s.logger.Warn("storage.file.reload_failed", "path", s.path, "error", err)
		return
	}
	s.mu.Lock()
	s.lastChecksum = sum
	s.mu.Unlock()
	s.logger.Info("storage.file.reloaded", "path", s.path)
	fn(doc)
}

func writeAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}
