package gologger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

// ErrUnsupportedFormat is returned by NewProvider for unknown output formats.
var ErrUnsupportedFormat = errors.New("gologger: unsupported format")

// Config mirrors the logging section of the microsite runtime config.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

var levels = map[string]string{
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

func formatOption(format string) (glog.Option, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return glog.WithLoggerTypeJSON(), nil
	case "console":
		return glog.WithLoggerTypeConsole(), nil
	case "pretty":
		return glog.WithLoggerTypePretty(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func (cfg Config) options() ([]glog.Option, error) {
	format, err := formatOption(cfg.Format)
	if err != nil {
		return nil, err
	}
	opts := []glog.Option{format}
	if level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]; ok {
		opts = append(opts, glog.WithLevel(level))
	}
	if cfg.AddSource {
		opts = append(opts, glog.WithAddSource(true))
	}
	return opts, nil
}

// Provider hands out go-logger children keyed by component name
// (microsite.editor, microsite.http). Children are built once per name.
type Provider struct {
	root     *glog.BaseLogger
	children sync.Map
}

// NewProvider builds the root logger. Focus names limit output to the listed
// components.
func NewProvider(cfg Config) (*Provider, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	root := glog.NewLogger(opts...)
	var focus []string
	for _, name := range cfg.Focus {
		if name = strings.TrimSpace(name); name != "" {
			focus = append(focus, name)
		}
	}
	if len(focus) > 0 {
		root.Focus(focus...)
	}
	return &Provider{root: root}, nil
}

// GetLogger returns the child for name, or the root logger for a blank name.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return newSiteLogger(p.root)
	}
	if cached, ok := p.children.Load(name); ok {
		return cached.(interfaces.Logger)
	}
	child, _ := p.children.LoadOrStore(name, newSiteLogger(p.root.GetLogger(name)))
	return child.(interfaces.Logger)
}

// siteLogger exposes a glog.Logger as interfaces.Logger.
type siteLogger struct {
	glog.Logger
}

func newSiteLogger(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return siteLogger{Logger: inner}
}

type pairLogger interface {
	With(args ...any) *glog.BaseLogger
}

func (l siteLogger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	if with, ok := l.Logger.(glog.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		return newSiteLogger(with.WithFields(copied))
	}
	if with, ok := l.Logger.(pairLogger); ok {
		return newSiteLogger(with.With(fieldPairs(fields)...))
	}
	return l
}

func (l siteLogger) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return l
	}
	return newSiteLogger(l.Logger.WithContext(ctx))
}

// fieldPairs flattens fields into sorted key/value arguments.
func fieldPairs(fields map[string]any) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, fields[k])
	}
	return pairs
}
