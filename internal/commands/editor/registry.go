package editorcmd

import (
	"errors"

	"github.com/goliatone/go-microsite/internal/commands"
	"github.com/goliatone/go-microsite/internal/editor"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the editor command handlers produced by RegisterEditorCommands.
type HandlerSet struct {
	Edit *EditHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	saver       editor.Saver
	importer    PageImporter
	handlerOpts []commands.HandlerOption[EditCommand]
}

// WithSaver enables the save kind.
func WithSaver(saver editor.Saver) Option {
	return func(cfg *options) {
		cfg.saver = saver
	}
}

// WithImporter enables the importMarkdown kind.
func WithImporter(importer PageImporter) Option {
	return func(cfg *options) {
		cfg.importer = importer
	}
}

// WithHandlerOptions forwards options to the EditHandler constructor.
func WithHandlerOptions(opts ...commands.HandlerOption[EditCommand]) Option {
	return func(cfg *options) {
		cfg.handlerOpts = append(cfg.handlerOpts, opts...)
	}
}

// RegisterEditorCommands builds the edit handler for store and registers it
// with reg when one is supplied.
func RegisterEditorCommands(reg CommandRegistry, store *editor.Store, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if store == nil {
		return nil, errors.New("editor command registration: store is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "editor")
	edit := NewEditHandler(store, cfg.saver, cfg.importer, logger, cfg.handlerOpts...)

	if reg != nil {
		if err := reg.RegisterCommand(edit); err != nil {
			return nil, err
		}
	}

	return &HandlerSet{Edit: edit}, nil
}
