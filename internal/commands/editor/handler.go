package editorcmd

import (
	"context"
	"errors"
	"fmt"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-microsite/internal/commands"
	"github.com/goliatone/go-microsite/internal/editor"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

const editOperation = "editor.edit"

var (
	// ErrSaveNotConfigured is returned for save commands when no saver was wired.
	ErrSaveNotConfigured = errors.New("editor command: save is not configured")
	// ErrImportNotConfigured is returned for importMarkdown when no importer was wired.
	ErrImportNotConfigured = errors.New("editor command: markdown import is not configured")
	// ErrUnknownKind is returned for kinds the handler does not apply.
	ErrUnknownKind = errors.New("editor command: unknown kind")
)

var _ command.Commander[EditCommand] = (*EditHandler)(nil)

// PageImporter turns a source document into a page object.
type PageImporter interface {
	ImportPage(source []byte) (map[string]any, error)
}

// EditHandler applies edit commands to a draft store.
type EditHandler struct {
	inner *commands.Handler[EditCommand]
}

// NewEditHandler binds a handler to store. saver and importer may be nil, in
// which case the matching kinds fail.
func NewEditHandler(store *editor.Store, saver editor.Saver, importer PageImporter, logger interfaces.Logger, opts ...commands.HandlerOption[EditCommand]) *EditHandler {
	if store == nil {
		panic("editor command: store cannot be nil")
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg EditCommand) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return apply(ctx, store, saver, importer, baseLogger, msg)
	}

	handlerOpts := []commands.HandlerOption[EditCommand]{
		commands.WithLogger[EditCommand](baseLogger),
		commands.WithOperation[EditCommand](editOperation),
		commands.WithMessageFields(func(msg EditCommand) map[string]any {
			fields := map[string]any{
				"kind":    msg.Kind,
				"page_id": store.PageID(),
			}
			if path, err := msg.ResolvePath(); err == nil {
				fields["path"] = path.String()
			}
			if msg.Index != nil {
				fields["index"] = *msg.Index
			}
			if msg.SectionType != "" {
				fields["section_type"] = msg.SectionType
			}
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &EditHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[EditCommand].
func (h *EditHandler) Execute(ctx context.Context, msg EditCommand) error {
	return h.inner.Execute(ctx, msg)
}

func apply(ctx context.Context, store *editor.Store, saver editor.Saver, importer PageImporter, logger interfaces.Logger, msg EditCommand) error {
	switch msg.Kind {
	case KindSetField, KindSetLines:
		path, err := msg.ResolvePath()
		if err != nil {
			return err
		}
		if msg.Kind == KindSetLines {
			return store.SetLines(path, msg.Text)
		}
		return store.SetField(path, msg.Value)
	case KindSelectPage:
		return store.SelectPage(msg.PageID)
	case KindAddSection:
		id, err := store.AddSection(msg.SectionType)
		if err != nil {
			return err
		}
		logger.Debug("editor.section.added", "section_id", id, "section_type", msg.SectionType)
		return nil
	case KindMoveSection:
		return store.MoveSection(*msg.Index, msg.Delta)
	case KindRemoveSection:
		return store.RemoveSection(*msg.Index)
	case KindAddHeroButton:
		return store.AddHeroButton()
	case KindRemoveHeroButton:
		return store.RemoveHeroButton(*msg.Index)
	case KindAddHeroSocial:
		return store.AddHeroSocial()
	case KindRemoveHeroSocial:
		return store.RemoveHeroSocial(*msg.Index)
	case KindAddSectionItem:
		return store.AddSectionItem(*msg.Index)
	case KindRemoveSectionItem:
		return store.RemoveSectionItem(*msg.Index, *msg.Item)
	case KindApplyPatch:
		return store.ApplyPatch(msg.Patch)
	case KindSave:
		if saver == nil {
			return ErrSaveNotConfigured
		}
		return store.Save(ctx, saver)
	case KindImportMarkdown:
		if importer == nil {
			return ErrImportNotConfigured
		}
		page, err := importer.ImportPage([]byte(msg.Source))
		if err != nil {
			return err
		}
		id, err := store.AddPage(page)
		if err != nil {
			return err
		}
		logger.Info("editor.page.imported", "page_id", id)
		return nil
	case KindFlush:
		store.Flush()
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, msg.Kind)
}
