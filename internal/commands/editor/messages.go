package editorcmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-microsite/internal/editor"
)

const editMessageType = "microsite.editor.edit"

// Edit kinds understood by EditHandler.
const (
	KindSetField          = "setField"
	KindSetLines          = "setLines"
	KindSelectPage        = "selectPage"
	KindAddSection        = "addSection"
	KindMoveSection       = "moveSection"
	KindRemoveSection     = "removeSection"
	KindAddHeroButton     = "addHeroButton"
	KindRemoveHeroButton  = "removeHeroButton"
	KindAddHeroSocial     = "addHeroSocial"
	KindRemoveHeroSocial  = "removeHeroSocial"
	KindAddSectionItem    = "addSectionItem"
	KindRemoveSectionItem = "removeSectionItem"
	KindApplyPatch        = "applyPatch"
	KindSave              = "save"
	KindImportMarkdown    = "importMarkdown"
	KindFlush             = "flush"
)

var kinds = []any{
	KindSetField, KindSetLines, KindSelectPage,
	KindAddSection, KindMoveSection, KindRemoveSection,
	KindAddHeroButton, KindRemoveHeroButton, KindAddHeroSocial, KindRemoveHeroSocial,
	KindAddSectionItem, KindRemoveSectionItem,
	KindApplyPatch, KindSave, KindImportMarkdown, KindFlush,
}

// EditCommand is a single editor action. Kind selects which of the remaining
// fields are read.
type EditCommand struct {
	Kind string `json:"kind"`
	// Path is a dotted string, a JSON pointer or an array of keys.
	Path        any             `json:"path,omitempty"`
	Value       any             `json:"value,omitempty"`
	Text        string          `json:"text,omitempty"`
	PageID      string          `json:"pageId,omitempty"`
	SectionType string          `json:"sectionType,omitempty"`
	Index       *int            `json:"index,omitempty"`
	Delta       int             `json:"delta,omitempty"`
	Item        *int            `json:"item,omitempty"`
	Patch       json.RawMessage `json:"patch,omitempty"`
	Source      string          `json:"source,omitempty"`
}

// Type implements command.Message.
func (EditCommand) Type() string { return editMessageType }

// Validate checks the fields each kind depends on.
func (cmd EditCommand) Validate() error {
	is := func(names ...string) bool {
		for _, name := range names {
			if cmd.Kind == name {
				return true
			}
		}
		return false
	}
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Kind, validation.Required, validation.In(kinds...).
			ErrorObject(validation.NewError("microsite.editor.kind_unknown", "unknown edit kind"))),
		validation.Field(&cmd.Path, validation.When(is(KindSetField, KindSetLines),
			validation.By(func(any) error {
				if _, err := cmd.ResolvePath(); err != nil {
					return validation.NewError("microsite.editor.path_invalid", err.Error())
				}
				return nil
			}))),
		validation.Field(&cmd.PageID, validation.When(is(KindSelectPage),
			validation.Required.ErrorObject(validation.NewError("microsite.editor.page_required", "page id is required")))),
		validation.Field(&cmd.SectionType, validation.When(is(KindAddSection),
			validation.Required.ErrorObject(validation.NewError("microsite.editor.section_type_required", "section type is required")))),
		validation.Field(&cmd.Index, validation.When(
			is(KindMoveSection, KindRemoveSection, KindRemoveHeroButton, KindRemoveHeroSocial, KindAddSectionItem, KindRemoveSectionItem),
			validation.NotNil.ErrorObject(validation.NewError("microsite.editor.index_required", "index is required")),
			validation.Min(0),
		)),
		validation.Field(&cmd.Delta, validation.When(is(KindMoveSection),
			validation.Required.ErrorObject(validation.NewError("microsite.editor.delta_required", "delta must be non zero")))),
		validation.Field(&cmd.Item, validation.When(is(KindRemoveSectionItem),
			validation.NotNil.ErrorObject(validation.NewError("microsite.editor.item_required", "item is required")),
			validation.Min(0),
		)),
		validation.Field(&cmd.Patch, validation.When(is(KindApplyPatch),
			validation.Required.ErrorObject(validation.NewError("microsite.editor.patch_required", "patch is required")))),
		validation.Field(&cmd.Source, validation.When(is(KindImportMarkdown),
			validation.By(func(any) error {
				if strings.TrimSpace(cmd.Source) == "" {
					return validation.NewError("microsite.editor.source_required", "markdown source is required")
				}
				return nil
			}))),
	)
}

// ResolvePath converts Path into an editor.Path.
func (cmd EditCommand) ResolvePath() (editor.Path, error) {
	switch path := cmd.Path.(type) {
	case nil:
		return nil, fmt.Errorf("%w: path is required", editor.ErrInvalidPath)
	case string:
		return editor.ParsePath(path)
	case editor.Path:
		if len(path) == 0 {
			return nil, fmt.Errorf("%w: path is required", editor.ErrInvalidPath)
		}
		return editor.PathFrom(path)
	case []any:
		if len(path) == 0 {
			return nil, fmt.Errorf("%w: path is required", editor.ErrInvalidPath)
		}
		return editor.PathFrom(path)
	case []string:
		segments := make([]any, len(path))
		for i, segment := range path {
			segments[i] = segment
		}
		return editor.PathFrom(segments)
	default:
		return nil, fmt.Errorf("%w: unsupported path %T", editor.ErrInvalidPath, cmd.Path)
	}
}

// DecodeEditCommand reads a command from JSON. Numbers stay json.Number so
// values and path indexes keep their precision.
func DecodeEditCommand(data []byte) (EditCommand, error) {
	var cmd EditCommand
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&cmd); err != nil {
		return EditCommand{}, err
	}
	if dec.More() {
		return EditCommand{}, errors.New("editor command: trailing data")
	}
	return cmd, nil
}
