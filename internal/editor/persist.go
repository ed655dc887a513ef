package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/uploads"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

var (
	ErrNothingUploaded = errors.New("editor: upload returned no url")
	ErrInvalidPatch    = errors.New("editor: invalid patch")
)

// Uploader stores an uploaded image and reports its public URLs.
type Uploader interface {
	Upload(ctx context.Context, req uploads.Request) (*uploads.Result, error)
}

// Saver persists a full document.
type Saver interface {
	Save(ctx context.Context, doc content.Document) error
}

// ApplyUpload waits for uploader and writes the resulting URL at path. When
// the current value is an image object its crop and other keys are kept.
// Failures leave the draft untouched.
func (s *Store) ApplyUpload(ctx context.Context, uploader Uploader, path Path, req uploads.Request) (*uploads.Result, error) {
	if uploader == nil {
		return nil, errors.New("editor: uploader is required")
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	result, err := uploader.Upload(ctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil || strings.TrimSpace(result.URL) == "" {
		return nil, ErrNothingUploaded
	}

	current, _ := s.Value(path)
	value := uploadValue(current, result)
	if err := s.SetField(path, value); err != nil {
		return nil, err
	}
	s.requestPanel(false)
	s.logger.Info("editor.upload.applied", "path", path.String(), "url", result.URL)
	return result, nil
}

func uploadValue(current any, result *uploads.Result) any {
	obj, ok := current.(map[string]any)
	if !ok {
		if result.Thumb == "" {
			return result.URL
		}
		return map[string]any{"src": result.URL, "thumb": result.Thumb}
	}
	for _, key := range []string{"url", "href", "path", "full", "original"} {
		delete(obj, key)
	}
	obj["src"] = result.URL
	if result.Thumb != "" {
		obj["thumb"] = result.Thumb
	} else {
		delete(obj, "thumb")
	}
	return obj
}

// Save writes the draft through saver. On success the draft becomes the
// saved baseline used by Diff. Failures leave both untouched.
func (s *Store) Save(ctx context.Context, saver Saver) error {
	if saver == nil {
		return errors.New("editor: saver is required")
	}
	snapshot := s.Draft()
	if err := saver.Save(ctx, snapshot); err != nil {
		s.logger.Error("editor.save.failed", "error", err)
		return err
	}
	s.mu.Lock()
	s.saved = content.Clone(snapshot)
	s.mu.Unlock()
	s.logger.Info("editor.save.completed", "page_id", s.PageID())
	return nil
}

// ApplyPatch applies an RFC 6902 patch to the draft. Either every operation
// applies or the draft is left as it was.
func (s *Store) ApplyPatch(raw []byte) error {
	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	s.mu.Lock()
	encoded, err := content.Marshal(s.draft)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	patched, err := patch.Apply(encoded)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	doc, err := content.Parse(patched)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	s.draft = doc
	if _, idx := findPage(s.draft, s.pageID); idx < 0 {
		s.pageID = firstPageID(s.draft)
	}
	s.mu.Unlock()
	s.changed(UpdateOptions{RerenderPanel: true})
	return nil
}

// DiffOp marks a diff line.
type DiffOp string

const (
	DiffEqual  DiffOp = " "
	DiffInsert DiffOp = "+"
	DiffDelete DiffOp = "-"
)

// DiffLine is one line of a document diff.
type DiffLine struct {
	Op   DiffOp `json:"op"`
	Text string `json:"text"`
}

// DocumentDiff is a line diff between two pretty printed documents.
type DocumentDiff struct {
	Lines []DiffLine `json:"lines"`
}

// Changed reports whether any line was inserted or deleted.
func (d DocumentDiff) Changed() bool {
	for _, line := range d.Lines {
		if line.Op != DiffEqual {
			return true
		}
	}
	return false
}

// String renders only the changed lines with +/- markers.
func (d DocumentDiff) String() string {
	return d.Format(false)
}

// Format renders the diff, optionally keeping unchanged lines.
func (d DocumentDiff) Format(withContext bool) string {
	var b strings.Builder
	for _, line := range d.Lines {
		if line.Op == DiffEqual && !withContext {
			continue
		}
		b.WriteString(string(line.Op))
		b.WriteByte(' ')
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// Diff compares the saved baseline with the draft.
func (s *Store) Diff() (DocumentDiff, error) {
	s.mu.Lock()
	saved := content.Clone(s.saved)
	draft := content.Clone(s.draft)
	s.mu.Unlock()
	return DiffDocuments(saved, draft)
}

// DiffDocuments line diffs the pretty JSON of two documents.
func DiffDocuments(from, to content.Document) (DocumentDiff, error) {
	a, err := content.Marshal(from)
	if err != nil {
		return DocumentDiff{}, err
	}
	b, err := content.Marshal(to)
	if err != nil {
		return DocumentDiff{}, err
	}
	return DiffText(string(a), string(b)), nil
}

// DiffText line diffs two texts.
func DiffText(from, to string) DocumentDiff {
	dmp := diffpatch.New()
	charsA, charsB, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(charsA, charsB, false), lines)

	out := DocumentDiff{Lines: []DiffLine{}}
	for _, diff := range diffs {
		op := DiffEqual
		switch diff.Type {
		case diffpatch.DiffInsert:
			op = DiffInsert
		case diffpatch.DiffDelete:
			op = DiffDelete
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			out.Lines = append(out.Lines, DiffLine{Op: op, Text: strings.TrimSuffix(line, "\n")})
		}
	}
	return out
}

// Export returns the draft as indented JSON.
func (s *Store) Export() ([]byte, error) {
	return content.Marshal(s.Draft())
}
