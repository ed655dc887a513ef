package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-microsite/internal/content"
)

var ErrDocumentRequired = errors.New("validation: document is required")

// DefaultPublicPrefix is the URL prefix of uploaded files.
const DefaultPublicPrefix = "/uploads/"

// Options controls the optional checks of ValidateDocument.
type Options struct {
	// UploadsDir enables the on-disk existence check for upload references.
	UploadsDir string
	// PublicPrefix is the URL prefix mapped onto UploadsDir.
	PublicPrefix string
	// RestoreMissing moves missing files back from QuarantineDir.
	RestoreMissing bool
	// QuarantineDir defaults to UploadsDir/.quarantine.
	QuarantineDir string
	// KnownTypes lists accepted section types. Legacy aliases are always
	// accepted. Defaults to the built-in section types.
	KnownTypes []string
}

// Report summarises a document check. Issues make the document invalid,
// warnings do not.
type Report struct {
	Issues     []ValidationIssue `json:"issues"`
	Warnings   []ValidationIssue `json:"warnings"`
	DataURIs   int               `json:"dataUris"`
	UploadRefs []string          `json:"uploadRefs"`
	Missing    []string          `json:"missing"`
	Restored   []string          `json:"restored,omitempty"`
}

// OK reports whether the document passed every blocking check.
func (r *Report) OK() bool {
	return r != nil && len(r.Issues) == 0 && r.DataURIs == 0 && len(r.Missing) == 0
}

// Err returns a PayloadValidationError carrying the blocking issues,
// missing uploads included, or nil when there are none.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	issues := append([]ValidationIssue(nil), r.Issues...)
	for _, ref := range r.Missing {
		issues = append(issues, ValidationIssue{Location: ref, Message: "uploaded file is missing"})
	}
	if len(issues) == 0 {
		return nil
	}
	return &PayloadValidationError{Issues: issues}
}

// ValidateSchemaOnly checks doc against the document schema and returns a
// PayloadValidationError on failure.
func ValidateSchemaOnly(doc content.Document) error {
	if doc == nil {
		return ErrDocumentRequired
	}
	normalized, err := normalizeDocument(doc)
	if err != nil {
		return err
	}
	schema, err := SiteSchema()
	if err != nil {
		return err
	}
	return validateCompiled(schema, normalized)
}

// ValidateDocument runs the schema, the semantic checks and the upload
// checks. The returned error is reserved for failures to run the checks.
func ValidateDocument(doc content.Document, opts Options) (*Report, error) {
	if doc == nil {
		return nil, ErrDocumentRequired
	}
	normalized, err := normalizeDocument(doc)
	if err != nil {
		return nil, err
	}
	schema, err := SiteSchema()
	if err != nil {
		return nil, err
	}

	report := &Report{
		Issues:     []ValidationIssue{},
		Warnings:   []ValidationIssue{},
		UploadRefs: []string{},
		Missing:    []string{},
	}
	if err := validateCompiled(schema, normalized); err != nil {
		report.Issues = append(report.Issues, Issues(err)...)
	}
	checkPages(normalized, opts, report)
	checkNavigation(normalized, report)
	scanStrings(normalized, opts, report)

	if opts.UploadsDir != "" {
		if err := checkUploads(opts, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func normalizeDocument(doc content.Document) (map[string]any, error) {
	raw, err := content.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return content.Parse(raw)
}

func checkPages(doc map[string]any, opts Options, report *Report) {
	pages, _ := doc["pages"].([]any)
	if len(pages) == 0 {
		report.Issues = append(report.Issues, ValidationIssue{Location: "/pages", Message: "at least one page is required"})
		return
	}
	known := knownTypes(opts.KnownTypes)
	seen := map[string]int{}
	for i, raw := range pages {
		page, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		base := "/pages/" + strconv.Itoa(i)
		if id, _ := page["id"].(string); id != "" {
			if first, dup := seen[id]; dup {
				report.Issues = append(report.Issues, ValidationIssue{
					Location: base + "/id",
					Message:  fmt.Sprintf("duplicate page id %q (first at /pages/%d)", id, first),
				})
			} else {
				seen[id] = i
			}
		}

		sections, _ := page["sections"].([]any)
		sectionIDs := map[string]struct{}{}
		for j, rawSection := range sections {
			section, ok := rawSection.(map[string]any)
			if !ok {
				continue
			}
			loc := base + "/sections/" + strconv.Itoa(j)
			sectionType, _ := section["type"].(string)
			if sectionType != "" {
				if _, ok := known[content.CanonicalType(sectionType)]; !ok {
					report.Warnings = append(report.Warnings, ValidationIssue{
						Location: loc + "/type",
						Message:  fmt.Sprintf("unknown section type %q is skipped when rendering", sectionType),
					})
				}
			}
			if id, _ := section["id"].(string); id != "" {
				if _, dup := sectionIDs[id]; dup {
					report.Warnings = append(report.Warnings, ValidationIssue{
						Location: loc + "/id",
						Message:  fmt.Sprintf("duplicate section id %q", id),
					})
				}
				sectionIDs[id] = struct{}{}
			}
		}
	}
}

func checkNavigation(doc map[string]any, report *Report) {
	pages := map[string]bool{}
	if list, ok := doc["pages"].([]any); ok {
		for _, raw := range list {
			if page, ok := raw.(map[string]any); ok {
				id, _ := page["id"].(string)
				hidden, _ := page["hidden"].(bool)
				pages[id] = hidden
			}
		}
	}
	nav, _ := doc["navigation"].([]any)
	for i, raw := range nav {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		pageID, _ := entry["pageId"].(string)
		if pageID == "" {
			continue
		}
		loc := "/navigation/" + strconv.Itoa(i) + "/pageId"
		hidden, exists := pages[pageID]
		switch {
		case !exists:
			report.Warnings = append(report.Warnings, ValidationIssue{Location: loc, Message: fmt.Sprintf("unknown page %q", pageID)})
		case hidden:
			report.Warnings = append(report.Warnings, ValidationIssue{Location: loc, Message: fmt.Sprintf("page %q is hidden", pageID)})
		}
	}
}

func scanStrings(doc map[string]any, opts Options, report *Report) {
	prefix := publicPrefix(opts)
	pattern := regexp.MustCompile(regexp.QuoteMeta(prefix) + `[A-Za-z0-9._\-/]+`)
	refs := map[string]struct{}{}

	walkStrings(doc, "", func(loc, value string) {
		if n := strings.Count(value, "data:image/"); n > 0 {
			report.DataURIs += n
			report.Issues = append(report.Issues, ValidationIssue{Location: loc, Message: "inline data URI, upload the file instead"})
		}
		for _, ref := range pattern.FindAllString(value, -1) {
			refs[strings.TrimRight(ref, ".")] = struct{}{}
		}
	})

	for ref := range refs {
		report.UploadRefs = append(report.UploadRefs, ref)
	}
	sort.Strings(report.UploadRefs)
}

func walkStrings(value any, loc string, fn func(loc, value string)) {
	switch typed := value.(type) {
	case string:
		fn(loc, typed)
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			walkStrings(typed[key], loc+"/"+escapePointer(key), fn)
		}
	case []any:
		for i, item := range typed {
			walkStrings(item, loc+"/"+strconv.Itoa(i), fn)
		}
	}
}

func checkUploads(opts Options, report *Report) error {
	prefix := publicPrefix(opts)
	var missing []string
	for _, ref := range report.UploadRefs {
		name := strings.TrimPrefix(ref, prefix)
		if _, err := os.Stat(filepath.Join(opts.UploadsDir, filepath.FromSlash(name))); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("validation: stat upload %s: %w", ref, err)
			}
			missing = append(missing, ref)
		}
	}

	if opts.RestoreMissing && len(missing) > 0 {
		quarantine := opts.QuarantineDir
		if quarantine == "" {
			quarantine = filepath.Join(opts.UploadsDir, ".quarantine")
		}
		index, err := indexQuarantine(quarantine)
		if err != nil {
			return err
		}
		still := missing[:0]
		for _, ref := range missing {
			base := filepath.Base(ref)
			src, ok := index[base]
			if !ok {
				still = append(still, ref)
				continue
			}
			dst := filepath.Join(opts.UploadsDir, base)
			if err := os.Rename(src, dst); err != nil {
				report.Warnings = append(report.Warnings, ValidationIssue{Location: ref, Message: "restore failed: " + err.Error()})
				still = append(still, ref)
				continue
			}
			report.Restored = append(report.Restored, ref)
		}
		missing = still
	}

	report.Missing = append(report.Missing, missing...)
	return nil
}

func indexQuarantine(dir string) (map[string]string, error) {
	index := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if !d.IsDir() {
			if _, ok := index[d.Name()]; !ok {
				index[d.Name()] = path
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("validation: scan quarantine: %w", err)
	}
	return index, nil
}

func knownTypes(explicit []string) map[string]struct{} {
	names := explicit
	if len(names) == 0 {
		names = content.TemplateTypes()
	}
	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		out[content.CanonicalType(name)] = struct{}{}
	}
	return out
}

func publicPrefix(opts Options) string {
	prefix := strings.TrimSpace(opts.PublicPrefix)
	if prefix == "" {
		return DefaultPublicPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

func escapePointer(token string) string {
	return strings.ReplaceAll(strings.ReplaceAll(token, "~", "~0"), "/", "~1")
}
