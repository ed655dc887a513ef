package markdown

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-microsite/pkg/interfaces"
)

const defaultPattern = "*.md"

// LoaderConfig selects the Markdown files a Loader reads.
type LoaderConfig struct {
	// Pattern is matched against the file name. Defaults to "*.md".
	Pattern   string
	Recursive bool
}

// Loader reads Markdown files with front matter from a filesystem.
type Loader struct {
	fsys      fs.FS
	pattern   string
	recursive bool
}

func NewLoader(fsys fs.FS, cfg LoaderConfig) *Loader {
	pattern := strings.TrimSpace(cfg.Pattern)
	if pattern == "" {
		pattern = defaultPattern
	}
	return &Loader{fsys: fsys, pattern: pattern, recursive: cfg.Recursive}
}

// Read parses the file at name, a slash separated path inside the filesystem.
func (l *Loader) Read(ctx context.Context, name string) (*interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = path.Clean(name)
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("markdown loader: path %q escapes the base directory", name)
	}
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("markdown loader: read %s: %w", name, err)
	}
	info, err := fs.Stat(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("markdown loader: stat %s: %w", name, err)
	}
	doc, err := BuildDocument(name, data, info.ModTime())
	if err != nil {
		return nil, fmt.Errorf("markdown loader: %s: %w", name, err)
	}
	sum := sha256.Sum256(data)
	doc.Checksum = sum[:]
	return doc, nil
}

// Discover lists matching files below dir, sorted by path. Sub-directories
// are only entered when the loader is recursive.
func (l *Loader) Discover(ctx context.Context, dir string) ([]string, error) {
	root := path.Clean(dir)
	if !fs.ValidPath(root) {
		return nil, fmt.Errorf("markdown loader: path %q escapes the base directory", dir)
	}
	var names []string
	err := fs.WalkDir(l.fsys, root, func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			if name != root && !l.recursive {
				return fs.SkipDir
			}
			return nil
		}
		if ok, _ := path.Match(l.pattern, path.Base(name)); ok {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
