package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-microsite/internal/content"
)

// ErrUnsafeRoute is returned for routes escaping the output directory.
var ErrUnsafeRoute = errors.New("generator: unsafe route")

type route struct {
	PageID string
	Path   string
}

// siteRoutes maps "/" to the page behind a "/" navigation entry or the first
// page, then adds every visible navigation entry with a local path.
func siteRoutes(site *content.Site) []route {
	nav := site.VisibleNavigation()
	root := site.FirstPageID()
	for _, entry := range nav {
		if content.NormalisePath(entry.Path) == "/" {
			root = entry.PageID
			break
		}
	}

	routes := []route{{PageID: root, Path: "/"}}
	seen := map[string]struct{}{"/": {}}
	for _, entry := range nav {
		p, ok := localRoute(entry.Path)
		if !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		routes = append(routes, route{PageID: entry.PageID, Path: p})
	}
	return routes
}

func localRoute(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "://") {
		return "", false
	}
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return content.NormalisePath(raw), true
}

func filterRoutes(routes []route, pageIDs []string) []route {
	if len(pageIDs) == 0 {
		return routes
	}
	wanted := make(map[string]struct{}, len(pageIDs))
	for _, id := range pageIDs {
		wanted[strings.TrimSpace(id)] = struct{}{}
	}
	out := routes[:0:0]
	for _, r := range routes {
		if _, ok := wanted[r.PageID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// buildOutputPath converts a route into a slash separated file path.
func buildOutputPath(route string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(route), "/")
	if clean == "" {
		return "index.html", nil
	}
	for _, segment := range strings.Split(clean, "/") {
		if segment == ".." || segment == "." {
			return "", fmt.Errorf("%w: %s", ErrUnsafeRoute, route)
		}
	}
	return path.Join(clean, "index.html"), nil
}

func sortRendered(pages []RenderedPage) {
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Route < pages[j].Route
	})
}

// writeFile writes through a temporary sibling and renames it into place.
func writeFile(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("generator: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("generator: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("generator: write %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("generator: rename %s: %w", target, err)
	}
	return nil
}

// copyTree mirrors regular files from src into dst and returns how many were copied.
func copyTree(ctx context.Context, src, dst string) (int, error) {
	info, err := os.Stat(src)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("generator: uploads path %s is not a directory", src)
	}
	copied := 0
	err = filepath.WalkDir(src, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if err := copyFile(p, filepath.Join(dst, rel)); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
