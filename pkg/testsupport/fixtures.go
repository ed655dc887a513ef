package testsupport

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-microsite/internal/content"
)

// LoadFixture reads a file relative to the calling package.
func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// LoadDocument reads and parses a site document fixture.
func LoadDocument(path string) (content.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := content.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return doc, nil
}

// CopyFixture copies src into dir and returns the new path.
func CopyFixture(src, dir string) (string, error) {
	raw, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, filepath.Base(src))
	if err := os.WriteFile(dst, raw, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}
