package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	manifestFileName    = ".generator-manifest.json"
	manifestFileVersion = 1
)

// buildManifest stores metadata about the last successful build to support incremental runs.
type buildManifest struct {
	Version     int                     `json:"version"`
	GeneratedAt time.Time               `json:"generated_at"`
	Pages       map[string]manifestPage `json:"pages"`
}

type manifestPage struct {
	PageID     string    `json:"page_id"`
	Route      string    `json:"route"`
	Output     string    `json:"output"`
	Checksum   string    `json:"checksum"`
	RenderedAt time.Time `json:"rendered_at"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version: manifestFileVersion,
		Pages:   map[string]manifestPage{},
	}
}

func parseManifest(data []byte) (*buildManifest, error) {
	if len(data) == 0 {
		return newBuildManifest(), nil
	}
	// Pages are written as a sorted list.
	var stored struct {
		Version     int            `json:"version"`
		GeneratedAt time.Time      `json:"generated_at"`
		Pages       []manifestPage `json:"pages"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	manifest := newBuildManifest()
	manifest.GeneratedAt = stored.GeneratedAt
	if stored.Version != 0 {
		manifest.Version = stored.Version
	}
	for _, page := range stored.Pages {
		manifest.setPage(page)
	}
	return manifest, nil
}

func (m *buildManifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	type orderedManifest struct {
		Version     int            `json:"version"`
		GeneratedAt time.Time      `json:"generated_at"`
		Pages       []manifestPage `json:"pages"`
	}
	ordered := orderedManifest{
		Version:     m.Version,
		GeneratedAt: m.GeneratedAt,
		Pages:       make([]manifestPage, 0, len(m.Pages)),
	}
	if ordered.Version == 0 {
		ordered.Version = manifestFileVersion
	}
	for _, entry := range m.Pages {
		ordered.Pages = append(ordered.Pages, entry)
	}
	sort.Slice(ordered.Pages, func(i, j int) bool {
		return ordered.Pages[i].Route < ordered.Pages[j].Route
	})
	return json.MarshalIndent(ordered, "", "  ")
}

func pageKey(route string) string {
	return strings.ToLower(strings.TrimSpace(route))
}

func (m *buildManifest) lookupPage(route string) (manifestPage, bool) {
	if m == nil || len(m.Pages) == 0 {
		return manifestPage{}, false
	}
	entry, ok := m.Pages[pageKey(route)]
	return entry, ok
}

func (m *buildManifest) setPage(entry manifestPage) {
	if m == nil {
		return
	}
	if m.Pages == nil {
		m.Pages = map[string]manifestPage{}
	}
	m.Pages[pageKey(entry.Route)] = entry
}

func (m *buildManifest) shouldSkipPage(route, checksum, output string) bool {
	entry, ok := m.lookupPage(route)
	if !ok {
		return false
	}
	if entry.Checksum != checksum {
		return false
	}
	return strings.TrimSpace(entry.Output) == strings.TrimSpace(output)
}

func loadManifest(outDir string) (*buildManifest, error) {
	data, err := os.ReadFile(filepath.Join(outDir, manifestFileName))
	if errors.Is(err, os.ErrNotExist) {
		return newBuildManifest(), nil
	}
	if err != nil {
		return nil, err
	}
	return parseManifest(data)
}

func persistManifest(outDir string, manifest *buildManifest) error {
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(outDir, manifestFileName), data)
}
