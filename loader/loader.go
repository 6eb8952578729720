// Package loader defines the single I/O seam the compiler core depends on.
// Everything else — globbing, watching, JSON5 file discovery — lives behind
// this interface in the driver, never inside lexer/parser/project/resolver/
// lower (§1).
package loader

import (
	"fmt"
	"sort"
	"strings"
)

// FileLoader reads file contents and lists directory entries by path, the
// only filesystem-shaped operations the core needs (reading include targets
// and file-backed resource sources).
type FileLoader interface {
	Load(path string) ([]byte, error)
	// Glob returns every loadable path matching pattern, sorted so callers
	// that want determinism can have it; the project assembler explicitly
	// does not rely on a particular glob order (§4.3).
	Glob(pattern string) ([]string, error)
}

// MemoryLoader is a map-backed FileLoader for tests and for embedders that
// assemble a project without touching disk.
type MemoryLoader struct {
	Files map[string]string
}

// NewMemoryLoader builds a MemoryLoader from a path→contents map.
func NewMemoryLoader(files map[string]string) *MemoryLoader {
	return &MemoryLoader{Files: files}
}

func (m *MemoryLoader) Load(path string) ([]byte, error) {
	content, ok := m.Files[path]
	if !ok {
		return nil, fmt.Errorf("loader: no such file %q", path)
	}
	return []byte(content), nil
}

// Glob implements a minimal subset of shell globbing: a single trailing `*`
// wildcard matching any suffix, or an exact path. Sufficient for the
// project assembler's include-glob and the resource file-copy glob forms
// (§4.3, §4.5.5); real recursive/bracket globbing stays in the driver.
func (m *MemoryLoader) Glob(pattern string) ([]string, error) {
	if !strings.Contains(pattern, "*") {
		if _, ok := m.Files[pattern]; !ok {
			return nil, fmt.Errorf("loader: no such file %q", pattern)
		}
		return []string{pattern}, nil
	}
	prefix, _, _ := strings.Cut(pattern, "*")
	var matches []string
	for path := range m.Files {
		if strings.HasPrefix(path, prefix) {
			matches = append(matches, path)
		}
	}
	sort.Strings(matches)
	return matches, nil
}
