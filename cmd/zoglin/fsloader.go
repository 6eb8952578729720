package main

import (
	"os"
	"path/filepath"
	"sort"
)

// fsLoader is the driver's loader.FileLoader implementation: the only place
// this program touches the real filesystem. The core never imports os
// itself (§1's non-goal: "the CLI driver's actual filesystem I/O... is out
// of scope for the core").
type fsLoader struct {
	root string
}

func newFsLoader(root string) *fsLoader {
	return &fsLoader{root: root}
}

func (l *fsLoader) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.root, p)
}

func (l *fsLoader) Load(p string) ([]byte, error) {
	return os.ReadFile(l.resolve(p))
}

func (l *fsLoader) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(l.resolve(pattern))
	if err != nil {
		return nil, err
	}
	rel := make([]string, 0, len(matches))
	for _, m := range matches {
		r, relErr := filepath.Rel(l.root, m)
		if relErr != nil {
			r = m
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	sort.Strings(rel)
	return rel, nil
}
