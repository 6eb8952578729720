package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestFsLoaderLoadReadsRootRelativeFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.zog"), []byte("namespace ns\n"), 0o644))

	l := newFsLoader(dir)
	got, err := l.Load("main.zog")
	require.NoError(t, err)
	require.Equal(t, "namespace ns\n", string(got))
}

func TestFsLoaderGlobReturnsSortedRootRelativePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "parts"), 0o755))
	for _, name := range []string{"parts/b.zog", "parts/a.zog"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("fn x {}\n"), 0o644))
	}

	l := newFsLoader(dir)
	got, err := l.Glob("parts/*")
	require.NoError(t, err)

	want := []string{"parts/a.zog", "parts/b.zog"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("glob result mismatch (-want +got):\n%s", diff)
	}
}

func TestFsLoaderLoadMissingFileReportsError(t *testing.T) {
	l := newFsLoader(t.TempDir())
	_, err := l.Load("missing.zog")
	require.Error(t, err)
}
