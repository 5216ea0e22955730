package engine

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFile creates root/rel with content, creating parent directories.
func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// tempRoot returns a temp directory with symlinks resolved, matching how
// Run normalises roots.
func tempRoot(t *testing.T) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

// collectIndex drains an indexer and returns candidates sorted by path.
func collectIndex(t *testing.T, cfg IndexerConfig) ([]Candidate, []Warning) {
	t.Helper()

	candCh, warnCh := NewIndexer(cfg).Index(context.Background())

	var cands []Candidate
	done := make(chan struct{})
	go func() {
		for c := range candCh {
			cands = append(cands, c)
		}
		close(done)
	}()

	var warns []Warning
	for w := range warnCh {
		warns = append(warns, w)
	}
	<-done

	slices.SortFunc(cands, func(a, b Candidate) int {
		if a.Path < b.Path {
			return -1
		}
		if a.Path > b.Path {
			return 1
		}
		return 0
	})
	return cands, warns
}

func candidatePaths(cands []Candidate) []string {
	paths := make([]string, len(cands))
	for i, c := range cands {
		paths[i] = c.Path
	}
	return paths
}

func fileExists(t *testing.T, path string) bool {
	t.Helper()

	_, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return false
	}
	require.NoError(t, err)
	return true
}
