package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ddupe/internal/event"
	"github.com/bamsammich/ddupe/internal/stats"
)

type alwaysYes struct{}

func (alwaysYes) Confirm(context.Context, Preview) (bool, error) { return true, nil }

// seedTree writes a tree with two duplicate groups, a same-size non-duplicate,
// zero-byte files and a unique file.
//
//	a/one.txt, b/one.txt, c/deep/one.txt  "hello duplicate world" (3 copies)
//	big1.bin, big2.bin                    8 KiB identical
//	same-size-1, same-size-2              same size, one byte apart
//	empty1, empty2                        zero bytes
//	unique.txt
func seedTree(t *testing.T) string {
	t.Helper()

	root := tempRoot(t)
	for _, p := range []string{"a/one.txt", "b/one.txt", "c/deep/one.txt"} {
		writeFile(t, root, p, "hello duplicate world")
	}
	big := strings.Repeat("0123456789ABCDEF", 512)
	writeFile(t, root, "big1.bin", big)
	writeFile(t, root, "big2.bin", big)
	writeFile(t, root, "same-size-1", "abcdefgh-X")
	writeFile(t, root, "same-size-2", "abcdefgh-Y")
	writeFile(t, root, "empty1", "")
	writeFile(t, root, "empty2", "")
	writeFile(t, root, "unique.txt", "nobody else has this")
	return root
}

func runOK(t *testing.T, cfg Config) *RunReport {
	t.Helper()

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Report)
	return res.Report
}

func TestRun_DryRunFindsGroups(t *testing.T) {
	root := seedTree(t)

	rep := runOK(t, Config{Roots: []string{root}, Mode: ModeDryRun, Workers: 2})

	require.Len(t, rep.Groups, 2)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, []string{root}, rep.Roots)
	assert.True(t, rep.Success())

	// 8 KiB savings outrank 2 × 21 bytes.
	assert.Equal(t, int64(8192), rep.Groups[0].Size)
	assert.Equal(t, filepath.Join(root, "big1.bin"), rep.Groups[0].Keeper().Path)

	three := rep.Groups[1]
	require.Len(t, three.Files, 3)
	assert.Equal(t, filepath.Join(root, "a/one.txt"), three.Keeper().Path)
	assert.Equal(t, int64(42), three.Reclaimable)

	assert.Equal(t, int64(8192+42), rep.BytesReclaimable)
	assert.Equal(t, int64(10), rep.FilesIndexed)
	assert.Zero(t, rep.BytesFreed)
}

func TestRun_NoFalsePositives(t *testing.T) {
	root := seedTree(t)
	rep := runOK(t, Config{Roots: []string{root}, Mode: ModeDryRun})

	for _, g := range rep.Groups {
		var names []string
		for _, f := range g.Files {
			names = append(names, filepath.Base(f.Path))
		}
		assert.NotContains(t, names, "same-size-1")
		assert.NotContains(t, names, "same-size-2")
		assert.NotContains(t, names, "empty1")
		assert.NotContains(t, names, "empty2")
	}
}

func TestRun_ZeroByteFilesNeverGroup(t *testing.T) {
	root := tempRoot(t)
	for _, name := range []string{"e1", "e2", "e3", "sub/e4"} {
		writeFile(t, root, name, "")
	}
	rep := runOK(t, Config{Roots: []string{root}, Mode: ModeDryRun})
	assert.Empty(t, rep.Groups)
	assert.Equal(t, int64(4), rep.FilesIndexed)
}

func TestRun_DryRunIsRepeatableAndNonMutating(t *testing.T) {
	root := seedTree(t)
	before := snapshotTree(t, root)

	r1 := runOK(t, Config{Roots: []string{root}, Mode: ModeDryRun})
	r2 := runOK(t, Config{Roots: []string{root}, Mode: ModeDryRun})

	assert.Equal(t, before, snapshotTree(t, root))
	assert.Equal(t, r1.Groups, r2.Groups)
	assert.Equal(t, r1.BytesReclaimable, r2.BytesReclaimable)
	assert.Equal(t, r1.FilesIndexed, r2.FilesIndexed)
	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestRun_BatchThenIdempotent(t *testing.T) {
	root := seedTree(t)

	rep := runOK(t, Config{Roots: []string{root}, Mode: ModeBatchConfirm, Confirmer: alwaysYes{}})
	assert.True(t, rep.Success())
	assert.Equal(t, int64(3), rep.FilesDeleted)
	assertFreedAccounting(t, rep)

	assert.True(t, fileExists(t, filepath.Join(root, "a/one.txt")))
	assert.False(t, fileExists(t, filepath.Join(root, "b/one.txt")))
	assert.False(t, fileExists(t, filepath.Join(root, "c/deep/one.txt")))
	assert.True(t, fileExists(t, filepath.Join(root, "big1.bin")))
	assert.False(t, fileExists(t, filepath.Join(root, "big2.bin")))
	assert.True(t, fileExists(t, filepath.Join(root, "same-size-1")))
	assert.True(t, fileExists(t, filepath.Join(root, "same-size-2")))

	again := runOK(t, Config{Roots: []string{root}, Mode: ModeBatchConfirm, Confirmer: alwaysYes{}})
	assert.Empty(t, again.Groups)
	assert.Zero(t, again.FilesDeleted)
}

func TestRun_HashErrorDoesNotAffectSiblings(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read unreadable files")
	}
	root := tempRoot(t)
	a := writeFile(t, root, "a", "identical")
	b := writeFile(t, root, "b", "identical")
	locked := writeFile(t, root, "c", "identical")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	rep := runOK(t, Config{Roots: []string{root}, Mode: ModeDryRun})

	require.Len(t, rep.Groups, 1)
	var paths []string
	for _, f := range rep.Groups[0].Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{a, b}, paths)

	require.Len(t, rep.Warnings, 1)
	assert.Equal(t, StageHash, rep.Warnings[0].Stage)
	assert.Equal(t, locked, rep.Warnings[0].Path)
	assert.False(t, rep.Success())
}

func TestRun_HardLinksAreOneFile(t *testing.T) {
	root := tempRoot(t)
	orig := writeFile(t, root, "orig", "linked content")
	link := filepath.Join(root, "zz-link")
	require.NoError(t, os.Link(orig, link))

	rep := runOK(t, Config{Roots: []string{root}, Mode: ModeBatchConfirm, Confirmer: alwaysYes{}})
	assert.Empty(t, rep.Groups)
	assert.Equal(t, map[string][]string{orig: {link}}, rep.LinkedPaths)
	assert.True(t, fileExists(t, orig))
	assert.True(t, fileExists(t, link))
}

func TestRun_HardLinkedCopyRemovedWithAllNames(t *testing.T) {
	root := tempRoot(t)
	a := writeFile(t, root, "a", "linked duplicate!")
	b := writeFile(t, root, "b", "linked duplicate!")
	c := filepath.Join(root, "c")
	require.NoError(t, os.Link(b, c))

	rep := runOK(t, Config{Roots: []string{root}, Mode: ModeBatchConfirm, Confirmer: alwaysYes{}})
	assert.True(t, rep.Success())
	require.Len(t, rep.Groups, 1)

	gr := rep.Groups[0]
	require.Len(t, gr.Files, 2)
	assert.Equal(t, a, gr.Keeper().Path)
	assert.Equal(t, ActionDeleted, gr.Files[1].Action)
	require.Len(t, gr.Files[1].Links, 1)
	assert.Equal(t, c, gr.Files[1].Links[0].Path)
	assert.Equal(t, ActionDeleted, gr.Files[1].Links[0].Action)

	assert.Equal(t, int64(2), rep.FilesDeleted)
	assert.Equal(t, int64(17), rep.BytesFreed)
	assertFreedAccounting(t, rep)

	assert.True(t, fileExists(t, a))
	assert.False(t, fileExists(t, b))
	assert.False(t, fileExists(t, c))

	again := runOK(t, Config{Roots: []string{root}, Mode: ModeDryRun})
	assert.Empty(t, again.Groups)
}

func TestRun_HardLinkedKeeperKeepsAllNames(t *testing.T) {
	root := tempRoot(t)
	a := writeFile(t, root, "a", "linked duplicate!")
	b := writeFile(t, root, "b", "linked duplicate!")
	z := filepath.Join(root, "z")
	require.NoError(t, os.Link(a, z))

	rep := runOK(t, Config{Roots: []string{root}, Mode: ModeBatchConfirm, Confirmer: alwaysYes{}})
	require.Len(t, rep.Groups, 1)
	keeper := rep.Groups[0].Keeper()
	assert.Equal(t, a, keeper.Path)
	require.Len(t, keeper.Links, 1)
	assert.Equal(t, ActionKeep, keeper.Links[0].Action)

	assert.Equal(t, int64(1), rep.FilesDeleted)
	assert.Equal(t, int64(17), rep.BytesFreed)
	assert.True(t, fileExists(t, a))
	assert.True(t, fileExists(t, z))
	assert.False(t, fileExists(t, b))
}

func TestRun_SymlinkOutsideRootsIsClean(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "plain.txt", "regular")
	outside := writeFile(t, tempRoot(t), "x", "regular")
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	rep := runOK(t, Config{Roots: []string{root}, Mode: ModeBatchConfirm, Confirmer: alwaysYes{}})
	assert.True(t, rep.Success())
	assert.Empty(t, rep.Warnings)
	assert.Empty(t, rep.Groups)
	assert.Equal(t, int64(1), rep.FilesIndexed)
	assert.True(t, fileExists(t, outside))
}

func TestRun_InvalidRoot(t *testing.T) {
	file := writeFile(t, t.TempDir(), "plain", "x")

	for name, roots := range map[string][]string{
		"missing":  {filepath.Join(t.TempDir(), "nope")},
		"file":     {file},
		"no roots": nil,
	} {
		t.Run(name, func(t *testing.T) {
			res := Run(context.Background(), Config{Roots: roots})
			require.Error(t, res.Err)
			assert.ErrorIs(t, res.Err, ErrInvalidRoot)
			assert.NotNil(t, res.Report)
			assert.Empty(t, res.Report.Groups)
		})
	}
}

func TestRun_EventsAndStats(t *testing.T) {
	root := seedTree(t)
	events := make(chan event.Event, 256)
	collector := stats.NewCollector()

	res := Run(context.Background(), Config{
		Roots:  []string{root},
		Mode:   ModeDryRun,
		Events: events,
		Stats:  collector,
	})
	require.NoError(t, res.Err)
	close(events)

	counts := map[event.Type]int{}
	for ev := range events {
		counts[ev.Type]++
	}
	assert.Equal(t, 1, counts[event.ScanStarted])
	assert.Equal(t, 1, counts[event.ScanComplete])
	assert.Equal(t, 1, counts[event.HashStarted])
	assert.Equal(t, 7, counts[event.FileHashed])
	assert.Equal(t, 2, counts[event.GroupFound])

	assert.Equal(t, int64(2), res.Stats.GroupsFound)
	assert.Equal(t, int64(7), res.Stats.FilesTotal)
}

func TestRun_Cancelled(t *testing.T) {
	root := seedTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Run(ctx, Config{Roots: []string{root}, Mode: ModeBatchConfirm, Confirmer: alwaysYes{}})
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Zero(t, res.Report.FilesDeleted)
}

// assertFreedAccounting checks bytes freed against per-file outcomes. A
// member counts only when it and every hardlink name of it were removed.
func assertFreedAccounting(t *testing.T, rep *RunReport) {
	t.Helper()

	var total int64
	for _, g := range rep.Groups {
		freed := 0
		for _, f := range g.Files {
			gone := f.Action == ActionDeleted
			for _, link := range f.Links {
				gone = gone && link.Action == ActionDeleted
			}
			if gone {
				freed++
				total += f.Size
			}
		}
		assert.Equal(t, g.Size*int64(freed), g.Freed)
	}
	assert.Equal(t, total, rep.BytesFreed)
}

func snapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()

	out := map[string]string{}
	require.NoError(t, filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[path] = string(data)
		return nil
	}))
	return out
}
