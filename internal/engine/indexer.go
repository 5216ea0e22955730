package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/bamsammich/ddupe/internal/event"
	"github.com/bamsammich/ddupe/internal/filter"
	"github.com/bamsammich/ddupe/internal/stats"
)

// IndexerConfig controls traversal.
type IndexerConfig struct {
	Events  chan<- event.Event
	Stats   stats.Writer
	Filter  *filter.Chain
	Roots   []string // absolute directories with symlinks resolved
	Workers int
}

// Indexer walks one or more directory trees in parallel and emits a
// Candidate for every regular file it can stat. It never reads content.
type Indexer struct {
	cfg        IndexerConfig
	candidates chan Candidate
	warnings   chan Warning
}

type dirWork struct {
	root string
	dir  string
}

// NewIndexer creates an indexer with the given config.
func NewIndexer(cfg IndexerConfig) *Indexer {
	if cfg.Workers <= 0 {
		cfg.Workers = min(runtime.NumCPU(), 8)
	}
	return &Indexer{
		cfg:        cfg,
		candidates: make(chan Candidate, cfg.Workers*4),
		warnings:   make(chan Warning, cfg.Workers*4),
	}
}

// Index starts the traversal and returns channels for candidates and
// warnings. The caller must consume from both channels until they close.
// Candidates arrive in traversal order, which is not sorted.
func (ix *Indexer) Index(ctx context.Context) (<-chan Candidate, <-chan Warning) {
	go func() {
		defer close(ix.candidates)
		defer close(ix.warnings)
		ix.walk(ctx)
	}()
	return ix.candidates, ix.warnings
}

func (ix *Indexer) walk(ctx context.Context) {
	queue := make(chan dirWork, ix.cfg.Workers*2)
	var outstanding sync.WaitGroup // directories queued but not yet scanned

	var workerWg sync.WaitGroup
	for range ix.cfg.Workers {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			for w := range queue {
				ix.scanDir(ctx, w, queue, &outstanding)
				outstanding.Done()
			}
		}()
	}

	for _, root := range ix.cfg.Roots {
		outstanding.Add(1)
		queue <- dirWork{root: root, dir: root}
	}

	outstanding.Wait()
	close(queue)
	workerWg.Wait()
}

func (ix *Indexer) scanDir(ctx context.Context, w dirWork, queue chan<- dirWork, outstanding *sync.WaitGroup) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		// ReadDir may return the entries it managed to read alongside the error.
		ix.warn(ctx, newWarning(StageTraversal, w.dir, fmt.Errorf("readdir: %w", err)))
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		path := filepath.Join(w.dir, entry.Name())
		ix.processEntry(ctx, w.root, path, queue, outstanding)
	}
}

func (ix *Indexer) processEntry(ctx context.Context, root, path string, queue chan<- dirWork, outstanding *sync.WaitGroup) {
	info, err := os.Lstat(path)
	if err != nil {
		ix.warn(ctx, newWarning(StageTraversal, path, fmt.Errorf("lstat: %w", err)))
		return
	}
	rel := relSlash(root, path)
	mode := info.Mode()

	switch {
	case mode.IsDir():
		if !ix.cfg.Filter.Match(rel, true, 0) {
			return
		}
		sub := dirWork{root: root, dir: path}
		outstanding.Add(1)
		select {
		case queue <- sub:
		default:
			// Queue full: scan inline so workers never block on each other.
			ix.scanDir(ctx, sub, queue, outstanding)
			outstanding.Done()
		}

	case mode&os.ModeSymlink != 0:
		ix.processLink(ctx, path, rel)

	case mode.IsRegular():
		if !ix.cfg.Filter.Match(rel, false, info.Size()) {
			return
		}
		ix.emit(ctx, path, info)

	default:
		// Devices, sockets and fifos are never candidates.
	}
}

// processLink follows a symlink when it resolves to a regular file. Links to
// directories are never followed, which rules out traversal cycles. Targets
// outside every root are left out quietly: only files under the roots may
// be deleted.
func (ix *Indexer) processLink(ctx context.Context, path, rel string) {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		ix.warn(ctx, newWarning(StageTraversal, path, fmt.Errorf("resolve symlink: %w", err)))
		return
	}
	info, err := os.Stat(target)
	if err != nil {
		ix.warn(ctx, newWarning(StageTraversal, path, fmt.Errorf("stat symlink target: %w", err)))
		return
	}
	if !info.Mode().IsRegular() {
		return
	}
	if !ix.withinRoots(target) {
		slog.Debug("skipping symlink to file outside roots", "link", path, "target", target)
		return
	}
	if !ix.cfg.Filter.Match(rel, false, info.Size()) {
		return
	}
	ix.emit(ctx, target, info)
}

func (ix *Indexer) withinRoots(path string) bool {
	for _, root := range ix.cfg.Roots {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (ix *Indexer) emit(ctx context.Context, path string, info os.FileInfo) {
	devino, _ := devInoFromInfo(info)
	c := Candidate{Path: path, Size: info.Size(), DevIno: devino}

	if ix.cfg.Stats != nil {
		ix.cfg.Stats.AddFilesIndexed(1)
		ix.cfg.Stats.AddBytesIndexed(c.Size)
	}

	select {
	case ix.candidates <- c:
	case <-ctx.Done():
	}
}

func (ix *Indexer) warn(ctx context.Context, w Warning) {
	if ix.cfg.Stats != nil {
		ix.cfg.Stats.AddWarnings(1)
	}
	event.Emit(ix.cfg.Events, event.Event{Type: event.Warning, Path: w.Path, Error: w})

	select {
	case ix.warnings <- w:
	case <-ctx.Done():
	}
}

// relSlash returns path relative to root using forward slashes, the form
// filter rules are written against.
func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
