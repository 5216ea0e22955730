package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bamsammich/ddupe/internal/event"
	"github.com/bamsammich/ddupe/internal/filter"
	"github.com/bamsammich/ddupe/internal/stats"
)

// Config describes one duplicate-finding run.
type Config struct {
	Events    chan<- event.Event
	Stats     *stats.Collector // created when nil
	Confirmer Confirmer
	Chooser   Chooser
	Filter    *filter.Chain
	Roots     []string
	Mode      Mode
	Workers   int // hash workers
	// ScanWorkers is the number of directory traversal goroutines.
	ScanWorkers int
	// PrefixBytes sizes the prefix pre-pass. Zero means DefaultPrefixBytes;
	// negative disables the pass.
	PrefixBytes int64
	IOLimit     int64 // bytes/sec across all hash workers, 0 = unlimited
}

// Result is the outcome of a run. Report is always non-nil. Err is set only
// for fatal problems: an invalid root, a bad config, or cancellation
// before resolution started.
type Result struct {
	Report *RunReport
	Err    error
	Stats  stats.Snapshot
}

// Run executes the full pipeline, blocking until complete.
func Run(ctx context.Context, cfg Config) Result {
	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}
	rep := &RunReport{
		RunID:     uuid.NewString(),
		Mode:      cfg.Mode,
		StartedAt: time.Now(),
	}
	finish := func(err error) Result {
		snap := collector.Snapshot()
		rep.FilesIndexed = snap.FilesIndexed
		rep.FilesHashed = snap.FilesHashed
		rep.BytesHashed = snap.BytesHashed
		rep.Duration = time.Since(rep.StartedAt)
		rep.sortWarnings()
		return Result{Report: rep, Stats: snap, Err: err}
	}

	roots, err := normalizeRoots(cfg.Roots)
	if err != nil {
		return finish(err)
	}
	rep.Roots = roots

	deleter := NewDeleter(DeleterConfig{Events: cfg.Events, Stats: collector})
	resolver, err := NewResolver(ResolverConfig{
		Mode:      cfg.Mode,
		Confirmer: cfg.Confirmer,
		Chooser:   cfg.Chooser,
		Deleter:   deleter,
	})
	if err != nil {
		return finish(err)
	}

	buckets, err := index(ctx, cfg, roots, collector, rep)
	if err != nil {
		return finish(err)
	}

	prefix := cfg.PrefixBytes
	if prefix == 0 {
		prefix = DefaultPrefixBytes
	}
	hasher := NewHasher(HasherConfig{
		Events:      cfg.Events,
		Stats:       collector,
		Limiter:     NewIOLimiter(cfg.IOLimit),
		Workers:     cfg.Workers,
		PrefixBytes: max(prefix, 0),
	})
	hashed, warnings, err := hasher.Hash(ctx, buckets)
	rep.Warnings = append(rep.Warnings, warnings...)
	if err != nil {
		return finish(fmt.Errorf("hashing: %w", err))
	}

	groups := GroupBuckets(hashed)
	collector.AddGroupsFound(int64(len(groups)))
	for _, g := range groups {
		event.Emit(cfg.Events, event.Event{
			Type:  event.GroupFound,
			Path:  g.Files[0].Path,
			Size:  g.Size,
			Total: int64(len(g.Files)),
		})
	}
	slog.Debug("grouping complete", "buckets", len(hashed), "groups", len(groups))

	resolver.Resolve(ctx, groups, rep)
	return finish(nil)
}

// index runs the traversal and buckets candidates as they arrive.
func index(ctx context.Context, cfg Config, roots []string, collector *stats.Collector, rep *RunReport) ([]SizeBucket, error) {
	event.Emit(cfg.Events, event.Event{Type: event.ScanStarted})

	indexer := NewIndexer(IndexerConfig{
		Events:  cfg.Events,
		Stats:   collector,
		Filter:  cfg.Filter,
		Roots:   roots,
		Workers: cfg.ScanWorkers,
	})
	candidates, warnings := indexer.Index(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for w := range warnings {
			rep.Warnings = append(rep.Warnings, w)
		}
	}()

	bucketer := NewBucketer()
	for c := range candidates {
		bucketer.Add(c)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("indexing: %w", err)
	}

	snap := collector.Snapshot()
	event.Emit(cfg.Events, event.Event{
		Type:      event.ScanComplete,
		Total:     snap.FilesIndexed,
		TotalSize: snap.BytesIndexed,
	})

	buckets := bucketer.Buckets()
	if linked := bucketer.LinkedPaths(); len(linked) > 0 {
		rep.LinkedPaths = linked
	}
	slog.Debug("indexing complete",
		"files", snap.FilesIndexed,
		"buckets", len(buckets),
		"warnings", len(rep.Warnings),
	)
	return buckets, nil
}

// normalizeRoots makes every root absolute with symlinks resolved and
// checks that it is a directory. Duplicate and nested roots are kept as
// given; the bucketer ignores a path seen twice.
func normalizeRoots(roots []string) ([]string, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no root given", ErrInvalidRoot)
	}
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRoot, root, err)
		}
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRoot, root, err)
		}
		info, err := os.Stat(resolved)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRoot, root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
		}
		out = append(out, resolved)
	}
	return out, nil
}
