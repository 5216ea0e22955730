package engine

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bamsammich/ddupe/internal/event"
	"github.com/bamsammich/ddupe/internal/stats"
)

// DefaultPrefixBytes is how much of each file the prefix pass reads.
const DefaultPrefixBytes = 4096

// HasherConfig controls the hashing stage.
type HasherConfig struct {
	Events  chan<- event.Event
	Stats   stats.Writer
	Limiter *rate.Limiter // nil for unlimited
	Workers int
	// PrefixBytes enables a cheap pre-pass that splits buckets by the hash
	// of each file's first PrefixBytes bytes. Zero disables it.
	PrefixBytes int64
}

// Hasher fingerprints the members of size buckets in parallel.
type Hasher struct {
	cfg HasherConfig
}

type slot struct {
	bucket int
	member int
}

type hashResult struct {
	fp   Fingerprint
	err  error
	done bool
}

// NewHasher creates a hasher with the given config.
func NewHasher(cfg HasherConfig) *Hasher {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.PrefixBytes < 0 {
		cfg.PrefixBytes = 0
	}
	return &Hasher{cfg: cfg}
}

// Hash fingerprints every candidate in buckets. The returned buckets contain
// only candidates that hashed successfully. A file that could not be read,
// or whose length changed since indexing, becomes a Warning instead. The error is non-nil only when ctx was
// cancelled, in which case the results are partial.
func (h *Hasher) Hash(ctx context.Context, buckets []SizeBucket) ([]SizeBucket, []Warning, error) {
	var warnings []Warning

	if h.cfg.PrefixBytes > 0 {
		var prefixWarnings []Warning
		buckets, prefixWarnings = h.narrow(ctx, buckets)
		warnings = append(warnings, prefixWarnings...)
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}
	}

	var slots []slot
	var totalBytes int64
	for bi, b := range buckets {
		for ci := range b.Candidates {
			slots = append(slots, slot{bucket: bi, member: ci})
			totalBytes += b.Size
		}
	}
	if h.cfg.Stats != nil {
		h.cfg.Stats.SetHashTotals(int64(len(slots)), totalBytes)
	}
	event.Emit(h.cfg.Events, event.Event{
		Type:      event.HashStarted,
		Total:     int64(len(slots)),
		TotalSize: totalBytes,
	})

	results := make([]hashResult, len(slots))
	runErr := h.parallel(ctx, len(slots), func(ctx context.Context, i int) {
		c := buckets[slots[i].bucket].Candidates[slots[i].member]
		results[i] = h.hashOne(ctx, c)
	})

	out := make([]SizeBucket, len(buckets))
	for bi, b := range buckets {
		out[bi] = SizeBucket{Size: b.Size}
	}
	for i, s := range slots {
		c := buckets[s.bucket].Candidates[s.member]
		r := results[i]
		switch {
		case !r.done:
			// Not scheduled, or interrupted, because ctx was cancelled.
		case r.err != nil:
			warnings = append(warnings, newWarning(StageHash, c.Path, r.err))
		default:
			out[s.bucket].Candidates = append(out[s.bucket].Candidates, c.withFingerprint(r.fp))
		}
	}

	event.Emit(h.cfg.Events, event.Event{Type: event.HashComplete, Total: int64(len(slots))})
	return out, warnings, runErr
}

func (h *Hasher) hashOne(ctx context.Context, c Candidate) hashResult {
	fp, n, err := HashFile(ctx, c.Path, h.cfg.Limiter)
	if err == nil && n != c.Size {
		err = fmt.Errorf("%w: indexed %d bytes, read %d", errChanged, c.Size, n)
	}
	if err != nil {
		if ctx.Err() != nil {
			return hashResult{}
		}
		h.fail(c, err)
		return hashResult{err: err, done: true}
	}

	if h.cfg.Stats != nil {
		h.cfg.Stats.AddFilesHashed(1)
		h.cfg.Stats.AddBytesHashed(n)
	}
	event.Emit(h.cfg.Events, event.Event{Type: event.FileHashed, Path: c.Path, Size: n})
	return hashResult{fp: fp, done: true}
}

func (h *Hasher) fail(c Candidate, err error) {
	if h.cfg.Stats != nil {
		h.cfg.Stats.AddHashFailed(1)
		h.cfg.Stats.AddWarnings(1)
		h.cfg.Stats.DropHashWork(1, c.Size)
	}
	event.Emit(h.cfg.Events, event.Event{Type: event.HashFailed, Path: c.Path, Error: err})
}

// narrow splits each bucket larger than PrefixBytes by prefix hash and
// drops sub-buckets left with a single member. Files sharing a size but
// differing in their first bytes never reach the full hash.
func (h *Hasher) narrow(ctx context.Context, buckets []SizeBucket) ([]SizeBucket, []Warning) {
	var slots []slot
	for bi, b := range buckets {
		if b.Size <= h.cfg.PrefixBytes {
			continue
		}
		for ci := range b.Candidates {
			slots = append(slots, slot{bucket: bi, member: ci})
		}
	}
	if len(slots) == 0 {
		return buckets, nil
	}

	type prefixResult struct {
		sum uint64
		err error
		ok  bool
	}
	results := make([]prefixResult, len(slots))
	_ = h.parallel(ctx, len(slots), func(ctx context.Context, i int) {
		c := buckets[slots[i].bucket].Candidates[slots[i].member]
		sum, err := prefixHash(ctx, c.Path, h.cfg.PrefixBytes, h.cfg.Limiter)
		if err != nil && ctx.Err() != nil {
			return
		}
		results[i] = prefixResult{sum: sum, err: err, ok: true}
	})

	var warnings []Warning
	split := make(map[int]map[uint64][]Candidate)
	for i, s := range slots {
		r := results[i]
		if !r.ok {
			continue
		}
		c := buckets[s.bucket].Candidates[s.member]
		if r.err != nil {
			if h.cfg.Stats != nil {
				h.cfg.Stats.AddWarnings(1)
			}
			event.Emit(h.cfg.Events, event.Event{Type: event.Warning, Path: c.Path, Error: r.err})
			warnings = append(warnings, newWarning(StageHash, c.Path, r.err))
			continue
		}
		if split[s.bucket] == nil {
			split[s.bucket] = make(map[uint64][]Candidate)
		}
		split[s.bucket][r.sum] = append(split[s.bucket][r.sum], c)
	}

	var out []SizeBucket
	for bi, b := range buckets {
		if b.Size <= h.cfg.PrefixBytes {
			out = append(out, b)
			continue
		}
		for _, members := range split[bi] {
			if len(members) >= 2 {
				out = append(out, SizeBucket{Size: b.Size, Candidates: sortedCandidates(members)})
			}
		}
	}
	sortBuckets(out)
	return out, warnings
}

// parallel runs fn for indices [0, n) on at most Workers goroutines and
// stops scheduling new work once ctx is cancelled.
func (h *Hasher) parallel(ctx context.Context, n int, fn func(context.Context, int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Workers)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(gctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}
