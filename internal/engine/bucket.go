package engine

import (
	"cmp"
	"slices"
)

// SizeBucket holds candidates that share an exact byte size.
type SizeBucket struct {
	Candidates []Candidate
	Size       int64
}

// Savings is the upper bound on bytes reclaimable from the bucket if every
// member turned out to be identical.
func (b SizeBucket) Savings() int64 {
	if len(b.Candidates) < 2 {
		return 0
	}
	return b.Size * int64(len(b.Candidates)-1)
}

// Bucketer partitions candidates by size. Zero-byte files are dropped and
// paths sharing an inode collapse onto their lexicographically smallest path.
// Not safe for concurrent use.
type Bucketer struct {
	bySize map[int64][]Candidate
	byPath map[string]struct{}
	byNode map[DevIno]int64 // inode -> size key holding its representative
	linked map[string][]string
}

// NewBucketer returns an empty Bucketer.
func NewBucketer() *Bucketer {
	return &Bucketer{
		bySize: make(map[int64][]Candidate),
		byPath: make(map[string]struct{}),
		byNode: make(map[DevIno]int64),
		linked: make(map[string][]string),
	}
}

// Add records one candidate.
func (b *Bucketer) Add(c Candidate) {
	if c.Size <= 0 {
		return
	}
	if _, seen := b.byPath[c.Path]; seen {
		return
	}
	b.byPath[c.Path] = struct{}{}

	if c.DevIno.isZero() {
		b.bySize[c.Size] = append(b.bySize[c.Size], c)
		return
	}

	size, seen := b.byNode[c.DevIno]
	if !seen {
		b.byNode[c.DevIno] = c.Size
		b.bySize[c.Size] = append(b.bySize[c.Size], c)
		return
	}

	// Another name for an inode already recorded. Keep one representative
	// and remember the alias; the deleter removes all names together.
	members := b.bySize[size]
	for i := range members {
		if members[i].DevIno != c.DevIno {
			continue
		}
		rep := members[i].Path
		if c.Path < rep {
			members[i] = c
			b.linked[c.Path] = append(b.linked[rep], rep)
			delete(b.linked, rep)
		} else {
			b.linked[rep] = append(b.linked[rep], c.Path)
		}
		return
	}
}

// Buckets returns every bucket with at least two members, ordered by
// Savings descending and then by Size descending. Candidates within a
// bucket are sorted by path and carry their folded aliases in Links.
func (b *Bucketer) Buckets() []SizeBucket {
	linked := b.LinkedPaths()
	var out []SizeBucket
	for size, cands := range b.bySize {
		if len(cands) < 2 {
			continue
		}
		sorted := sortedCandidates(cands)
		for i := range sorted {
			sorted[i].Links = linked[sorted[i].Path]
		}
		out = append(out, SizeBucket{Size: size, Candidates: sorted})
	}
	sortBuckets(out)
	return out
}

// LinkedPaths maps each representative path to the other names of the same
// inode that were folded into it.
func (b *Bucketer) LinkedPaths() map[string][]string {
	out := make(map[string][]string, len(b.linked))
	for rep, aliases := range b.linked {
		sorted := slices.Clone(aliases)
		slices.Sort(sorted)
		out[rep] = sorted
	}
	return out
}

func sortBuckets(buckets []SizeBucket) {
	slices.SortFunc(buckets, func(x, y SizeBucket) int {
		if c := cmp.Compare(y.Savings(), x.Savings()); c != 0 {
			return c
		}
		if c := cmp.Compare(y.Size, x.Size); c != 0 {
			return c
		}
		return cmp.Compare(x.Candidates[0].Path, y.Candidates[0].Path)
	})
}

func sortedCandidates(cands []Candidate) []Candidate {
	sorted := slices.Clone(cands)
	slices.SortFunc(sorted, func(x, y Candidate) int { return cmp.Compare(x.Path, y.Path) })
	return sorted
}
