package engine

import (
	"cmp"
	"slices"
)

// DuplicateGroup is a set of two or more files with identical size and
// fingerprint. Files are sorted by path and Files[Keeper] is the copy that
// survives; Keeper defaults to 0, the lexicographically smallest path.
type DuplicateGroup struct {
	Files       []Candidate
	Size        int64
	Fingerprint Fingerprint
	Keeper      int
}

// Reclaimable is the number of bytes freed by keeping one file.
func (g DuplicateGroup) Reclaimable() int64 {
	return g.Size * int64(len(g.Files)-1)
}

// Paths returns the member paths in order.
func (g DuplicateGroup) Paths() []string {
	paths := make([]string, len(g.Files))
	for i, f := range g.Files {
		paths[i] = f.Path
	}
	return paths
}

type groupKey struct {
	size int64
	fp   Fingerprint
}

// GroupBuckets turns hashed size buckets into duplicate groups. Candidates
// without a fingerprint are ignored. Groups are ordered by Reclaimable
// descending, then by the first member path, so output is deterministic for
// a given tree.
func GroupBuckets(buckets []SizeBucket) []DuplicateGroup {
	byKey := make(map[groupKey][]Candidate)
	for _, b := range buckets {
		for _, c := range b.Candidates {
			if !c.Hashed() {
				continue
			}
			k := groupKey{size: c.Size, fp: c.Fingerprint}
			byKey[k] = append(byKey[k], c)
		}
	}

	var groups []DuplicateGroup
	for k, members := range byKey {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{
			Files:       sortedCandidates(members),
			Size:        k.size,
			Fingerprint: k.fp,
		})
	}

	slices.SortFunc(groups, func(a, b DuplicateGroup) int {
		if c := cmp.Compare(b.Reclaimable(), a.Reclaimable()); c != 0 {
			return c
		}
		return cmp.Compare(a.Files[0].Path, b.Files[0].Path)
	})
	return groups
}
