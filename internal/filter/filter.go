// Package filter decides which entries of a scanned tree become duplicate
// candidates. Rules are rsync-style globs evaluated in the order they were
// added; the first matching rule wins and unmatched entries are kept.
package filter

import (
	"path"
	"strings"
)

type rule struct {
	pat     *pattern
	include bool
}

// Chain holds an ordered list of include/exclude rules plus size bounds.
type Chain struct {
	rules      []rule
	minSize    int64
	maxSize    int64
	skipHidden bool
}

// NewChain creates an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude appends a rule that drops entries matching glob.
func (c *Chain) AddExclude(glob string) error {
	return c.add(glob, false)
}

// AddInclude appends a rule that keeps entries matching glob.
func (c *Chain) AddInclude(glob string) error {
	return c.add(glob, true)
}

func (c *Chain) add(glob string, include bool) error {
	p, err := compile(glob)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, rule{pat: p, include: include})
	return nil
}

// SetMinSize drops regular files smaller than n bytes. Zero disables the bound.
func (c *Chain) SetMinSize(n int64) { c.minSize = n }

// SetMaxSize drops regular files larger than n bytes. Zero disables the bound.
func (c *Chain) SetMaxSize(n int64) { c.maxSize = n }

// SetSkipHidden drops dot-files and does not descend into dot-directories.
func (c *Chain) SetSkipHidden(skip bool) { c.skipHidden = skip }

// Empty reports whether the chain would keep every entry.
func (c *Chain) Empty() bool {
	return len(c.rules) == 0 && c.minSize == 0 && c.maxSize == 0 && !c.skipHidden
}

// Match reports whether the entry at relPath (slash-separated, relative to
// the scan root) should be kept. Size bounds only apply to files.
func (c *Chain) Match(relPath string, isDir bool, size int64) bool {
	if c == nil {
		return true
	}
	if c.skipHidden && strings.HasPrefix(path.Base(relPath), ".") {
		return false
	}
	if !isDir {
		if c.minSize > 0 && size < c.minSize {
			return false
		}
		if c.maxSize > 0 && size > c.maxSize {
			return false
		}
	}
	for _, r := range c.rules {
		if r.pat.matches(relPath, isDir) {
			return r.include
		}
	}
	return true
}
