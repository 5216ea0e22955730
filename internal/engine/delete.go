package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"

	"github.com/bamsammich/ddupe/internal/event"
	"github.com/bamsammich/ddupe/internal/stats"
)

// errKeeperMissing fails every delete in a group whose keeper can no longer
// be verified; removing the copies would risk losing the content entirely.
var errKeeperMissing = errors.New("keeper no longer present")

// DeleterConfig controls the deletion pass.
type DeleterConfig struct {
	Events chan<- event.Event
	Stats  stats.Writer
}

// Deleter removes the files named by finalized decisions.
type Deleter struct {
	cfg    DeleterConfig
	remove func(path string) error
}

// DeleteOutcome is the result of one decision. Errs is aligned with the
// decision's Delete slice; a nil entry means the file was removed.
// LinkErrs is aligned the same way and holds one entry per hardlink name
// of that member. Deleted counts every name removed; Freed counts a
// member's bytes once, and only when none of its names survive.
type DeleteOutcome struct {
	Decision Decision
	Errs     []error
	LinkErrs [][]error
	Deleted  int
	Freed    int64
}

// NewDeleter creates a deleter with the given config.
func NewDeleter(cfg DeleterConfig) *Deleter {
	return &Deleter{cfg: cfg, remove: unlink}
}

// Apply removes every file in d's delete set. Failures are recorded per
// file and never stop the remaining removals. The keeper is re-verified
// first: if it is gone or changed, nothing in the group is touched.
func (d *Deleter) Apply(dec Decision) DeleteOutcome {
	out := DeleteOutcome{
		Decision: dec,
		Errs:     make([]error, len(dec.Delete)),
		LinkErrs: make([][]error, len(dec.Delete)),
	}
	g := dec.Group

	keeperErr := verifyFile(g.Files[dec.Keeper], g.Size)
	for i, idx := range dec.Delete {
		target := g.Files[idx]
		names := append([]string{target.Path}, target.Links...)

		var errs []error
		if keeperErr != nil {
			err := fmt.Errorf("%w: %s: %w", errKeeperMissing, g.Files[dec.Keeper].Path, keeperErr)
			errs = make([]error, len(names))
			for n := range errs {
				errs[n] = err
			}
		} else {
			errs = d.removeNames(target, names, g.Size)
		}

		out.Errs[i] = errs[0]
		if len(target.Links) > 0 {
			out.LinkErrs[i] = errs[1:]
		}
		removed := 0
		for n, err := range errs {
			if err != nil {
				d.failed(names[n], err)
				continue
			}
			removed++
			d.deleted(names[n], g.Size)
		}
		out.Deleted += removed
		if removed == len(names) {
			out.Freed += g.Size
			d.freed(g.Size)
		}
	}
	return out
}

// removeNames unlinks every name of one inode. All names are verified
// first; if any of them no longer refers to the indexed file, none are
// removed, since the survivors would keep the content alive anyway.
func (d *Deleter) removeNames(target Candidate, names []string, size int64) []error {
	errs := make([]error, len(names))
	var blocked string
	for n, name := range names {
		errs[n] = verifyFile(Candidate{Path: name, DevIno: target.DevIno}, size)
		if errs[n] != nil && blocked == "" {
			blocked = name
		}
	}
	if blocked != "" {
		for n := range errs {
			if errs[n] == nil {
				errs[n] = fmt.Errorf("%w: linked name %s could not be verified", errChanged, blocked)
			}
		}
		return errs
	}
	for n, name := range names {
		errs[n] = d.remove(name)
	}
	return errs
}

func (d *Deleter) deleted(path string, size int64) {
	if d.cfg.Stats != nil {
		d.cfg.Stats.AddFilesDeleted(1)
	}
	event.Emit(d.cfg.Events, event.Event{Type: event.DeleteFile, Path: path, Size: size})
}

func (d *Deleter) freed(size int64) {
	if d.cfg.Stats != nil {
		d.cfg.Stats.AddBytesFreed(size)
	}
}

func (d *Deleter) failed(path string, err error) {
	if d.cfg.Stats != nil {
		d.cfg.Stats.AddDeleteFailed(1)
	}
	event.Emit(d.cfg.Events, event.Event{Type: event.DeleteFailed, Path: path, Error: err})
}

// verifyFile checks that c is still the regular file the indexer saw: same
// size and, where known, same inode.
func verifyFile(c Candidate, size int64) error {
	info, err := os.Lstat(c.Path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: "verify", Path: c.Path, Err: unix.EISDIR}
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is no longer a regular file", errChanged, c.Path)
	}
	if info.Size() != size {
		return fmt.Errorf("%w: %s size %d, expected %d", errChanged, c.Path, info.Size(), size)
	}
	if devino, ok := devInoFromInfo(info); ok && !c.DevIno.isZero() && devino != c.DevIno {
		return fmt.Errorf("%w: %s was replaced", errChanged, c.Path)
	}
	return nil
}

// unlink removes a single directory entry. Unlike os.Remove it never falls
// back to rmdir, so a path swapped for a directory fails with EISDIR.
func unlink(path string) error {
	for {
		err := unix.Unlink(path)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return &fs.PathError{Op: "unlink", Path: path, Err: err}
		}
		return nil
	}
}
