package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/ddupe/internal/stats"
)

// plainPresenter writes one line per notable event and a progress line
// every few seconds while hashing. Used when stderr is not a terminal.
type plainPresenter struct {
	w       io.Writer
	stats   stats.ReadTicker
	root    string
	verbose bool
	hashing bool
}

const plainProgressInterval = 5 * time.Second

func (p *plainPresenter) Run(events <-chan Event) error {
	ticker := time.NewTicker(plainProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			if p.hashing {
				p.printProgress()
			}
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	path := StripRoot(p.root, ev.Path)
	switch ev.Type {
	case ScanComplete:
		fmt.Fprintf(p.w, "indexed %s (%s)\n", Plural(ev.Total, "file"), FormatBytes(ev.TotalSize))
	case HashStarted:
		p.hashing = true
		fmt.Fprintf(p.w, "hashing %s (%s)\n", Plural(ev.Total, "file"), FormatBytes(ev.TotalSize))
	case HashComplete:
		p.hashing = false
	case FileHashed:
		if p.verbose {
			fmt.Fprintf(p.w, "hashed: %s  %s\n", path, FormatBytes(ev.Size))
		}
	case GroupFound:
		if p.verbose {
			fmt.Fprintf(p.w, "group: %s  %d copies  %s reclaimable\n", path, ev.Total, FormatBytes(ev.Size))
		}
	case HashFailed, Warning:
		fmt.Fprintf(p.w, "warning: %s: %s\n", path, errText(ev.Error))
	case DeleteFile:
		if p.verbose {
			fmt.Fprintf(p.w, "deleted: %s\n", path)
		}
	case DeleteFailed:
		fmt.Fprintf(p.w, "delete failed: %s: %s\n", path, errText(ev.Error))
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	if snap.BytesTotal <= 0 {
		return
	}
	pct := float64(snap.BytesHashed) / float64(snap.BytesTotal) * 100
	fmt.Fprintf(p.w, "progress: %.0f%% %s/%s %s/%s files %s eta %s\n",
		pct,
		FormatBytes(snap.BytesHashed), FormatBytes(snap.BytesTotal),
		FormatCount(snap.FilesHashed), FormatCount(snap.FilesTotal),
		FormatRate(p.stats.RollingSpeed(10)),
		FormatETA(p.stats.ETA()),
	)
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
