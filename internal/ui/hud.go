package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/ddupe/internal/stats"
)

type hudPhase int

const (
	phaseIdle hudPhase = iota
	phaseScan
	phaseHash
)

// hudPresenter keeps a single status line at the bottom of the terminal,
// redrawn in place, and prints warnings and deletions above it.
type hudPresenter struct {
	w       io.Writer
	stats   stats.ReadTicker
	root    string
	width   int
	verbose bool

	phase    hudPhase
	current  string // last path seen, shown at the end of the status line
	drawn    bool
	lastDraw time.Time
}

const (
	sparklineWidth   = 12
	progressBarWidth = 16
	hudMinInterval   = 50 * time.Millisecond
)

func (p *hudPresenter) Run(events <-chan Event) error {
	// Fire the first tick quickly to seed the throughput ring, then
	// settle on one second.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clear()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDraw()

		case <-redrawTicker.C:
			p.draw()

		case <-secTicker.C:
			p.stats.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(time.Second)
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case ScanStarted:
		p.phase = phaseScan

	case ScanComplete:
		p.phase = phaseIdle
		p.println(fmt.Sprintf("%s  indexed %s  %s",
			styleHeader.Render("scan"), Plural(ev.Total, "file"), FormatBytes(ev.TotalSize)))

	case HashStarted:
		p.phase = phaseHash
		p.current = ""

	case HashComplete:
		p.phase = phaseIdle
		p.clear()

	case FileHashed:
		p.current = ev.Path

	case GroupFound:
		if p.verbose {
			p.println(fmt.Sprintf("%s  %s  %s reclaimable",
				styleHeader.Render("dupe"), p.display(ev.Path), FormatBytes(ev.Size)))
		}

	case HashFailed, Warning, DeleteFailed:
		p.println(fmt.Sprintf("%s  %s  %s",
			styleWarn.Render("!"), p.display(ev.Path), errText(ev.Error)))

	case DeleteFile:
		if p.verbose {
			p.println(fmt.Sprintf("%s  %s  %s",
				styleDupe.Render("×"), p.display(ev.Path), styleMuted.Render(FormatBytes(ev.Size))))
		}
	}
}

// println writes a line above the status line and restores it.
func (p *hudPresenter) println(line string) {
	p.clear()
	fmt.Fprintln(p.w, line)
	p.draw()
}

func (p *hudPresenter) maybeDraw() {
	if time.Since(p.lastDraw) < hudMinInterval {
		return
	}
	p.draw()
}

func (p *hudPresenter) draw() {
	line := p.statusLine()
	if line == "" {
		p.clear()
		return
	}
	fmt.Fprintf(p.w, "\r\033[K%s", line)
	p.drawn = true
	p.lastDraw = time.Now()
}

func (p *hudPresenter) clear() {
	if !p.drawn {
		return
	}
	fmt.Fprint(p.w, "\r\033[K")
	p.drawn = false
}

// statusLine renders the line for the current phase, fitted to the
// terminal width. Empty when idle.
func (p *hudPresenter) statusLine() string {
	snap := p.stats.Snapshot()

	var head string
	switch p.phase {
	case phaseScan:
		head = fmt.Sprintf("%s  %s files  %s",
			styleHeader.Render("scanning"),
			FormatCount(snap.FilesIndexed), FormatBytes(snap.BytesIndexed))
	case phaseHash:
		var pct float64
		if snap.BytesTotal > 0 {
			pct = float64(snap.BytesHashed) / float64(snap.BytesTotal)
		}
		spark := Sparkline(p.stats.SparklineData(sparklineWidth), sparklineWidth)
		head = fmt.Sprintf("%3.0f%% %s  %s %s  %s / %s files  eta %s",
			pct*100, ProgressBar(pct, progressBarWidth),
			styleSparkline.Render(spark), FormatRate(p.stats.RollingSpeed(5)),
			FormatCount(snap.FilesHashed), FormatCount(snap.FilesTotal),
			FormatETA(p.stats.ETA()))
	default:
		return ""
	}

	room := p.width - lipgloss.Width(head) - 3
	if p.current == "" || room < 8 {
		return head
	}
	return head + "  " + styleMuted.Render(TruncPath(StripRoot(p.root, p.current), room))
}

func (p *hudPresenter) display(path string) string {
	return StyledPath(StripRoot(p.root, path))
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}

// StripRoot returns path relative to root when it lies under it.
func StripRoot(root, path string) string {
	if root == "" {
		return path
	}
	prefix := strings.TrimSuffix(root, "/") + "/"
	if rel, ok := strings.CutPrefix(path, prefix); ok && rel != "" {
		return rel
	}
	return path
}

func errText(err error) string {
	if err == nil {
		return "error"
	}
	return err.Error()
}
